package engine

import (
	"testing"

	"github.com/perfboard/perfboard/model"
)

func TestResolveWeights_SingleChoiceSplitKeepsExplicit(t *testing.T) {
	w := 15.0
	items := []model.Item{
		singleChoice("q1", "A", "B"),
		singleChoice("q2", "A", "B"),
		{LinkID: "q3", Type: model.TypeBoolean, Weight: &w, Active: true},
	}

	weights := ResolveWeights(items)
	if weights["q1"] != 50 || weights["q2"] != 50 {
		t.Fatalf("expected 50/50 for choice items, got %v/%v", weights["q1"], weights["q2"])
	}
	if weights["q3"] != 15 {
		t.Fatalf("explicit weight suppressed: got %v, want 15", weights["q3"])
	}
}

func TestResolveWeights_LikertSplitOnlyWithoutSingleChoice(t *testing.T) {
	items := []model.Item{
		likertItem("l1", "1", "2", "3", "4"),
		likertItem("l2", "1", "2", "3", "4"),
	}
	weights := ResolveWeights(items)
	if weights["l1"] != 50 || weights["l2"] != 50 {
		t.Fatalf("expected likert 50/50, got %v/%v", weights["l1"], weights["l2"])
	}

	// a single-select choice item anywhere suppresses the likert share
	items = append(items, singleChoice("q1", "A", "B"))
	weights = ResolveWeights(items)
	if weights["q1"] != 100 {
		t.Fatalf("expected lone choice item at 100, got %v", weights["q1"])
	}
	if weights["l1"] != 0 || weights["l2"] != 0 {
		t.Fatalf("expected likert suppressed to 0, got %v/%v", weights["l1"], weights["l2"])
	}
}

func TestResolveWeights_AutoGroupSuppressesOtherTypes(t *testing.T) {
	items := []model.Item{
		singleChoice("q1", "A", "B"),
		{LinkID: "t1", Type: model.TypeText, Active: true},
		{LinkID: "b1", Type: model.TypeBoolean, Active: true},
	}
	weights := ResolveWeights(items)
	if weights["t1"] != 0 || weights["b1"] != 0 {
		t.Fatalf("expected non-primary items at 0, got text=%v bool=%v", weights["t1"], weights["b1"])
	}
}

func TestResolveWeights_FallbackWithoutConfiguration(t *testing.T) {
	items := []model.Item{
		{LinkID: "t1", Type: model.TypeText, Active: true},
		{LinkID: "t2", Type: model.TypeTextarea, Active: true},
		{LinkID: "b1", Type: model.TypeBoolean, Active: true},
	}
	weights := ResolveWeights(items)
	for _, id := range []string{"t1", "t2", "b1"} {
		if weights[id] != 1 {
			t.Fatalf("expected fallback weight 1 for %s, got %v", id, weights[id])
		}
	}
}

func TestResolveWeights_StructuralAlwaysZero(t *testing.T) {
	w := 40.0
	items := []model.Item{
		{LinkID: "d1", Type: model.TypeDisplay, Weight: &w, Active: true},
		{LinkID: "g1", Type: model.TypeGroup, Weight: &w, Active: true},
		{LinkID: "s1", Type: model.TypeSection, Weight: &w, Active: true},
	}
	weights := ResolveWeights(items)
	for _, id := range []string{"d1", "g1", "s1"} {
		if weights[id] != 0 {
			t.Fatalf("expected structural item %s at 0, got %v", id, weights[id])
		}
	}
}

func TestResolveWeights_InactiveItemsAbsent(t *testing.T) {
	items := []model.Item{
		{LinkID: "q1", Type: model.TypeChoice, Active: false},
	}
	weights := ResolveWeights(items)
	if len(weights) != 0 {
		t.Fatalf("expected empty weight map, got %v", weights)
	}
}

func TestResolveWeights_LiteralQuotient(t *testing.T) {
	items := []model.Item{
		singleChoice("q1", "A"),
		singleChoice("q2", "A"),
		singleChoice("q3", "A"),
	}
	weights := ResolveWeights(items)
	want := 100.0 / 3.0
	for _, id := range []string{"q1", "q2", "q3"} {
		if weights[id] != want {
			t.Fatalf("expected literal quotient %v for %s, got %v", want, id, weights[id])
		}
	}
}
