package engine

import (
	"testing"

	"github.com/perfboard/perfboard/model"
)

func TestEvaluateVisibility_ExplicitEquals(t *testing.T) {
	items := []model.Item{
		{LinkID: "dept", Type: model.TypeText, Active: true},
		{
			LinkID: "budget", Type: model.TypeText, Active: true, Required: true,
			CondSource: "dept", CondOperator: model.OpEquals, CondValue: "finance",
		},
	}

	cases := []struct {
		name    string
		dept    []string
		visible bool
	}{
		{"matching case-insensitive", []string{"Finance"}, true},
		{"non-matching", []string{"Engineering"}, false},
		{"unanswered", nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			vis := EvaluateVisibility(items, AnswerState{"dept": c.dept}, nil)
			if vis.Visible["budget"] != c.visible {
				t.Fatalf("visible=%v, want %v", vis.Visible["budget"], c.visible)
			}
			if !c.visible && vis.Required["budget"] {
				t.Fatal("hidden item must not stay required")
			}
			if c.visible && !vis.Required["budget"] {
				t.Fatal("visible declared-required item must be required")
			}
		})
	}
}

func TestEvaluateVisibility_Operators(t *testing.T) {
	mk := func(op, value string) []model.Item {
		return []model.Item{
			{LinkID: "src", Type: model.TypeText, Active: true},
			{LinkID: "dst", Type: model.TypeText, Active: true, CondSource: "src", CondOperator: op, CondValue: value},
		}
	}

	cases := []struct {
		name    string
		items   []model.Item
		answers AnswerState
		visible bool
	}{
		{"not_equals hides on match", mk(model.OpNotEquals, "no"), AnswerState{"src": {"No"}}, false},
		{"not_equals shows on mismatch", mk(model.OpNotEquals, "no"), AnswerState{"src": {"yes"}}, true},
		{"not_equals shows with no answer", mk(model.OpNotEquals, "no"), AnswerState{}, true},
		{"contains substring", mk(model.OpContains, "train"), AnswerState{"src": {"Needs Training"}}, true},
		{"contains miss", mk(model.OpContains, "train"), AnswerState{"src": {"None"}}, false},
		{"contains empty value never matches", mk(model.OpContains, ""), AnswerState{"src": {"anything"}}, false},
		{"equals against missing source", mk(model.OpEquals, "x"), AnswerState{}, false},
		{"default operator is equals", mk("", "yes"), AnswerState{"src": {"YES"}}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			vis := EvaluateVisibility(c.items, c.answers, nil)
			if vis.Visible["dst"] != c.visible {
				t.Fatalf("visible=%v, want %v", vis.Visible["dst"], c.visible)
			}
		})
	}
}

func TestEvaluateVisibility_UnknownConditionSource(t *testing.T) {
	items := []model.Item{
		{LinkID: "a", Type: model.TypeText, Active: true, CondSource: "ghost", CondOperator: model.OpEquals, CondValue: "x"},
		{LinkID: "b", Type: model.TypeText, Active: true, CondSource: "ghost", CondOperator: model.OpNotEquals, CondValue: "x"},
	}
	vis := EvaluateVisibility(items, AnswerState{}, nil)
	if vis.Visible["a"] {
		t.Fatal("equals against unknown source must hide")
	}
	if !vis.Visible["b"] {
		t.Fatal("not_equals against unknown source must show")
	}
}

func TestEvaluateVisibility_OtherSpecifyFollowUp(t *testing.T) {
	items := []model.Item{
		singleChoice("role", "Manager", "Clerk", "Other"),
		{LinkID: "role_other", Type: model.TypeText, Active: true, Required: true, Text: "If Other, please specify"},
	}

	vis := EvaluateVisibility(items, AnswerState{"role": {"Other"}}, nil)
	if !vis.Visible["role_other"] {
		t.Fatal("follow-up must show when Other is selected")
	}

	vis = EvaluateVisibility(items, AnswerState{"role": {"Clerk"}}, nil)
	if vis.Visible["role_other"] {
		t.Fatal("follow-up must hide when selection moves away from Other")
	}
	if vis.Required["role_other"] {
		t.Fatal("hidden follow-up must not stay required")
	}
}

func TestEvaluateVisibility_FollowUpNeedsOtherOption(t *testing.T) {
	items := []model.Item{
		singleChoice("role", "Manager", "Clerk"),
		{LinkID: "role_other", Type: model.TypeText, Active: true, Text: "If Other, please specify"},
	}
	vis := EvaluateVisibility(items, AnswerState{}, nil)
	if !vis.Visible["role_other"] {
		t.Fatal("without an Other option the follow-up rule must not apply")
	}
}

func TestEvaluateVisibility_ExplicitConditionSuppressesFollowUpRule(t *testing.T) {
	items := []model.Item{
		singleChoice("role", "Manager", "Other"),
		{
			LinkID: "role_other", Type: model.TypeText, Active: true,
			Text:       "If Other, please specify",
			CondSource: "role", CondOperator: model.OpEquals, CondValue: "Manager",
		},
	}
	vis := EvaluateVisibility(items, AnswerState{"role": {"Other"}}, nil)
	if vis.Visible["role_other"] {
		t.Fatal("declared condition must win over the text-pattern rule")
	}
}

func TestEvaluateVisibility_ChainSettlesToFixedPoint(t *testing.T) {
	items := []model.Item{
		singleChoice("a", "yes", "no"),
		{LinkID: "b", Type: model.TypeText, Active: true, CondSource: "a", CondOperator: model.OpEquals, CondValue: "yes"},
		{LinkID: "c", Type: model.TypeText, Active: true, CondSource: "b", CondOperator: model.OpEquals, CondValue: "deep"},
	}

	// b is hidden, so its stale value must not keep c visible
	answers := AnswerState{"a": {"no"}, "b": {"deep"}}
	vis := EvaluateVisibility(items, answers, nil)
	if vis.Visible["b"] || vis.Visible["c"] {
		t.Fatalf("expected chain hidden, got b=%v c=%v", vis.Visible["b"], vis.Visible["c"])
	}

	answers = AnswerState{"a": {"yes"}, "b": {"deep"}}
	vis = EvaluateVisibility(items, answers, nil)
	if !vis.Visible["b"] || !vis.Visible["c"] {
		t.Fatalf("expected chain visible, got b=%v c=%v", vis.Visible["b"], vis.Visible["c"])
	}
}

func TestDefaultFollowUpDetector(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"If Other, please specify", true},
		{"IF OTHER SPECIFY", true},
		{"If other was chosen, kindly specify below", true},
		{"Please specify your role", false},
		{"Other remarks", false},
		{"", false},
	}
	for _, c := range cases {
		if got := DefaultFollowUpDetector.OtherSpecify(c.text); got != c.want {
			t.Fatalf("OtherSpecify(%q)=%v, want %v", c.text, got, c.want)
		}
	}
}
