package engine

import (
	"testing"

	"github.com/perfboard/perfboard/model"
)

func TestEvaluateAnswer_Likert(t *testing.T) {
	scale := likertItem("l1",
		"1 - Strongly Disagree", "2 - Disagree", "3 - Neutral", "4 - Agree", "5 - Strongly Agree")

	cases := []struct {
		name     string
		raw      []string
		achieved float64
		has      bool
		value    int
	}{
		{"agree is 4/5", []string{"4 - Agree"}, 0.8, true, 4},
		{"top of scale", []string{"5 - Strongly Agree"}, 1, true, 5},
		{"bottom of scale", []string{"1 - Strongly Disagree"}, 0.2, true, 1},
		{"unknown discarded", []string{"6 - Ecstatic"}, 0, false, 0},
		{"empty", nil, 0, false, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := EvaluateAnswer(scale, c.raw)
			if res.Achieved != c.achieved || res.HasResponse != c.has {
				t.Fatalf("achieved=%v has=%v, want %v/%v", res.Achieved, res.HasResponse, c.achieved, c.has)
			}
			if c.has && (len(res.Answer) != 1 || res.Answer[0].ValueInteger == nil || *res.Answer[0].ValueInteger != c.value) {
				t.Fatalf("expected valueInteger=%d, got %+v", c.value, res.Answer)
			}
		})
	}
}

func TestEvaluateAnswer_LikertPositionFallback(t *testing.T) {
	scale := likertItem("l1", "Never", "Sometimes", "Always")
	res := EvaluateAnswer(scale, []string{"Sometimes"})
	if res.Achieved != 2.0/3.0 {
		t.Fatalf("expected positional 2/3, got %v", res.Achieved)
	}
	if *res.Answer[0].ValueInteger != 2 {
		t.Fatalf("expected scale value 2, got %d", *res.Answer[0].ValueInteger)
	}
}

func TestEvaluateAnswer_SingleChoiceKeyed(t *testing.T) {
	item := keyedChoice("q1", "B", "A", "B", "C")

	cases := []struct {
		name     string
		raw      []string
		achieved float64
		has      bool
	}{
		{"correct", []string{"B"}, 1, true},
		{"wrong still answered", []string{"A"}, 0, true},
		{"case-insensitive match", []string{"b"}, 1, true},
		{"unknown dropped", []string{"Z"}, 0, false},
		{"unknown then valid", []string{"Z", "B"}, 1, true},
		{"unanswered", nil, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := EvaluateAnswer(item, c.raw)
			if res.Achieved != c.achieved || res.HasResponse != c.has {
				t.Fatalf("achieved=%v has=%v, want %v/%v", res.Achieved, res.HasResponse, c.achieved, c.has)
			}
		})
	}
}

func TestEvaluateAnswer_SingleChoiceNormalizesToDeclaredValue(t *testing.T) {
	item := singleChoice("q1", "Manager", "Clerk")
	res := EvaluateAnswer(item, []string{"manager"})
	if *res.Answer[0].ValueString != "Manager" {
		t.Fatalf("expected declared option value, got %q", *res.Answer[0].ValueString)
	}
	if res.Achieved != 1 {
		t.Fatalf("unkeyed single choice earns credit for answering, got %v", res.Achieved)
	}
}

func TestEvaluateAnswer_MultiChoiceNeverKeyed(t *testing.T) {
	item := keyedChoice("q1", "B", "A", "B", "C")
	item.AllowMultiple = true

	res := EvaluateAnswer(item, []string{"A", "C", "Z"})
	if res.Achieved != 1 || !res.HasResponse {
		t.Fatalf("any valid selection earns full credit, got achieved=%v has=%v", res.Achieved, res.HasResponse)
	}
	if len(res.Answer) != 2 {
		t.Fatalf("expected 2 normalized entries, got %d", len(res.Answer))
	}

	res = EvaluateAnswer(item, []string{"Z"})
	if res.HasResponse {
		t.Fatal("all-unknown selection must count as no response")
	}
}

func TestEvaluateAnswer_Boolean(t *testing.T) {
	item := model.Item{LinkID: "b1", Type: model.TypeBoolean, Active: true}

	cases := []struct {
		raw      []string
		achieved float64
		has      bool
		checked  bool
	}{
		{[]string{"true"}, 1, true, true},
		{[]string{"on"}, 1, true, true},
		{[]string{"1"}, 1, true, true},
		{[]string{"false"}, 0, true, false},
		{[]string{"0"}, 0, true, false},
		{nil, 0, false, false},
	}
	for _, c := range cases {
		res := EvaluateAnswer(item, c.raw)
		if res.Achieved != c.achieved || res.HasResponse != c.has {
			t.Fatalf("raw=%v: achieved=%v has=%v, want %v/%v", c.raw, res.Achieved, res.HasResponse, c.achieved, c.has)
		}
		if c.has && *res.Answer[0].ValueBoolean != c.checked {
			t.Fatalf("raw=%v: valueBoolean=%v, want %v", c.raw, *res.Answer[0].ValueBoolean, c.checked)
		}
	}
}

func TestEvaluateAnswer_FreeText(t *testing.T) {
	item := model.Item{LinkID: "t1", Type: model.TypeTextarea, Active: true}

	res := EvaluateAnswer(item, []string{"  some remarks  "})
	if res.Achieved != 1 || !res.HasResponse {
		t.Fatalf("non-blank text earns completion credit, got %v/%v", res.Achieved, res.HasResponse)
	}
	if *res.Answer[0].ValueString != "some remarks" {
		t.Fatalf("expected trimmed value, got %q", *res.Answer[0].ValueString)
	}

	res = EvaluateAnswer(item, []string{"   "})
	if res.HasResponse {
		t.Fatal("blank text is no response")
	}
}

func TestEvaluateAnswer_StructuralIsInert(t *testing.T) {
	for _, typ := range []string{model.TypeDisplay, model.TypeGroup, model.TypeSection} {
		res := EvaluateAnswer(model.Item{LinkID: "x", Type: typ, Active: true}, []string{"anything"})
		if res.HasResponse || res.Achieved != 0 || res.Answer != nil {
			t.Fatalf("%s item must produce the zero result, got %+v", typ, res)
		}
	}
}

func TestCorrectOption_FirstFlaggedWins(t *testing.T) {
	item := singleChoice("q1", "A", "B", "C")
	item.Options[1].Correct = true
	item.Options[2].Correct = true

	value, ok := CorrectOption(item)
	if !ok || value != "B" {
		t.Fatalf("expected first flagged option B, got %q ok=%v", value, ok)
	}

	if _, ok := CorrectOption(singleChoice("q2", "A")); ok {
		t.Fatal("item without flagged option must report no key")
	}
}
