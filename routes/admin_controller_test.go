package routes

import (
	"strings"
	"testing"

	"github.com/perfboard/perfboard/model"
)

func TestValidateQuestionnaire(t *testing.T) {
	one := 1
	three := 3

	cases := []struct {
		name string
		q    model.Questionnaire
		want []string // substrings expected in the error, empty means valid
	}{
		{
			name: "valid minimal",
			q: model.Questionnaire{
				Title: "Safety check",
				Items: []model.Item{
					{LinkID: "q1", Type: model.TypeChoice, Options: []model.Option{{Value: "A"}}},
				},
			},
		},
		{
			name: "missing title and linkId",
			q: model.Questionnaire{
				Items: []model.Item{{Type: model.TypeText}},
			},
			want: []string{"title is required", "item 1: linkId is required"},
		},
		{
			name: "duplicate linkId",
			q: model.Questionnaire{
				Title: "T",
				Items: []model.Item{
					{LinkID: "q1", Type: model.TypeText},
					{LinkID: "q1", Type: model.TypeText},
				},
			},
			want: []string{`item 2: duplicate linkId "q1"`},
		},
		{
			name: "unknown type and operator",
			q: model.Questionnaire{
				Title: "T",
				Items: []model.Item{
					{LinkID: "q1", Type: "slider", CondSource: "x", CondOperator: "matches"},
				},
			},
			want: []string{`unknown type "slider"`, `unknown condition operator "matches"`},
		},
		{
			name: "operator without source",
			q: model.Questionnaire{
				Title: "T",
				Items: []model.Item{
					{LinkID: "q1", Type: model.TypeText, CondOperator: model.OpEquals},
				},
			},
			want: []string{"condition operator without source"},
		},
		{
			name: "choice without options",
			q: model.Questionnaire{
				Title: "T",
				Items: []model.Item{{LinkID: "q1", Type: model.TypeChoice}},
			},
			want: []string{"choice items need options"},
		},
		{
			name: "section index out of range",
			q: model.Questionnaire{
				Title:    "T",
				Sections: []model.Section{{Title: "S", Scored: true}},
				Items: []model.Item{
					{LinkID: "q1", Type: model.TypeText, SectionID: &one},
					{LinkID: "q2", Type: model.TypeText, SectionID: &three},
				},
			},
			want: []string{"item 2: sectionId 3 out of range"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateQuestionnaire(c.q)
			if len(c.want) == 0 {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %v, got nil", c.want)
			}
			for _, fragment := range c.want {
				if !strings.Contains(err.Error(), fragment) {
					t.Fatalf("error %q does not mention %q", err, fragment)
				}
			}
		})
	}
}
