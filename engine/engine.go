// Package engine evaluates questionnaire responses: it resolves effective item
// weights, decides item visibility under conditional branching, normalizes and
// scores submitted answers, and aggregates the results into section and
// questionnaire percentages.
//
// Everything here is pure and idempotent over in-memory structures. The same
// Evaluate call backs the live preview while an assessor is typing and the
// authoritative recalculation at submission time, so both surfaces reach
// identical decisions by construction.
package engine

import "github.com/perfboard/perfboard/model"

// Catalog is the ordered item set of one questionnaire, as supplied by the
// catalog loader.
type Catalog struct {
	Items    []model.Item
	Sections []model.Section
}

// Evaluation is the complete outcome of one evaluation pass.
type Evaluation struct {
	Weights    map[string]float64
	Visibility Visibility
	Results    map[string]ItemResult
	Score      *int
	Missing    []string
}

// Evaluate runs the full pass: weights, then visibility, then per-item answer
// evaluation for visible items, then aggregation. Missing lists the labels of
// visible required items without a response; hidden items never appear in it.
func Evaluate(cat Catalog, answers AnswerState) Evaluation {
	return EvaluateWith(cat, answers, nil)
}

// EvaluateWith is Evaluate with a custom follow-up detector; nil means
// DefaultFollowUpDetector.
func EvaluateWith(cat Catalog, answers AnswerState, det FollowUpDetector) Evaluation {
	ev := Evaluation{
		Weights:    ResolveWeights(cat.Items),
		Visibility: EvaluateVisibility(cat.Items, answers, det),
		Results:    make(map[string]ItemResult, len(cat.Items)),
	}

	for _, it := range cat.Items {
		if !it.Active || !ev.Visibility.Visible[it.LinkID] {
			continue
		}
		res := EvaluateAnswer(it, answers.Values(it.LinkID))
		ev.Results[it.LinkID] = res
		if ev.Visibility.Required[it.LinkID] && !res.HasResponse {
			ev.Missing = append(ev.Missing, it.Text)
		}
	}

	ev.Score = Score(cat.Items, cat.Sections, ev.Visibility, ev.Results)
	return ev
}
