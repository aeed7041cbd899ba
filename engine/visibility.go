package engine

import (
	"strconv"
	"strings"

	"github.com/perfboard/perfboard/model"
)

// maxVisibilityPasses bounds the fixed-point iteration. Condition chains are
// expected to be acyclic; a cycle in catalog configuration is not defended
// against beyond this cap.
const maxVisibilityPasses = 25

// Visibility is the evaluated show/require state of every active item.
type Visibility struct {
	Visible  map[string]bool
	Required map[string]bool
}

// EvaluateVisibility computes which items are shown and which of the shown
// items are still required, given the answers entered so far. Values belonging
// to hidden items are discarded before conditions are re-checked, so chains of
// dependent conditions settle to a fixed point. The same function backs the
// live entry surface and the authoritative submission pass.
//
// A nil detector falls back to DefaultFollowUpDetector.
func EvaluateVisibility(items []model.Item, answers AnswerState, det FollowUpDetector) Visibility {
	if det == nil {
		det = DefaultFollowUpDetector
	}
	answers = canonicalBooleans(items, answers)

	visible := make(map[string]bool, len(items))
	for _, it := range items {
		visible[it.LinkID] = it.Active
	}

	for pass := 0; pass < maxVisibilityPasses; pass++ {
		eff := effectiveAnswers(answers, visible)

		changed := false
		for i, it := range items {
			if !it.Active {
				continue
			}
			v := itemVisible(items, i, eff, det)
			if visible[it.LinkID] != v {
				visible[it.LinkID] = v
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	required := make(map[string]bool, len(items))
	for _, it := range items {
		required[it.LinkID] = visible[it.LinkID] && it.Required && !structural(it.Type)
	}
	return Visibility{Visible: visible, Required: required}
}

// canonicalBooleans rewrites checkbox values to "true"/"false" before
// conditions are matched. Live posts carry "on" where a rehydrated response
// carries the stored "true"; conditions must see the same value either way.
func canonicalBooleans(items []model.Item, answers AnswerState) AnswerState {
	var boolean map[string]bool
	for _, it := range items {
		if it.Type == model.TypeBoolean && len(answers[it.LinkID]) > 0 {
			if boolean == nil {
				boolean = make(map[string]bool)
			}
			boolean[it.LinkID] = true
		}
	}
	if boolean == nil {
		return answers
	}

	out := make(AnswerState, len(answers))
	for linkID, values := range answers {
		if !boolean[linkID] {
			out[linkID] = values
			continue
		}
		mapped := make([]string, len(values))
		for i, v := range values {
			if strings.TrimSpace(v) == "" {
				mapped[i] = v
				continue
			}
			mapped[i] = strconv.FormatBool(truthy(v))
		}
		out[linkID] = mapped
	}
	return out
}

// effectiveAnswers drops values entered for items that are currently hidden.
func effectiveAnswers(answers AnswerState, visible map[string]bool) AnswerState {
	eff := make(AnswerState, len(answers))
	for linkID, values := range answers {
		if visible[linkID] {
			eff[linkID] = values
		}
	}
	return eff
}

func itemVisible(items []model.Item, i int, answers AnswerState, det FollowUpDetector) bool {
	it := items[i]

	if it.CondSource != "" {
		return conditionHolds(it, answers.Values(it.CondSource))
	}
	if prev, ok := otherSpecifySource(items, i, det); ok {
		return selectedOther(answers.Values(prev.LinkID))
	}
	return true
}

// otherSpecifySource reports the preceding item an implicit "if Other,
// specify" follow-up hangs off, if the pattern applies at position i.
func otherSpecifySource(items []model.Item, i int, det FollowUpDetector) (model.Item, bool) {
	if i == 0 || !det.OtherSpecify(items[i].Text) {
		return model.Item{}, false
	}
	prev := items[i-1]
	if prev.Type != model.TypeChoice || prev.AllowMultiple {
		return model.Item{}, false
	}
	for _, opt := range prev.Options {
		if strings.EqualFold(opt.Value, "other") {
			return prev, true
		}
	}
	return model.Item{}, false
}

func selectedOther(values []string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), "other") {
			return true
		}
	}
	return false
}

func conditionHolds(it model.Item, sourceValues []string) bool {
	switch it.CondOperator {
	case model.OpNotEquals:
		return !anyEquals(sourceValues, it.CondValue)
	case model.OpContains:
		if it.CondValue == "" {
			return false
		}
		needle := strings.ToLower(it.CondValue)
		for _, v := range sourceValues {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
		return false
	default: // equals
		return anyEquals(sourceValues, it.CondValue)
	}
}

func anyEquals(values []string, expected string) bool {
	for _, v := range values {
		if strings.EqualFold(v, expected) {
			return true
		}
	}
	return false
}
