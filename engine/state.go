package engine

import (
	"strconv"
	"strings"

	"github.com/perfboard/perfboard/model"
)

// AnswerState holds the current raw values per linkId, in submission order.
// It is the single input shape shared by the live preview pass and the
// authoritative submission pass.
type AnswerState map[string][]string

// Values returns the non-blank values currently entered for a linkId.
func (s AnswerState) Values(linkID string) []string {
	var out []string
	for _, v := range s[linkID] {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// FieldLinkID maps a submitted form field name to the linkId it answers.
// Fields arrive as "item_<linkId>", multi-selects as "item_<linkId>[]".
func FieldLinkID(field string) string {
	field = strings.TrimPrefix(field, "item_")
	return strings.TrimSuffix(field, "[]")
}

// StateFromForm builds an AnswerState from raw form values keyed by field name.
func StateFromForm(form map[string][]string) AnswerState {
	state := make(AnswerState, len(form))
	for field, values := range form {
		linkID := FieldLinkID(field)
		state[linkID] = append(state[linkID], values...)
	}
	return state
}

// StateFromEntries rebuilds an AnswerState from persisted answer entries, so a
// stored response can be re-evaluated exactly like a live form post. Scale
// answers persist as bare integers; they are mapped back onto the declared
// option they were read from, so option matching and any condition sourcing
// the item see the original option text again.
func StateFromEntries(items []model.Item, byLinkID map[string][]model.AnswerEntry) AnswerState {
	scales := make(map[string][]model.Option)
	for _, it := range items {
		if it.Type == model.TypeLikert {
			scales[it.LinkID] = it.Options
		}
	}

	state := make(AnswerState, len(byLinkID))
	for linkID, entries := range byLinkID {
		for _, e := range entries {
			switch {
			case e.ValueString != nil:
				state[linkID] = append(state[linkID], *e.ValueString)
			case e.ValueBoolean != nil:
				state[linkID] = append(state[linkID], strconv.FormatBool(*e.ValueBoolean))
			case e.ValueInteger != nil:
				state[linkID] = append(state[linkID], scaleOptionValue(scales[linkID], *e.ValueInteger))
			}
		}
	}
	return state
}

// scaleOptionValue inverts the scale mapping of evalLikert: the option whose
// leading numeric prefix equals the stored scale wins, then the option at the
// scale's 1-based position when that option carries no number of its own.
func scaleOptionValue(options []model.Option, scale int) string {
	for _, opt := range options {
		if n, ok := leadingNumber(opt.Value); ok && n == scale {
			return opt.Value
		}
	}
	if scale >= 1 && scale <= len(options) {
		if _, ok := leadingNumber(options[scale-1].Value); !ok {
			return options[scale-1].Value
		}
	}
	return strconv.Itoa(scale)
}
