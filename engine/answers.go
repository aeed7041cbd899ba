package engine

import (
	"strconv"
	"strings"

	"github.com/perfboard/perfboard/model"
)

// ItemResult is the normalized outcome of one item's submitted answer.
//
// HasResponse, not Achieved, drives required-field detection: a wrong answer
// still counts as a response.
type ItemResult struct {
	Answer      []model.AnswerEntry `json:"answer,omitempty"`
	Achieved    float64             `json:"achieved"`
	HasResponse bool                `json:"hasResponse"`
}

// EvaluateAnswer normalizes the raw values submitted for one visible item and
// scores them. Values that do not match a declared option are dropped, never
// rejected. The switch is exhaustive over the item types accepting input;
// structural items produce the zero result.
func EvaluateAnswer(it model.Item, raw []string) ItemResult {
	values := nonBlank(raw)

	switch it.Type {
	case model.TypeBoolean:
		return evalBoolean(values)
	case model.TypeLikert:
		return evalLikert(it, values)
	case model.TypeChoice:
		if it.AllowMultiple {
			return evalMultiChoice(it, values)
		}
		return evalSingleChoice(it, values)
	case model.TypeText, model.TypeTextarea:
		return evalFreeText(values)
	case model.TypeDisplay, model.TypeGroup, model.TypeSection:
		return ItemResult{}
	default:
		return ItemResult{}
	}
}

func evalBoolean(values []string) ItemResult {
	if len(values) == 0 {
		return ItemResult{}
	}
	checked := truthy(values[0])
	res := ItemResult{
		Answer:      []model.AnswerEntry{model.BooleanEntry(checked)},
		HasResponse: true,
	}
	if checked {
		res.Achieved = 1
	}
	return res
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

// evalLikert maps the selected option onto the item's scale. The scale value
// is the option's leading numeric prefix ("3 - Neutral" reads as 3) or its
// 1-based position when the text carries no number. Unknown selections are
// discarded.
func evalLikert(it model.Item, values []string) ItemResult {
	scaleMax := len(it.Options)
	if scaleMax < 1 {
		scaleMax = 1
	}
	for _, v := range values {
		pos := optionIndex(it.Options, v)
		if pos < 0 {
			continue
		}
		scale := pos + 1
		if n, ok := leadingNumber(it.Options[pos].Value); ok {
			scale = n
		}
		return ItemResult{
			Answer:      []model.AnswerEntry{model.IntegerEntry(scale)},
			Achieved:    float64(scale) / float64(scaleMax),
			HasResponse: true,
		}
	}
	return ItemResult{}
}

func evalMultiChoice(it model.Item, values []string) ItemResult {
	var res ItemResult
	for _, v := range values {
		pos := optionIndex(it.Options, v)
		if pos < 0 {
			continue
		}
		res.Answer = append(res.Answer, model.StringEntry(it.Options[pos].Value))
	}
	if len(res.Answer) > 0 {
		res.Achieved = 1
		res.HasResponse = true
	}
	return res
}

func evalSingleChoice(it model.Item, values []string) ItemResult {
	for _, v := range values {
		pos := optionIndex(it.Options, v)
		if pos < 0 {
			continue
		}
		selected := it.Options[pos].Value
		res := ItemResult{
			Answer:      []model.AnswerEntry{model.StringEntry(selected)},
			HasResponse: true,
		}
		correct, keyed := CorrectOption(it)
		if it.RequiresCorrect && keyed {
			if strings.EqualFold(selected, correct) {
				res.Achieved = 1
			}
		} else {
			res.Achieved = 1
		}
		return res
	}
	return ItemResult{}
}

func evalFreeText(values []string) ItemResult {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		return ItemResult{
			Answer:      []model.AnswerEntry{model.StringEntry(v)},
			Achieved:    1,
			HasResponse: true,
		}
	}
	return ItemResult{}
}

// CorrectOption returns the item's canonical correct option value: the first
// option flagged correct in declared order. ok is false when none is flagged,
// which excludes the item from correctness aggregation.
func CorrectOption(it model.Item) (value string, ok bool) {
	for _, opt := range it.Options {
		if opt.Correct {
			return opt.Value, true
		}
	}
	return "", false
}

func optionIndex(options []model.Option, value string) int {
	for i, opt := range options {
		if strings.EqualFold(opt.Value, value) {
			return i
		}
	}
	return -1
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func leadingNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
