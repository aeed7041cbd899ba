package engine

import "github.com/perfboard/perfboard/model"

// ResolveWeights computes the effective scoring weight of every active item in a
// questionnaire. Weights are a property of the whole item set, not of single
// items: single-select choice items share an even split of 100, likert items
// share their own split which only applies when no single-select choice items
// exist, and the presence of either auto-weighted group zeroes every other item
// that has no explicit weight. With no auto group and no explicit weight, items
// default to 1 so minimal questionnaires still produce a score.
//
// The returned map is keyed by linkId and covers active items only; inactive
// items are absent, never zero.
func ResolveWeights(items []model.Item) map[string]float64 {
	weights := make(map[string]float64)

	singleChoice := 0
	likert := 0
	for _, it := range items {
		if !it.Active {
			continue
		}
		switch {
		case it.Type == model.TypeChoice && !it.AllowMultiple:
			singleChoice++
		case it.Type == model.TypeLikert:
			likert++
		}
	}

	var choiceShare, likertShare float64
	if singleChoice > 0 {
		choiceShare = 100 / float64(singleChoice)
	}
	if likert > 0 {
		likertShare = 100 / float64(likert)
	}

	for _, it := range items {
		if !it.Active {
			continue
		}
		weights[it.LinkID] = resolveWeight(it, singleChoice, likert, choiceShare, likertShare)
	}
	return weights
}

func resolveWeight(it model.Item, singleChoice, likert int, choiceShare, likertShare float64) float64 {
	if structural(it.Type) {
		return 0
	}
	if it.Weight != nil && *it.Weight > 0 {
		return *it.Weight
	}
	if it.Type == model.TypeChoice && !it.AllowMultiple {
		return choiceShare
	}
	if it.Type == model.TypeLikert && singleChoice == 0 {
		return likertShare
	}
	if singleChoice > 0 || likert > 0 {
		// an auto-weighted group exists; everything outside it scores nothing
		return 0
	}
	return 1
}

func structural(itemType string) bool {
	switch itemType {
	case model.TypeDisplay, model.TypeGroup, model.TypeSection:
		return true
	}
	return false
}
