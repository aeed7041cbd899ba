package engine

import (
	"math"

	"github.com/perfboard/perfboard/model"
)

// GeneralSection titles the breakdown bucket collecting root-level items.
const GeneralSection = "General"

// SectionScore is one row of the reporting breakdown.
type SectionScore struct {
	SectionID *int    `json:"sectionId,omitempty"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
	Correct   int     `json:"correct"`
	Total     int     `json:"total"`
}

// Score aggregates item correctness into the questionnaire percentage:
// round(100 * correct / total) over the scorable items, nil when none exist.
// The percentage is a pure correctness ratio; resolved weights are advisory
// display data and deliberately not folded in.
func Score(items []model.Item, sections []model.Section, vis Visibility, results map[string]ItemResult) *int {
	correct, total := 0, 0
	for _, it := range items {
		if !scorable(it, sections, vis) {
			continue
		}
		total++
		if isCorrect(results[it.LinkID]) {
			correct++
		}
	}
	if total == 0 {
		return nil
	}
	score := int(math.Round(100 * float64(correct) / float64(total)))
	return &score
}

// Breakdown computes per-section percentages for reporting, rounded to one
// decimal, with a general bucket for root-level items. When the response has
// no scorable items at all but carries a stored overall score, that score is
// stamped onto every declared section (or the general bucket when no sections
// exist) so legacy overall-score-only questionnaires keep reporting.
func Breakdown(items []model.Item, sections []model.Section, vis Visibility, results map[string]ItemResult, overall *int) []SectionScore {
	type tally struct{ correct, total int }
	bySection := map[int]*tally{}
	general := &tally{}

	any := false
	for _, it := range items {
		if !scorable(it, sections, vis) {
			continue
		}
		any = true
		t := general
		if it.SectionID != nil {
			if bySection[*it.SectionID] == nil {
				bySection[*it.SectionID] = &tally{}
			}
			t = bySection[*it.SectionID]
		}
		t.total++
		if isCorrect(results[it.LinkID]) {
			t.correct++
		}
	}

	if !any {
		if overall == nil {
			return nil
		}
		return stampOverall(sections, *overall)
	}

	var out []SectionScore
	for i := range sections {
		s := sections[i]
		t := bySection[s.ID]
		if t == nil {
			continue
		}
		out = append(out, SectionScore{
			SectionID: &s.ID,
			Title:     s.Title,
			Score:     round1(100 * float64(t.correct) / float64(t.total)),
			Correct:   t.correct,
			Total:     t.total,
		})
	}
	if general.total > 0 {
		out = append(out, SectionScore{
			Title:   GeneralSection,
			Score:   round1(100 * float64(general.correct) / float64(general.total)),
			Correct: general.correct,
			Total:   general.total,
		})
	}
	return out
}

func stampOverall(sections []model.Section, overall int) []SectionScore {
	if len(sections) == 0 {
		return []SectionScore{{Title: GeneralSection, Score: float64(overall)}}
	}
	out := make([]SectionScore, 0, len(sections))
	for i := range sections {
		s := sections[i]
		out = append(out, SectionScore{
			SectionID: &s.ID,
			Title:     s.Title,
			Score:     float64(overall),
		})
	}
	return out
}

// scorable reports whether an item counts toward the correctness percentage:
// visible, inside a scoring section, single-select choice with a correctness
// requirement, and an answer key actually configured. Items flagged
// requiresCorrect without a correct option are excluded outright rather than
// scored always-wrong.
func scorable(it model.Item, sections []model.Section, vis Visibility) bool {
	if !it.Active || !vis.Visible[it.LinkID] {
		return false
	}
	if it.Type != model.TypeChoice || it.AllowMultiple || !it.RequiresCorrect {
		return false
	}
	if _, keyed := CorrectOption(it); !keyed {
		return false
	}
	if it.SectionID != nil {
		for _, s := range sections {
			if s.ID == *it.SectionID {
				return s.Scored
			}
		}
	}
	return true
}

func isCorrect(res ItemResult) bool {
	return res.HasResponse && res.Achieved >= 1
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
