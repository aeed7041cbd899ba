package engine

import (
	"regexp"
	"strings"
	"unicode"
)

// FollowUpDetector decides whether an item's prompt marks it as an implicit
// "if Other, specify" follow-up to the preceding choice item. It is an
// interface so catalogs can retire the text-pattern inference in favor of
// explicit condition declarations without touching the evaluator.
type FollowUpDetector interface {
	OtherSpecify(text string) bool
}

// DefaultFollowUpDetector matches prompts like "If Other, please specify"
// case-insensitively, ignoring punctuation.
var DefaultFollowUpDetector FollowUpDetector = patternDetector{}

var reOtherSpecify = regexp.MustCompile(`\bif\s+other\b.*\bspecify\b`)

type patternDetector struct{}

func (patternDetector) OtherSpecify(text string) bool {
	return reOtherSpecify.MatchString(stripPunct(text))
}

func stripPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
