// Package scoring maps PHQ-9 answer phrases to weights and totals them.
package scoring

import "strings"

// Canonical answer phrases as exported by the questionnaire form.
const (
	AnswerNotAtAll         = "Not at all"
	AnswerSeveralDays      = "Several Days"
	AnswerMoreThanHalfDays = "More than half the days"
	AnswerNearlyEveryDay   = "Nearly every day"
)

// UnknownWeight is the weight of a blank or unrecognized answer.
const UnknownWeight = 0

// Weights is an immutable phrase table. Lookups are exact after trimming
// surrounding whitespace; anything not in the table scores UnknownWeight
// instead of failing.
type Weights struct {
	table map[string]int
}

// NewWeights returns the standard PHQ-9 table.
func NewWeights() *Weights {
	return &Weights{
		table: map[string]int{
			AnswerNotAtAll:         0,
			AnswerSeveralDays:      1,
			AnswerMoreThanHalfDays: 2,
			AnswerNearlyEveryDay:   3,
		},
	}
}

// Weight returns the weight of a single answer cell.
func (w *Weights) Weight(answer string) int {
	if v, ok := w.table[strings.TrimSpace(answer)]; ok {
		return v
	}
	return UnknownWeight
}

// Known reports whether the answer is one of the table phrases.
func (w *Weights) Known(answer string) bool {
	_, ok := w.table[strings.TrimSpace(answer)]
	return ok
}

// Total sums the weights of every answer cell.
func (w *Weights) Total(answers []string) int {
	total := 0
	for _, a := range answers {
		total += w.Weight(a)
	}
	return total
}

// Unrecognized counts non-blank cells that are not table phrases. Blank
// cells are skipped questions, not bad data.
func (w *Weights) Unrecognized(answers []string) int {
	n := 0
	for _, a := range answers {
		if strings.TrimSpace(a) != "" && !w.Known(a) {
			n++
		}
	}
	return n
}
