// Package commentary assembles the narrative part of an assessment.
package commentary

import "sort"

// Condition keys of the phrase bank, in the order impressions are drawn.
const (
	ConditionDepression       = "Depression"
	ConditionPhysicalSymptoms = "Physical Symptoms"
	ConditionWellBeing        = "Well-Being"
)

// Conditions lists the condition keys in draw order.
func Conditions() []string {
	return []string{ConditionDepression, ConditionPhysicalSymptoms, ConditionWellBeing}
}

// Bank is a read-only set of phrases grouped by condition. It is safe to
// share between goroutines.
type Bank struct {
	pools map[string][]string
}

// NewBank copies pools into a new Bank. Blank phrases are dropped.
func NewBank(pools map[string][]string) *Bank {
	b := &Bank{pools: make(map[string][]string, len(pools))}
	for cond, phrases := range pools {
		kept := make([]string, 0, len(phrases))
		for _, p := range phrases {
			if p != "" {
				kept = append(kept, p)
			}
		}
		b.pools[cond] = kept
	}
	return b
}

// Empty reports whether the bank carries no phrases at all. A nil Bank is empty.
func (b *Bank) Empty() bool {
	if b == nil {
		return true
	}
	for _, p := range b.pools {
		if len(p) > 0 {
			return false
		}
	}
	return true
}

// Pool returns the phrases for a condition. The slice must not be modified.
func (b *Bank) Pool(condition string) []string {
	if b == nil {
		return nil
	}
	return b.pools[condition]
}

// Conditions returns the condition keys present in the bank, sorted.
func (b *Bank) Conditions() []string {
	if b == nil {
		return nil
	}
	keys := make([]string, 0, len(b.pools))
	for k := range b.pools {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the total number of phrases.
func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, p := range b.pools {
		n += len(p)
	}
	return n
}
