package commentary

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/okian/phq9/internal/domain/dedupe"
	"github.com/okian/phq9/internal/domain/scoring"
)

// Fixed texts of the commentary.
const (
	PrimaryReassuring = "The client may have mild or no mental health concerns."
	PrimaryUrgent     = "The client might be experiencing more significant mental health concerns."
	urgentPersonal    = "%s might be experiencing more significant mental health concerns."
	FallbackPhrase    = "No additional insights available."
	toolsPrefix       = "Tools for "
)

// Picker returns a uniformly random index in [0, n).
type Picker func(n int) int

// Option applies a configuration option to the Composer.
type Option func(*Composer)

// WithBank sets the phrase bank. A nil or empty bank disables impressions.
func WithBank(b *Bank) Option {
	return func(c *Composer) {
		c.bank = b
	}
}

// WithNoRepeat toggles the rule that one phrase is used at most once per Compose call.
func WithNoRepeat(enabled bool) Option {
	return func(c *Composer) {
		c.noRepeat = enabled
	}
}

// WithPersonalization puts the respondent name into the urgent primary statement.
func WithPersonalization(enabled bool) Option {
	return func(c *Composer) {
		c.personalize = enabled
	}
}

// WithPicker replaces the random index source.
func WithPicker(p Picker) Option {
	return func(c *Composer) {
		if p != nil {
			c.pick = p
		}
	}
}

// WithFallbackObserver is called with the condition whenever a draw falls back.
func WithFallbackObserver(fn func(condition string)) Option {
	return func(c *Composer) {
		c.onFallback = fn
	}
}

// Request is the input of one Compose call.
type Request struct {
	Name     string
	Severity scoring.Severity
}

// Commentary is the narrative part of an assessment.
type Commentary struct {
	Primary        string
	Impressions    []string
	SuggestedTools []string
}

// Composer builds commentary. It holds no per-request state and is safe for
// concurrent use as long as the Picker is.
type Composer struct {
	bank        *Bank
	noRepeat    bool
	personalize bool
	pick        Picker
	onFallback  func(string)
}

// NewComposer creates a Composer with no phrase bank and the no-repeat rule on.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{
		noRepeat: true,
		pick:     rand.IntN,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose returns the commentary for one assessment.
func (c *Composer) Compose(ctx context.Context, req Request) Commentary {
	out := Commentary{
		Impressions:    []string{},
		SuggestedTools: []string{},
	}
	if !req.Severity.Elevated() {
		out.Primary = PrimaryReassuring
		return out
	}

	out.Primary = PrimaryUrgent
	if c.personalize && req.Name != "" {
		out.Primary = fmt.Sprintf(urgentPersonal, req.Name)
	}
	for _, cond := range Conditions() {
		out.SuggestedTools = append(out.SuggestedTools, toolsPrefix+cond)
	}
	if c.bank.Empty() {
		return out
	}

	used := dedupe.NewSet()
	for _, cond := range Conditions() {
		out.Impressions = append(out.Impressions, c.draw(ctx, cond, used))
	}
	return out
}

// draw picks one phrase for condition, skipping phrases already in used when
// the no-repeat rule is on.
func (c *Composer) draw(ctx context.Context, condition string, used dedupe.Deduper) string {
	pool := c.bank.Pool(condition)
	candidates := pool
	if c.noRepeat {
		candidates = make([]string, 0, len(pool))
		for _, p := range pool {
			if !used.Seen(ctx, p) {
				candidates = append(candidates, p)
			}
		}
	}
	if len(candidates) == 0 {
		if c.onFallback != nil {
			c.onFallback(condition)
		}
		return FallbackPhrase
	}
	i := c.pick(len(candidates))
	if i < 0 || i >= len(candidates) {
		i = 0
	}
	phrase := candidates[i]
	used.SeenAndRecord(ctx, phrase)
	return phrase
}
