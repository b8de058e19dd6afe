// Package resolver finds one respondent's row in a response table and scores it.
package resolver

import (
	"context"
	"fmt"

	"github.com/okian/phq9/internal/domain/model"
	"github.com/okian/phq9/internal/domain/scoring"
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithLayout sets the identity and reserved column spans.
func WithLayout(l model.Layout) Option {
	return func(r *Resolver) {
		r.layout = l
	}
}

// WithDuplicatePolicy sets how repeated names are handled.
func WithDuplicatePolicy(p model.DuplicatePolicy) Option {
	return func(r *Resolver) {
		if p != "" {
			r.duplicates = p
		}
	}
}

// Match is a scored row.
type Match struct {
	// RowNumber is the 1-based data row index (the header is row 0).
	RowNumber int
	Answers   []string
	Score     int
	Severity  scoring.Severity
	// Unrecognized counts non-blank answers that scored zero because they
	// are not one of the four phrases.
	Unrecognized int
}

// Resolver is stateless after construction and safe for concurrent use.
type Resolver struct {
	layout     model.Layout
	weights    *scoring.Weights
	duplicates model.DuplicatePolicy
}

// New creates a Resolver with the default layout, weights and first-match policy.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		layout:     model.DefaultLayout(),
		weights:    scoring.NewWeights(),
		duplicates: model.DuplicateFirst,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.layout.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve locates the row for id and scores it. It returns ErrNotFound when
// no row matches, ErrAmbiguous when the reject policy sees several matches
// and ErrMalformedRow when a scanned row is too short to carry a name.
func (r *Resolver) Resolve(ctx context.Context, table model.Table, id model.Identity) (Match, error) {
	key := id.Key()
	if key == "" {
		return Match{}, fmt.Errorf("%w: empty identity", ErrNotFound)
	}

	found := -1
	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return Match{}, err
		}
		if len(row) < r.layout.MinCells() {
			return Match{}, fmt.Errorf("%w: row %d has %d cells, need at least %d",
				ErrMalformedRow, i+1, len(row), r.layout.MinCells())
		}
		if model.NormalizeKey(r.layout.IdentityCells(row)...) != key {
			continue
		}
		if found >= 0 {
			return Match{}, fmt.Errorf("%w: rows %d and %d", ErrAmbiguous, found+1, i+1)
		}
		found = i
		if r.duplicates == model.DuplicateFirst {
			break
		}
	}
	if found < 0 {
		return Match{}, ErrNotFound
	}
	return r.score(found, table.Rows[found]), nil
}

func (r *Resolver) score(idx int, row []string) Match {
	answers := r.layout.AnswerCells(row)
	total := r.weights.Total(answers)
	return Match{
		RowNumber:    idx + 1,
		Answers:      answers,
		Score:        total,
		Severity:     scoring.Classify(total),
		Unrecognized: r.weights.Unrecognized(answers),
	}
}
