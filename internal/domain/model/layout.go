package model

import (
	"errors"
	"fmt"
)

// Default column spans of the response sheet export.
const (
	DefaultIdentityColumns = 1
	DefaultReservedColumns = 2
)

// ErrInvalidLayout is returned by Layout.Validate.
var ErrInvalidLayout = errors.New("invalid sheet layout")

// Layout describes where the answers end and the identity begins in a row.
// Column 0 is always the timestamp.
type Layout struct {
	// IdentityColumns is the number of trailing cells that hold the name:
	// 1 (full name), 2 (first, last) or 4 (first, middle, last, suffix).
	IdentityColumns int
	// ReservedColumns is the number of trailing cells excluded from the
	// answer span. It is never smaller than IdentityColumns.
	ReservedColumns int
}

// DefaultLayout matches the single-name export.
func DefaultLayout() Layout {
	return Layout{IdentityColumns: DefaultIdentityColumns, ReservedColumns: DefaultReservedColumns}
}

// Validate checks the spans are usable.
func (l Layout) Validate() error {
	switch l.IdentityColumns {
	case 1, 2, 4:
	default:
		return fmt.Errorf("%w: identity columns must be 1, 2 or 4, got %d", ErrInvalidLayout, l.IdentityColumns)
	}
	if l.ReservedColumns < l.IdentityColumns {
		return fmt.Errorf("%w: reserved columns (%d) must cover identity columns (%d)",
			ErrInvalidLayout, l.ReservedColumns, l.IdentityColumns)
	}
	return nil
}

// MinCells is the shortest row the layout can read a name from.
func (l Layout) MinCells() int { return 1 + l.IdentityColumns }

// IdentityCells returns the trailing identity cells of row. The caller must
// ensure len(row) >= MinCells().
func (l Layout) IdentityCells(row []string) []string {
	return row[len(row)-l.IdentityColumns:]
}

// AnswerCells returns the cells between the timestamp and the reserved span.
func (l Layout) AnswerCells(row []string) []string {
	end := len(row) - l.ReservedColumns
	if end <= 1 {
		return nil
	}
	return row[1:end]
}

// String renders the layout for logs and stats.
func (l Layout) String() string {
	return fmt.Sprintf("identity=%d reserved=%d", l.IdentityColumns, l.ReservedColumns)
}
