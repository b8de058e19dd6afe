// Package model contains domain models passed between layers.
package model

// Table is a parsed response sheet. Header is the first record and is never
// scored; Rows holds the data records in sheet order.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }
