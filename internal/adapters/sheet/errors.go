package sheet

import "errors"

// Sentinel kinds for sheet errors.
var (
	ErrFetch   = errors.New("sheet fetch failed")
	ErrParse   = errors.New("sheet parse failed")
	ErrNoSheet = errors.New("sheet location is empty")
)
