package resolver

import "errors"

// Sentinel kinds for resolver errors.
var (
	ErrNotFound     = errors.New("respondent not found")
	ErrAmbiguous    = errors.New("respondent matches several rows")
	ErrMalformedRow = errors.New("malformed response row")
)
