package model

import (
	"fmt"
	"strings"
)

// DuplicatePolicy decides what happens when several rows share a name key.
type DuplicatePolicy string

const (
	// DuplicateFirst returns the first matching row and stops scanning.
	DuplicateFirst DuplicatePolicy = "first"
	// DuplicateReject scans every row and fails when more than one matches.
	DuplicateReject DuplicatePolicy = "reject"
)

// ParseDuplicatePolicy accepts "first" or "reject" (case-insensitive); empty means first.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DuplicateFirst:
		return DuplicateFirst, nil
	case DuplicateReject:
		return DuplicateReject, nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q", s)
}
