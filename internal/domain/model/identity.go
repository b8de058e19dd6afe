package model

import (
	"errors"
	"strings"
)

// ErrInvalidIdentity is returned when a lookup carries no usable name.
var ErrInvalidIdentity = errors.New("invalid identity")

// Identity names the respondent being looked up. ClientName takes precedence
// over the split parts when both are set.
type Identity struct {
	ClientName string
	First      string
	Middle     string
	Last       string
	Suffix     string
}

// Parts returns the populated name parts in match order.
func (id Identity) Parts() []string {
	if strings.TrimSpace(id.ClientName) != "" {
		return []string{id.ClientName}
	}
	return []string{id.First, id.Middle, id.Last, id.Suffix}
}

// Empty reports whether no usable name part is present.
func (id Identity) Empty() bool {
	return NormalizeKey(id.Parts()...) == ""
}

// DisplayName is the trimmed, space-joined name as the caller wrote it.
func (id Identity) DisplayName() string {
	return strings.Join(strings.Fields(strings.Join(id.Parts(), " ")), " ")
}

// Key is the normalized comparison key for the identity.
func (id Identity) Key() string {
	return NormalizeKey(id.Parts()...)
}

// NormalizeKey joins the non-blank parts with single spaces, collapses inner
// whitespace and lower-cases the result.
func NormalizeKey(parts ...string) string {
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		fields = append(fields, strings.Fields(p)...)
	}
	return strings.ToLower(strings.Join(fields, " "))
}
