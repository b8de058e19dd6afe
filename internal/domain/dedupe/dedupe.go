// Package dedupe tracks values already handed out within one unit of work.
package dedupe

import "context"

// Deduper records seen values so callers can avoid handing them out twice.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Seen reports whether id was recorded, without recording it.
	Seen(ctx context.Context, id string) bool
}

// Set is a request-local Deduper. It never forgets a value and is not safe
// for concurrent use; create one per request instead of sharing it.
type Set struct {
	seen map[string]struct{}
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// SeenAndRecord reports whether id was already recorded and records it if not.
func (s *Set) SeenAndRecord(_ context.Context, id string) bool {
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = struct{}{}
	return false
}

// Seen reports whether id was recorded.
func (s *Set) Seen(_ context.Context, id string) bool {
	_, ok := s.seen[id]
	return ok
}
