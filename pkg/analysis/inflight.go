// Package analysis implements the decision engine: fetch context, consult
// the oracle once per odds state, persist the versioned record and grade the
// primary pick against the live score.
package analysis

import "sync"

// InFlightSet tracks matches with an analysis currently running so that
// concurrent requests for the same match collapse into a single oracle call.
type InFlightSet struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

// NewInFlightSet creates an empty set.
func NewInFlightSet() *InFlightSet {
	return &InFlightSet{ids: make(map[int64]struct{})}
}

// TryAdd claims a match. It returns false when the match is already claimed.
func (s *InFlightSet) TryAdd(matchID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ids[matchID]; exists {
		return false
	}
	s.ids[matchID] = struct{}{}
	return true
}

// Remove releases a claim. Removing an unclaimed match is a no-op.
func (s *InFlightSet) Remove(matchID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, matchID)
}

// Contains reports whether a match is claimed.
func (s *InFlightSet) Contains(matchID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.ids[matchID]
	return exists
}

// Len returns the number of claimed matches.
func (s *InFlightSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
