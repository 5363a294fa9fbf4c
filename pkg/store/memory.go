package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory. It backs tests and the
// daemon's no-data-dir mode.
type MemoryStore struct {
	mu      sync.RWMutex
	byMatch map[int64][]*Record // sorted by Version descending
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byMatch: make(map[int64][]*Record)}
}

// FindLatest implements Store.
func (s *MemoryStore) FindLatest(_ context.Context, matchID int64, oddsHash string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.byMatch[matchID] {
		if oddsHash == "" || rec.OddsHash == oddsHash {
			return cloneRecord(rec), nil
		}
	}
	return nil, ErrNotFound
}

// MaxVersion implements Store.
func (s *MemoryStore) MaxVersion(_ context.Context, matchID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.byMatch[matchID]
	if len(recs) == 0 {
		return 0, nil
	}
	return recs[0].Version, nil
}

// Insert implements Store.
func (s *MemoryStore) Insert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := append(s.byMatch[rec.MatchID], cloneRecord(rec))
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Version > recs[j].Version })
	s.byMatch[rec.MatchID] = recs
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// cloneRecord keeps callers from mutating stored state through shared
// pointers. The snapshot slices stay shared; they are treated as immutable.
func cloneRecord(rec *Record) *Record {
	cp := *rec
	if rec.Result != nil {
		res := *rec.Result
		cp.Result = &res
	}
	return &cp
}
