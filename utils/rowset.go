package utils

import (
	"strings"
	"sync"
)

// rowSep joins cells into a single identity string. A CSV cell can never
// contain a raw unit separator, so the join is collision-free.
const rowSep = "\x1f"

// RowSet tracks full-row identities during a dedupe pass. It is safe for
// concurrent use, though the pipeline itself is single-threaded.
type RowSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewRowSet creates an empty RowSet.
func NewRowSet() *RowSet {
	return &RowSet{seen: make(map[string]struct{})}
}

// Add returns true if the row was newly added, false if an identical row
// (all columns equal) was already present.
func (s *RowSet) Add(row []string) bool {
	key := strings.Join(row, rowSep)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains returns true if an identical row has been seen.
func (s *RowSet) Contains(row []string) bool {
	key := strings.Join(row, rowSep)

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[key]
	return exists
}

// Size returns the number of unique rows tracked.
func (s *RowSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
