// Package cache provides digest.Store implementations.
package cache

import (
	"context"
	"slices"
	"sync"

	"github.com/theimaginaryfoundation/review-digest/digest"
)

// MemoryStore is a process-lifetime map store. Entries are copied in and out, so callers may
// edit what they get back.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]digest.Entry
}

var _ digest.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]digest.Entry)}
}

func (s *MemoryStore) Get(_ context.Context, subjectID string) (digest.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[subjectID]
	if !ok {
		return digest.Entry{}, false, nil
	}
	return cloneEntry(e), true, nil
}

func (s *MemoryStore) Set(_ context.Context, subjectID string, e digest.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[subjectID] = cloneEntry(e)
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, subjectID)
	return nil
}

// Len reports the number of cached subjects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cloneEntry(e digest.Entry) digest.Entry {
	e.Summary.Pros = slices.Clone(e.Summary.Pros)
	e.Summary.Cons = slices.Clone(e.Summary.Cons)
	e.Summary.Quotes = slices.Clone(e.Summary.Quotes)
	return e
}
