package ppe

import (
	"sync"
	"time"
)

// StatusStore holds the latest equipment status. A publish replaces the value
// atomically; reads copy it out, so a reader can never observe a half-written
// snapshot or mutate the stored one.
type StatusStore struct {
	mu      sync.RWMutex
	current Snapshot
}

// NewStatusStore returns a store seeded with an all-present snapshot stamped
// at creation time, so reads are well-formed before the first publish.
func NewStatusStore(now time.Time) *StatusStore {
	return &StatusStore{current: NewSnapshot(now)}
}

// Publish replaces the current snapshot.
func (s *StatusStore) Publish(snap Snapshot) {
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
}

// Read returns a copy of the current snapshot.
func (s *StatusStore) Read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
