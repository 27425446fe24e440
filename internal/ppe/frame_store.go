package ppe

import "sync"

// FrameStore holds the most recent annotated JPEG frame. Publishes and reads
// both copy the buffer, so no caller ever shares bytes with the store or with
// another reader. Read reports false until the first frame is published.
type FrameStore struct {
	mu      sync.RWMutex
	current []byte
}

// NewFrameStore returns an empty frame store.
func NewFrameStore() *FrameStore {
	return &FrameStore{}
}

// Publish replaces the current frame with a copy of buf.
func (s *FrameStore) Publish(buf []byte) {
	frame := make([]byte, len(buf))
	copy(frame, buf)

	s.mu.Lock()
	s.current = frame
	s.mu.Unlock()
}

// Read returns a copy of the current frame, or (nil, false) when no frame has
// been published yet. It never blocks waiting for a frame.
func (s *FrameStore) Read() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, false
	}
	frame := make([]byte, len(s.current))
	copy(frame, s.current)
	return frame, true
}
