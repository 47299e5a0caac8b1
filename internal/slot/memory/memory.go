package memory

import (
	"context"
	"sync"

	"expensetracker/internal/slot"
)

// Store keeps slots in process memory; content is lost on exit.
type Store struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func New() *Store {
	return &Store{slots: make(map[string][]byte)}
}

// NewWith returns a store pre-populated with the given slots.
func NewWith(seed map[string][]byte) *Store {
	s := New()
	for k, v := range seed {
		s.slots[k] = append([]byte(nil), v...)
	}
	return s
}

// Read implements slot.Reader.
func (s *Store) Read(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, slot.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Write implements slot.Writer.
func (s *Store) Write(_ context.Context, key string, value []byte) error {
	if key == "" {
		return slot.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = append([]byte(nil), value...)
	return nil
}

// Len returns how many slots currently hold a value.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
