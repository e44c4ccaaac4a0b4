package memory

import (
	"context"
	"slices"
	"sync"

	"quiz-master/internal/domain"
)

// Store is an in-memory implementation of app.Store. Values do not survive a restart.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewStore() *Store {
	return &Store{
		values: make(map[string][]byte),
	}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = slices.Clone(value)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
