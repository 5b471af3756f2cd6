package storage

import (
	"context"
	"maps"
	"slices"
	"sync"

	stinterrors "github.com/abatilo/stint/internal/errors"
)

// MemoryStore is an in-process Store. FailPuts makes every Put return the
// given error, which lets callers exercise persistence failures.
type MemoryStore struct {
	mu          sync.Mutex
	data        map[string][]byte
	initialized bool
	puts        int
	FailPuts    error
}

// NewMemoryStore returns an initialized, empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}, initialized: true}
}

// Location identifies the store in messages.
func (s *MemoryStore) Location() string {
	return "memory"
}

// IsInitialized reports whether Init has run.
func (s *MemoryStore) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Init marks the store initialized.
func (s *MemoryStore) Init(force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized && !force {
		return stinterrors.AlreadyInitializedError{}
	}
	s.initialized = true
	return nil
}

// Get returns a copy of the value stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, KeyNotFoundError{Key: key}
	}
	return slices.Clone(v), nil
}

// Put stores a copy of value under key.
func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPuts != nil {
		return s.FailPuts
	}
	s.data[key] = slices.Clone(value)
	s.puts++
	return nil
}

// Puts returns how many writes succeeded.
func (s *MemoryStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// Keys returns the stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.data))
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
