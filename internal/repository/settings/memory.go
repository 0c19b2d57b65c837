package settings

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. Values are lost on restart.
type MemoryStore struct {
	// mu protects values.
	mu sync.RWMutex
	// values holds every stored integer widened to int64.
	values map[string]int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]int64),
	}
}

// GetU32 implements Store.
func (s *MemoryStore) GetU32(_ context.Context, key string) (uint32, error) {
	v, err := s.get(key)
	if err != nil {
		return 0, err
	}

	return narrowU32(key, v)
}

// SetU32 implements Store.
func (s *MemoryStore) SetU32(_ context.Context, key string, value uint32) error {
	s.set(key, int64(value))
	return nil
}

// GetI64 implements Store.
func (s *MemoryStore) GetI64(_ context.Context, key string) (int64, error) {
	return s.get(key)
}

// SetI64 implements Store.
func (s *MemoryStore) SetI64(_ context.Context, key string, value int64) error {
	s.set(key, value)
	return nil
}

// GetU8 implements Store.
func (s *MemoryStore) GetU8(_ context.Context, key string) (uint8, error) {
	v, err := s.get(key)
	if err != nil {
		return 0, err
	}

	return narrowU8(key, v)
}

// SetU8 implements Store.
func (s *MemoryStore) SetU8(_ context.Context, key string, value uint8) error {
	s.set(key, int64(value))
	return nil
}

func (s *MemoryStore) get(key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return 0, ErrNotFound
	}

	return v, nil
}

func (s *MemoryStore) set(key string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
}
