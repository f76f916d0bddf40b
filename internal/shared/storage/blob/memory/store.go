package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"anktest-backend/internal/shared/storage/blob"
)

// Store is an in-memory implementation of blob.Store, used as the dev
// fallback and by tests.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Exists reports whether an object is stored at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok, nil
}

// Open returns a reader over the object at key.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, blob.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Write stores a copy of data at key, overwriting any previous object.
func (s *Store) Write(ctx context.Context, key string, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_ = contentType
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	s.data[key] = cp
	s.mu.Unlock()
	return nil
}

// List returns all keys under prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	keys := make([]string, 0)
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}

var _ blob.Store = (*Store)(nil)
