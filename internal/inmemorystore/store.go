package inmemorystore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/squidquam/internal/statestore"
)

// Store is an in-memory statestore.Store using sync.Map. Documents are
// copied on the way in and out so callers cannot alias stored bytes.
type Store struct {
	docs sync.Map // Key: document name, Value: []byte
}

// New creates a new, empty in-memory document store.
func New() *Store {
	return &Store{}
}

var _ statestore.Store = (*Store)(nil)

// Put stores a copy of data under name.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	s.docs.Store(name, append([]byte(nil), data...))
	return nil
}

// Get returns a copy of the document stored under name.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	v, ok := s.docs.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", statestore.ErrNotFound, name)
	}
	return append([]byte(nil), v.([]byte)...), nil
}

// List returns the stored document names in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var names []string
	s.docs.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names, nil
}
