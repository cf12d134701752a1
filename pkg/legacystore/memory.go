package legacystore

import (
	"context"
	"sync"
)

// memoryStore is a process-local Store for tests and single-node development.
type memoryStore struct {
	mu    sync.Mutex
	blobs map[string]string
}

// NewMemoryStore creates an empty in-memory legacy store.
func NewMemoryStore() Store {
	return &memoryStore{blobs: make(map[string]string)}
}

// NewMemoryStoreWith creates an in-memory legacy store pre-seeded with blobs.
func NewMemoryStoreWith(blobs map[string]string) Store {
	s := &memoryStore{blobs: make(map[string]string, len(blobs))}
	for k, v := range blobs {
		s.blobs[k] = v
	}
	return s
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.blobs[key]
	return blob, ok, nil
}

func (s *memoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)
	return nil
}

var _ Store = (*memoryStore)(nil)
