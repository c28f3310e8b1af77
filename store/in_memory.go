package store

import (
	"context"
	"sync"
)

// InMemoryBackend is a volatile Backend storing documents in a process local
// map. It is safe for concurrent access and best suited for tests or
// ephemeral demo servers. Documents are copied on both sides of the boundary
// to prevent external mutation of internal state.
type InMemoryBackend struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewInMemoryBackend constructs an empty in-memory document backend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{docs: make(map[string][]byte)}
}

// Write stores a copy of data under name, overwriting any previous document.
func (b *InMemoryBackend) Write(_ context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[name] = append([]byte(nil), data...)
	return nil
}

// Read returns a copy of the document stored under name.
func (b *InMemoryBackend) Read(_ context.Context, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.docs[name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// List returns the names of all stored documents in unspecified order.
func (b *InMemoryBackend) List(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.docs))
	for name := range b.docs {
		names = append(names, name)
	}
	return names, nil
}

// Delete removes the document stored under name, if any.
func (b *InMemoryBackend) Delete(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.docs, name)
	return nil
}

// Len reports the number of physical documents held. Test helper.
func (b *InMemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}
