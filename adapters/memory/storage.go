package memory

import (
	"context"
	"sync"

	"github.com/be-capable/realdog-server/domain/repositories"
)

// Storage holds uploaded audio in memory and serves URLs under a fake
// scheme. It stands in for S3 in development and tests.
type Storage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ repositories.ObjectStorage = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{objects: make(map[string][]byte)}
}

func (m *Storage) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = buf
	return "memory://" + key, nil
}

func (m *Storage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *Storage) IsConfigured() bool {
	return true
}

// Get returns a stored object. Used by tests.
func (m *Storage) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}
