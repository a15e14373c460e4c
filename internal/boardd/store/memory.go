package store

import (
	"context"
	"sync"

	"github.com/grovetools/board/pkg/models"
)

// MemoryBackend keeps listings in process memory. Ids start at 1.
type MemoryBackend struct {
	mu     sync.RWMutex
	items  []models.Item
	nextID int64
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{nextID: 1}
}

func (m *MemoryBackend) List(ctx context.Context) ([]models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Item, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *MemoryBackend) Insert(ctx context.Context, item models.Item) (models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = m.nextID
	m.nextID++
	m.items = append(m.items, item)
	return item, nil
}

func (m *MemoryBackend) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
