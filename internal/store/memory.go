package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/keithyco/shopping-cart-api/internal/domain"
)

// MemoryStore is a map-backed SnapshotStore for tests and local runs. It
// stores the serialized payload, not the snapshot value, so nothing aliases
// what a caller saved.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	m.mu.RLock()
	payload, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (m *MemoryStore) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	m.mu.Lock()
	m.data[key] = payload
	m.mu.Unlock()
	return nil
}

// Put stores a raw payload under key, bypassing serialization. Test hook
// for malformed snapshot handling.
func (m *MemoryStore) Put(key string, payload []byte) {
	m.mu.Lock()
	m.data[key] = payload
	m.mu.Unlock()
}
