package cart

import (
	"context"
	"sync"

	"github.com/keithyco/shopping-cart-api/internal/store"
)

// ChangeFunc receives state-changed notifications for a session's cart.
type ChangeFunc func(sessionID string, c *Cart)

// Manager hands out one Cart per session key, hydrating lazily from the
// snapshot store. Carts live for the life of the process; their persisted
// snapshots outlive it.
type Manager struct {
	store    store.SnapshotStore
	onChange ChangeFunc

	mu    sync.Mutex
	carts map[string]*Cart
}

func NewManager(st store.SnapshotStore, onChange ChangeFunc) *Manager {
	return &Manager{
		store:    st,
		onChange: onChange,
		carts:    make(map[string]*Cart),
	}
}

// Cart returns the session's cart, creating and hydrating it on first use.
func (m *Manager) Cart(ctx context.Context, sessionID string) *Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.carts[sessionID]; ok {
		return c
	}

	c := New(ctx, m.store, sessionID)
	if m.onChange != nil {
		c.OnChange(func() { m.onChange(sessionID, c) })
	}
	m.carts[sessionID] = c
	return c
}
