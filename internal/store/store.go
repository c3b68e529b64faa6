package store

import (
	"context"

	"github.com/keithyco/shopping-cart-api/internal/domain"
)

// SnapshotStore persists one serialized cart snapshot per session key.
// Load returns domain.ErrSnapshotNotFound when no snapshot exists for the
// key. Save failures must surface to the caller; the cart does not mask
// them.
type SnapshotStore interface {
	Load(ctx context.Context, key string) (*domain.Snapshot, error)
	Save(ctx context.Context, key string, snap *domain.Snapshot) error
}
