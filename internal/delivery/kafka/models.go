package kafka

import (
	"time"

	"github.com/keithyco/shopping-cart-api/internal/domain"
)

// CartEvent is the message produced to cart.events after every mutation.
// It carries the full snapshot plus the recomputed grand total, so
// consumers never have to rebuild pricing themselves.
type CartEvent struct {
	SchemaVersion int                   `json:"schema_version"`
	EventID       string                `json:"event_id"`
	SessionID     string                `json:"session_id"`
	Action        string                `json:"action"`
	Items         []domain.SnapshotItem `json:"items"`
	CouponCode    string                `json:"coupon_code,omitempty"`
	Total         string                `json:"total"`
	OccurredAt    time.Time             `json:"occurred_at"`
}
