package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrSnapshotNotFound = errors.New("cart snapshot not found")
)

// Product is the cart's copy of a catalog record. It is never a live
// reference into the catalog.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// LineItem pairs a product with a quantity. Subtotal, Discount and
// FinalSubtotal are cached display state overwritten by every totals
// computation; they are never inputs to anything.
type LineItem struct {
	Product       Product
	Quantity      int
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	FinalSubtotal decimal.Decimal
}

// Snapshot is the persisted form of a cart. Derived fields are left out
// and recomputed after load.
type Snapshot struct {
	Items      []SnapshotItem `json:"items"`
	CouponCode string         `json:"couponCode,omitempty"`
}

type SnapshotItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}
