package cart

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/keithyco/shopping-cart-api/internal/domain"
	"github.com/keithyco/shopping-cart-api/internal/store"
	"github.com/shopspring/decimal"
)

// CouponSave10 is the only recognized coupon code, stored lowercase.
const CouponSave10 = "save10"

var (
	discountThreshold = decimal.NewFromInt(100)
	discountRate      = decimal.RequireFromString("0.10")
	discountCap       = decimal.NewFromInt(50)
)

// Cart owns the line items and coupon slot for one session. Every mutation
// persists a snapshot through the store before returning; the mutex
// serializes the whole read-modify-persist sequence so a single instance is
// safe to share across requests of the same session.
type Cart struct {
	mu       sync.Mutex
	key      string
	store    store.SnapshotStore
	onChange func()

	items      []domain.LineItem
	couponCode string
}

// New hydrates a cart from the snapshot stored under key. A missing or
// unreadable snapshot yields an empty cart; load problems are logged, never
// surfaced.
func New(ctx context.Context, st store.SnapshotStore, key string) *Cart {
	c := &Cart{key: key, store: st}

	snap, err := st.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			log.Printf("cart %s: load snapshot: %v", key, err)
		}
		return c
	}
	c.restore(snap)
	return c
}

// restore rebuilds state from a persisted snapshot. Items are copied into
// fresh values and the coupon is re-normalized, so nothing aliases the
// stored representation.
func (c *Cart) restore(snap *domain.Snapshot) {
	for _, it := range snap.Items {
		c.items = append(c.items, domain.LineItem{
			Product:  it.Product,
			Quantity: atLeastOne(it.Quantity),
		})
	}
	code := strings.ToLower(strings.TrimSpace(snap.CouponCode))
	if code == CouponSave10 {
		c.couponCode = code
	}
}

// OnChange registers the state-changed callback, invoked after every
// successful mutation once the snapshot is persisted. Register before the
// cart is shared; the callback may re-read Items, CouponCode and Totals.
func (c *Cart) OnChange(fn func()) {
	c.onChange = fn
}

// AddItem appends a line item for p, or bumps the quantity of the existing
// line item with the same product id. Quantities below one default to one.
func (c *Cart) AddItem(ctx context.Context, p domain.Product, quantity int) error {
	quantity = atLeastOne(quantity)

	c.mu.Lock()
	found := false
	for i := range c.items {
		if c.items[i].Product.ID == p.ID {
			c.items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		c.items = append(c.items, domain.LineItem{Product: p, Quantity: quantity})
	}
	err := c.persistLocked(ctx)
	c.mu.Unlock()

	return c.finish(err)
}

// RemoveItem deletes the line item for productID. Removing an id that is not
// in the cart is a no-op, but still persists.
func (c *Cart) RemoveItem(ctx context.Context, productID string) error {
	c.mu.Lock()
	c.removeLocked(productID)
	err := c.persistLocked(ctx)
	c.mu.Unlock()

	return c.finish(err)
}

// UpdateQuantity overwrites the quantity of the line item for productID.
// Unknown ids are ignored; a quantity of zero or less removes the item.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	c.mu.Lock()
	idx := -1
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return nil
	}
	if quantity <= 0 {
		c.removeLocked(productID)
	} else {
		c.items[idx].Quantity = quantity
	}
	err := c.persistLocked(ctx)
	c.mu.Unlock()

	return c.finish(err)
}

// ApplyCoupon validates a free-text coupon code. The recognized code is
// stored lowercase and true is returned; anything else clears the coupon
// slot and returns false, including a coupon that was valid before.
func (c *Cart) ApplyCoupon(ctx context.Context, code string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))

	c.mu.Lock()
	applied := normalized == CouponSave10
	if applied {
		c.couponCode = normalized
	} else {
		c.couponCode = ""
	}
	err := c.persistLocked(ctx)
	c.mu.Unlock()

	return applied, c.finish(err)
}

// Clear empties the cart and drops the coupon.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.items = nil
	c.couponCode = ""
	err := c.persistLocked(ctx)
	c.mu.Unlock()

	return c.finish(err)
}

// Items returns a copy of the line items with whatever derived fields the
// last totals computation left behind.
func (c *Cart) Items() []domain.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.LineItem(nil), c.items...)
}

// CouponCode returns the normalized coupon code, or "" when none is applied.
func (c *Cart) CouponCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.couponCode
}

// Totals recomputes every line item's subtotal, discount and final subtotal
// in collection order and returns the grand total. Pure derivation from
// current state; safe to call any number of times.
func (c *Cart) Totals() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalsLocked()
}

func (c *Cart) totalsLocked() decimal.Decimal {
	total := decimal.Zero
	for i := range c.items {
		it := &c.items[i]
		subtotal := it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))

		discount := decimal.Zero
		if c.couponCode == CouponSave10 && subtotal.GreaterThanOrEqual(discountThreshold) {
			discount = subtotal.Mul(discountRate)
			if discount.GreaterThan(discountCap) {
				discount = discountCap
			}
		}

		it.Subtotal = subtotal
		it.Discount = discount
		it.FinalSubtotal = subtotal.Sub(discount)
		total = total.Add(it.FinalSubtotal)
	}
	return total
}

// TotalFormatted renders the grand total with exactly two decimal places.
func (c *Cart) TotalFormatted() string {
	return c.Totals().StringFixed(2)
}

// Snapshot returns the persisted form of the current state. Derived fields
// are not included.
func (c *Cart) Snapshot() *domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cart) snapshotLocked() *domain.Snapshot {
	snap := &domain.Snapshot{
		Items:      make([]domain.SnapshotItem, 0, len(c.items)),
		CouponCode: c.couponCode,
	}
	for _, it := range c.items {
		snap.Items = append(snap.Items, domain.SnapshotItem{
			Product:  it.Product,
			Quantity: it.Quantity,
		})
	}
	return snap
}

func (c *Cart) removeLocked(productID string) {
	kept := c.items[:0]
	for _, it := range c.items {
		if it.Product.ID != productID {
			kept = append(kept, it)
		}
	}
	c.items = kept
}

func (c *Cart) persistLocked(ctx context.Context) error {
	return c.store.Save(ctx, c.key, c.snapshotLocked())
}

// finish fires the change callback outside the lock so subscribers can read
// the cart back. Store failures skip the notification and surface as-is.
func (c *Cart) finish(err error) error {
	if err != nil {
		return err
	}
	if c.onChange != nil {
		c.onChange()
	}
	return nil
}
