package cart

import (
	"github.com/shopspring/decimal"

	"github.com/acevedolabs/tienda-storefront/pkg/enums"
)

// Cart is the in-memory representation of the shopper's cart. A nil *Cart
// means "absent": the backend has no cart for this session, or the last load
// failed.
type Cart struct {
	ID             string
	Items          []Item
	SubTotal       decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	TotalItemCount int
	Coupon         *Coupon
}

// Item is one variant+quantity line within a cart. UnitPrice is snapshotted
// by the backend at add-time; the client never recomputes it.
type Item struct {
	ID             string
	VariantID      string
	ProductName    string
	Quantity       int
	UnitPrice      decimal.Decimal
	SubTotal       decimal.Decimal
	AvailableStock int
}

// Coupon is the discount code attached to a cart. Its math is
// backend-authoritative; the client only displays it.
type Coupon struct {
	Code          string
	Type          enums.CouponType
	Value         decimal.Decimal
	MinimumAmount decimal.Decimal
	Description   string
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// CountItems sums line quantities. Always derived, never stored separately.
func (c *Cart) CountItems() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Clone returns a deep copy so callers can hand out snapshots without
// aliasing the store's state.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	dup := *c
	dup.Items = make([]Item, len(c.Items))
	copy(dup.Items, c.Items)
	if c.Coupon != nil {
		coupon := *c.Coupon
		dup.Coupon = &coupon
	}
	return &dup
}

// recompute refreshes the derived totals from line subtotals. Total is
// clamped at zero so a stale discount can never push it negative.
func (c *Cart) recompute() {
	if c == nil {
		return
	}
	subTotal := decimal.Zero
	for _, item := range c.Items {
		subTotal = subTotal.Add(item.SubTotal)
	}
	c.SubTotal = subTotal
	total := subTotal.Sub(c.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	c.Total = total
	c.TotalItemCount = c.CountItems()
}
