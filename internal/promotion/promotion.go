package promotion

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/acevedolabs/tienda-storefront/pkg/enums"
)

// Promotion is a discount rule fetched from the backend. Promotions are
// transient computation input: fetched per query, never cached or mutated.
type Promotion struct {
	ID        string
	Name      string
	Type      enums.DiscountType
	AppliesTo enums.AppliesTo
	Value     decimal.Decimal
	// MaxDiscount caps percentage discounts when set.
	MaxDiscount *decimal.Decimal
	EndsAt      time.Time
}

// Query scopes an applicable-promotions lookup. Zero-value fields are
// omitted from the request; the backend does the eligibility filtering.
type Query struct {
	ProductIDs  []string
	CategoryIDs []string
	TotalAmount *decimal.Decimal
	StoreID     string
}

// ComputeDiscountedPrice applies a promotion to a base price. Pure, no I/O.
// Percentage discounts honor the optional cap; fixed amounts floor at zero;
// types without a per-product formula leave the price untouched.
func ComputeDiscountedPrice(basePrice decimal.Decimal, promo Promotion) decimal.Decimal {
	var result decimal.Decimal
	switch promo.Type {
	case enums.DiscountTypePercentage:
		discount := basePrice.Mul(promo.Value).Div(decimal.NewFromInt(100))
		if promo.MaxDiscount != nil && discount.GreaterThan(*promo.MaxDiscount) {
			discount = *promo.MaxDiscount
		}
		result = basePrice.Sub(discount)
	case enums.DiscountTypeFixedAmount:
		result = basePrice.Sub(promo.Value)
	default:
		result = basePrice
	}
	if result.IsNegative() {
		return decimal.Zero
	}
	return result
}

// DiscountAmount is the absolute price reduction a promotion yields.
func DiscountAmount(basePrice decimal.Decimal, promo Promotion) decimal.Decimal {
	return basePrice.Sub(ComputeDiscountedPrice(basePrice, promo))
}
