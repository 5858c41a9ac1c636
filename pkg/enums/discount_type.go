package enums

import "fmt"

// DiscountType classifies how a promotion reduces price.
type DiscountType string

const (
	DiscountTypePercentage   DiscountType = "Percentage"
	DiscountTypeFixedAmount  DiscountType = "FixedAmount"
	DiscountTypeFreeShipping DiscountType = "FreeShipping"
	DiscountTypeBuyXGetY     DiscountType = "BuyXGetY"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercentage,
	DiscountTypeFixedAmount,
	DiscountTypeFreeShipping,
	DiscountTypeBuyXGetY,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsPriceable reports whether the client can compute a per-product price for
// this type. FreeShipping and BuyXGetY have no local pricing formula.
func (d DiscountType) IsPriceable() bool {
	return d == DiscountTypePercentage || d == DiscountTypeFixedAmount
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}
