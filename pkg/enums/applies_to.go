package enums

import "fmt"

// AppliesTo is the scope of a promotion: the whole cart, specific products,
// or specific categories.
type AppliesTo string

const (
	AppliesToEverything AppliesTo = "Everything"
	AppliesToProducts   AppliesTo = "Products"
	AppliesToCategories AppliesTo = "Categories"
)

var validAppliesTo = []AppliesTo{
	AppliesToEverything,
	AppliesToProducts,
	AppliesToCategories,
}

// String implements fmt.Stringer.
func (a AppliesTo) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AppliesTo scope.
func (a AppliesTo) IsValid() bool {
	for _, candidate := range validAppliesTo {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAppliesTo converts raw input into an AppliesTo scope.
func ParseAppliesTo(value string) (AppliesTo, error) {
	for _, candidate := range validAppliesTo {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion scope %q", value)
}
