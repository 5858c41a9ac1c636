package promotion

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/acevedolabs/tienda-storefront/pkg/enums"
	pkgerrors "github.com/acevedolabs/tienda-storefront/pkg/errors"
	"github.com/acevedolabs/tienda-storefront/pkg/logger"
)

type stubBackend struct {
	active     []Promotion
	applicable []Promotion
	err        error
	lastQuery  Query
}

func (s *stubBackend) ListActivePromotions(ctx context.Context) ([]Promotion, error) {
	return s.active, s.err
}

func (s *stubBackend) GetApplicablePromotions(ctx context.Context, query Query) ([]Promotion, error) {
	s.lastQuery = query
	return s.applicable, s.err
}

func newTestResolver(t *testing.T, backend *stubBackend, storeID string) *Resolver {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	resolver, err := NewResolver(backend, logg, nil, storeID)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return resolver
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

func TestComputeDiscountedPricePercentage(t *testing.T) {
	promo := Promotion{Type: enums.DiscountTypePercentage, Value: dec("25")}
	got := ComputeDiscountedPrice(dec("200"), promo)
	if !got.Equal(dec("150")) {
		t.Fatalf("expected 150, got %s", got)
	}
}

func TestComputeDiscountedPricePercentageCap(t *testing.T) {
	promo := Promotion{Type: enums.DiscountTypePercentage, Value: dec("50"), MaxDiscount: decPtr("20")}
	got := ComputeDiscountedPrice(dec("100"), promo)
	if !got.Equal(dec("80")) {
		t.Fatalf("discount must cap at 20, expected 80, got %s", got)
	}
}

func TestComputeDiscountedPriceFixedAmountFloorsAtZero(t *testing.T) {
	promo := Promotion{Type: enums.DiscountTypeFixedAmount, Value: dec("50")}
	got := ComputeDiscountedPrice(dec("10"), promo)
	if !got.Equal(decimal.Zero) {
		t.Fatalf("price must never go negative, got %s", got)
	}
}

func TestComputeDiscountedPriceUnpricedTypes(t *testing.T) {
	base := dec("99.90")
	for _, typ := range []enums.DiscountType{enums.DiscountTypeFreeShipping, enums.DiscountTypeBuyXGetY} {
		promo := Promotion{Type: typ, Value: dec("10")}
		if got := ComputeDiscountedPrice(base, promo); !got.Equal(base) {
			t.Fatalf("type %s has no per-product formula, expected base price, got %s", typ, got)
		}
	}
}

func TestBestForProductPicksGreatestDiscount(t *testing.T) {
	backend := &stubBackend{applicable: []Promotion{
		{ID: "p1", Type: enums.DiscountTypePercentage, AppliesTo: enums.AppliesToProducts, Value: dec("10")},
		{ID: "p2", Type: enums.DiscountTypeFixedAmount, AppliesTo: enums.AppliesToCategories, Value: dec("30")},
		{ID: "p3", Type: enums.DiscountTypePercentage, AppliesTo: enums.AppliesToProducts, Value: dec("20")},
	}}
	resolver := newTestResolver(t, backend, "")

	best := resolver.BestForProduct(context.Background(), "prod-1", "cat-1", dec("100"))
	if best == nil || best.ID != "p2" {
		t.Fatalf("expected p2 (discount 30), got %+v", best)
	}
	if len(backend.lastQuery.ProductIDs) != 1 || backend.lastQuery.ProductIDs[0] != "prod-1" {
		t.Fatalf("query should scope to the product, got %+v", backend.lastQuery)
	}
}

func TestBestForProductIsDeterministicAndKeepsFirstOnTie(t *testing.T) {
	backend := &stubBackend{applicable: []Promotion{
		{ID: "first", Type: enums.DiscountTypeFixedAmount, AppliesTo: enums.AppliesToProducts, Value: dec("15")},
		{ID: "second", Type: enums.DiscountTypePercentage, AppliesTo: enums.AppliesToProducts, Value: dec("15")},
	}}
	resolver := newTestResolver(t, backend, "")

	for i := 0; i < 5; i++ {
		best := resolver.BestForProduct(context.Background(), "prod-1", "", dec("100"))
		if best == nil || best.ID != "first" {
			t.Fatalf("tie must keep the first candidate in backend order, got %+v", best)
		}
	}
}

func TestBestForProductExcludesCartWideAndUnpricedTypes(t *testing.T) {
	backend := &stubBackend{applicable: []Promotion{
		{ID: "cartwide", Type: enums.DiscountTypePercentage, AppliesTo: enums.AppliesToEverything, Value: dec("90")},
		{ID: "shipping", Type: enums.DiscountTypeFreeShipping, AppliesTo: enums.AppliesToProducts, Value: dec("10")},
		{ID: "bogo", Type: enums.DiscountTypeBuyXGetY, AppliesTo: enums.AppliesToProducts, Value: dec("1")},
	}}
	resolver := newTestResolver(t, backend, "")

	if best := resolver.BestForProduct(context.Background(), "prod-1", "", dec("100")); best != nil {
		t.Fatalf("no candidate is locally priceable, expected nil, got %+v", best)
	}
}

func TestBestForProductNilWhenNoPositiveDiscount(t *testing.T) {
	backend := &stubBackend{applicable: []Promotion{
		{ID: "zero", Type: enums.DiscountTypePercentage, AppliesTo: enums.AppliesToProducts, Value: dec("0")},
	}}
	resolver := newTestResolver(t, backend, "")

	if best := resolver.BestForProduct(context.Background(), "prod-1", "", dec("100")); best != nil {
		t.Fatalf("zero discount must not be selected, got %+v", best)
	}

	backend.applicable = nil
	if best := resolver.BestForProduct(context.Background(), "prod-1", "", dec("100")); best != nil {
		t.Fatalf("empty candidate list must yield nil, got %+v", best)
	}
}

// Pricing must never fail user-visibly: an unreachable promotions backend
// degrades to the undiscounted price.
func TestBestForProductSwallowsTransportFailures(t *testing.T) {
	backend := &stubBackend{err: pkgerrors.New(pkgerrors.CodeTransport, "connection refused")}
	resolver := newTestResolver(t, backend, "")

	if best := resolver.BestForProduct(context.Background(), "prod-1", "cat-1", dec("100")); best != nil {
		t.Fatalf("failures must resolve to no promotion, got %+v", best)
	}
}

func TestGetApplicableDefaultsStoreID(t *testing.T) {
	backend := &stubBackend{}
	resolver := newTestResolver(t, backend, "store-7")

	if _, err := resolver.GetApplicable(context.Background(), Query{ProductIDs: []string{"p"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.lastQuery.StoreID != "store-7" {
		t.Fatalf("expected configured store id, got %q", backend.lastQuery.StoreID)
	}

	if _, err := resolver.GetApplicable(context.Background(), Query{StoreID: "override"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.lastQuery.StoreID != "override" {
		t.Fatalf("explicit store id must win, got %q", backend.lastQuery.StoreID)
	}
}

func TestListActivePassesThrough(t *testing.T) {
	backend := &stubBackend{active: []Promotion{{ID: "p1"}}}
	resolver := newTestResolver(t, backend, "")

	promos, err := resolver.ListActive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(promos) != 1 || promos[0].ID != "p1" {
		t.Fatalf("expected backend list unchanged, got %+v", promos)
	}
}
