package promotion

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/acevedolabs/tienda-storefront/pkg/enums"
	"github.com/acevedolabs/tienda-storefront/pkg/logger"
	"github.com/acevedolabs/tienda-storefront/pkg/metrics"
)

// backendAPI is the slice of the tienda client the resolver needs.
type backendAPI interface {
	ListActivePromotions(ctx context.Context) ([]Promotion, error)
	GetApplicablePromotions(ctx context.Context, query Query) ([]Promotion, error)
}

// Resolver selects the best applicable promotional price for a product.
type Resolver struct {
	api     backendAPI
	logger  *logger.Logger
	metrics *metrics.ClientMetrics
	// storeID scopes applicable-promotion queries when the deployment is
	// multi-store; empty means the backend's default store.
	storeID string
}

// NewResolver builds a promotion resolver backed by the tienda client.
func NewResolver(api backendAPI, logg *logger.Logger, m *metrics.ClientMetrics, storeID string) (*Resolver, error) {
	if api == nil {
		return nil, fmt.Errorf("backend api required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{api: api, logger: logg, metrics: m, storeID: storeID}, nil
}

// ListActive returns every promotion currently active for the store. Used
// for featured-promotions display only, never for price computation.
func (r *Resolver) ListActive(ctx context.Context) ([]Promotion, error) {
	return r.api.ListActivePromotions(ctx)
}

// GetApplicable returns the raw candidate list for the given context. The
// backend filters by date, activity, and store; no type or scope filtering
// happens here.
func (r *Resolver) GetApplicable(ctx context.Context, query Query) ([]Promotion, error) {
	if query.StoreID == "" {
		query.StoreID = r.storeID
	}
	return r.api.GetApplicablePromotions(ctx, query)
}

// BestForProduct returns the promotion giving the strictly greatest absolute
// discount on basePrice, or nil when none applies. Cart-wide promotions
// (AppliesTo=Everything) and types without a per-product formula are
// excluded; ties keep the first candidate in backend order.
//
// Every failure path, including transport errors, resolves to nil: a product
// always has a valid undiscounted price, so promotion lookup must degrade
// rather than block rendering. That is why this deliberately returns no error.
func (r *Resolver) BestForProduct(ctx context.Context, productID, categoryID string, basePrice decimal.Decimal) *Promotion {
	ctx = r.logger.WithOperation(ctx, "best_promotion")

	query := Query{StoreID: r.storeID}
	if productID != "" {
		query.ProductIDs = []string{productID}
	}
	if categoryID != "" {
		query.CategoryIDs = []string{categoryID}
	}

	candidates, err := r.api.GetApplicablePromotions(ctx, query)
	if err != nil {
		r.logger.Warn(r.logger.WithField(ctx, "error", err.Error()), "promotion lookup failed, showing undiscounted price")
		r.metrics.IncPromoLookup("degraded")
		return nil
	}

	var best *Promotion
	bestDiscount := decimal.Zero
	for i := range candidates {
		candidate := candidates[i]
		if candidate.AppliesTo == enums.AppliesToEverything {
			continue
		}
		if !candidate.Type.IsPriceable() {
			continue
		}
		discount := DiscountAmount(basePrice, candidate)
		if discount.GreaterThan(bestDiscount) {
			best = &candidates[i]
			bestDiscount = discount
		}
	}

	if best == nil {
		r.metrics.IncPromoLookup("miss")
		return nil
	}
	r.metrics.IncPromoLookup("hit")
	return best
}
