package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/acevedolabs/tienda-storefront/pkg/logger"
	"github.com/acevedolabs/tienda-storefront/pkg/metrics"

	pkgerrors "github.com/acevedolabs/tienda-storefront/pkg/errors"
)

// backendAPI is the slice of the tienda client the store needs.
type backendAPI interface {
	GetCart(ctx context.Context) (*Cart, error)
	AddItem(ctx context.Context, variantID string, quantity int) error
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error
	RemoveItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
	ApplyCoupon(ctx context.Context, code string) (*Cart, error)
	RemoveCoupon(ctx context.Context) (*Cart, error)
}

// MutationKind tags how a mutation reconciled local state, so the UI and
// tests can distinguish optimistic patches from wholesale reloads.
type MutationKind string

const (
	// KindPatchedLocally: the backend accepted the change and local state was
	// patched arithmetically, with no extra round-trip.
	KindPatchedLocally MutationKind = "patched_locally"
	// KindReloaded: local state was replaced wholesale with the backend's cart.
	KindReloaded MutationKind = "reloaded_from_server"
	// KindCleared: the cart is now absent.
	KindCleared MutationKind = "cleared"
	// KindFailed: the mutation failed and local state is untouched.
	KindFailed MutationKind = "failed"
)

// MutationResult is the outcome of a cart mutation. Operations never return
// raw errors to the UI; failure is a result, with the message to show.
type MutationResult struct {
	Kind    MutationKind
	Message string
	// Cart is a snapshot of the state after the mutation; nil when absent.
	Cart *Cart
}

// OK reports whether the mutation was applied.
func (r MutationResult) OK() bool {
	return r.Kind != KindFailed
}

// Store owns the in-memory cart for the current session. Mutations are
// serialized by a single mutex, so two rapid quantity clicks cannot
// interleave reads and writes (the lost-update hazard the optimistic
// strategy would otherwise allow).
type Store struct {
	mu      sync.Mutex
	api     backendAPI
	logger  *logger.Logger
	metrics *metrics.ClientMetrics
	current *Cart
}

// NewStore builds a cart store backed by the tienda client.
func NewStore(api backendAPI, logg *logger.Logger, m *metrics.ClientMetrics) (*Store, error) {
	if api == nil {
		return nil, fmt.Errorf("backend api required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Store{api: api, logger: logg, metrics: m}, nil
}

// Load replaces local state with the backend's cart. Any failure, including
// "no cart exists", resolves to an absent cart rather than an error: the UI
// treats a missing cart and an unreachable backend the same way on read.
func (s *Store) Load(ctx context.Context) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) *Cart {
	ctx = s.logger.WithOperation(ctx, "load_cart")
	loaded, err := s.api.GetCart(ctx)
	if err != nil {
		if !pkgerrors.IsAbsence(err) {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "cart load failed, treating as empty")
		}
		s.current = nil
		return nil
	}
	if loaded.IsEmpty() {
		s.current = nil
		return nil
	}
	s.current = loaded
	return s.current.Clone()
}

// AddItem delegates to the backend and, on success, reloads the whole cart.
// The reload is not optional: the line's authoritative price, stock, and any
// promotion effects only exist server-side.
func (s *Store) AddItem(ctx context.Context, variantID string, quantity int) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(variantID) == "" {
		return s.failed(ctx, "add_item", pkgerrors.New(pkgerrors.CodeValidation, "variante requerida"))
	}
	if quantity < 1 {
		return s.failed(ctx, "add_item", pkgerrors.New(pkgerrors.CodeValidation, "la cantidad debe ser al menos 1"))
	}

	if err := s.api.AddItem(ctx, variantID, quantity); err != nil {
		return s.failed(ctx, "add_item", err)
	}

	snapshot := s.loadLocked(ctx)
	s.metrics.IncCartMutation("add_item", "reloaded")
	return MutationResult{Kind: KindReloaded, Cart: snapshot}
}

// UpdateQuantity delegates to the backend and, on success, patches the line
// locally: new quantity, line subtotal, and the derived cart totals. No
// reload happens on this path; the change is pure arithmetic the server has
// already validated.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		return s.failed(ctx, "update_quantity", pkgerrors.New(pkgerrors.CodeValidation, "la cantidad debe ser al menos 1"))
	}

	idx := s.indexOfLocked(itemID)
	if idx < 0 {
		return s.failed(ctx, "update_quantity", pkgerrors.New(pkgerrors.CodeNotFound, "el articulo no esta en el carrito"))
	}

	// UX guard only. The backend remains authoritative on stock.
	if stock := s.current.Items[idx].AvailableStock; stock > 0 && quantity > stock {
		return s.failed(ctx, "update_quantity", pkgerrors.New(pkgerrors.CodeValidation, "cantidad supera el stock disponible"))
	}

	if err := s.api.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return s.failed(ctx, "update_quantity", err)
	}

	item := &s.current.Items[idx]
	item.Quantity = quantity
	item.SubTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	s.current.recompute()

	s.metrics.IncCartMutation("update_quantity", "patched")
	return MutationResult{Kind: KindPatchedLocally, Cart: s.current.Clone()}
}

// RemoveItem delegates to the backend and, on success, drops the line
// locally. Removing the last line collapses the cart to absent; an
// empty-items cart is never kept around.
func (s *Store) RemoveItem(ctx context.Context, itemID string) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(itemID)
	if idx < 0 {
		return s.failed(ctx, "remove_item", pkgerrors.New(pkgerrors.CodeNotFound, "el articulo no esta en el carrito"))
	}

	if err := s.api.RemoveItem(ctx, itemID); err != nil {
		return s.failed(ctx, "remove_item", err)
	}

	s.current.Items = append(s.current.Items[:idx], s.current.Items[idx+1:]...)
	if len(s.current.Items) == 0 {
		s.current = nil
		s.metrics.IncCartMutation("remove_item", "cleared")
		return MutationResult{Kind: KindPatchedLocally}
	}

	s.current.recompute()
	s.metrics.IncCartMutation("remove_item", "patched")
	return MutationResult{Kind: KindPatchedLocally, Cart: s.current.Clone()}
}

// Clear delegates to the backend and sets the cart absent.
func (s *Store) Clear(ctx context.Context) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.api.ClearCart(ctx); err != nil {
		return s.failed(ctx, "clear_cart", err)
	}

	s.current = nil
	s.metrics.IncCartMutation("clear_cart", "cleared")
	return MutationResult{Kind: KindCleared}
}

// ApplyCoupon uppercases the code, delegates, and on success replaces the
// cart wholesale with the server response. Discount rules live server-side;
// the client never recomputes them.
func (s *Store) ApplyCoupon(ctx context.Context, code string) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return s.failed(ctx, "apply_coupon", pkgerrors.New(pkgerrors.CodeValidation, "codigo de cupon requerido"))
	}

	updated, err := s.api.ApplyCoupon(ctx, code)
	if err != nil {
		return s.failedWithDefault(ctx, "apply_coupon", err, "cupon invalido")
	}

	s.replaceLocked(updated)
	s.metrics.IncCartMutation("apply_coupon", "reloaded")
	return MutationResult{Kind: KindReloaded, Cart: s.current.Clone()}
}

// RemoveCoupon delegates and replaces the cart wholesale on success.
func (s *Store) RemoveCoupon(ctx context.Context) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.api.RemoveCoupon(ctx)
	if err != nil {
		return s.failed(ctx, "remove_coupon", err)
	}

	s.replaceLocked(updated)
	s.metrics.IncCartMutation("remove_coupon", "reloaded")
	return MutationResult{Kind: KindReloaded, Cart: s.current.Clone()}
}

// Current returns a snapshot of the cart, or nil when absent.
func (s *Store) Current() *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// TotalItems is the derived line-quantity sum for badge display.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.CountItems()
}

// Reset drops local state without touching the backend. Used on logout,
// when cart ownership may shift between session-scoped and account-scoped.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// replaceLocked swaps in a server cart, collapsing zero-item responses to
// absent. An empty cart is never kept around, on any replacement path.
func (s *Store) replaceLocked(updated *Cart) {
	if updated.IsEmpty() {
		s.current = nil
		return
	}
	s.current = updated
}

func (s *Store) indexOfLocked(itemID string) int {
	if s.current == nil {
		return -1
	}
	for i, item := range s.current.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (s *Store) failed(ctx context.Context, operation string, err error) MutationResult {
	return s.failedWithDefault(ctx, operation, err, "")
}

func (s *Store) failedWithDefault(ctx context.Context, operation string, err error, fallback string) MutationResult {
	ctx = s.logger.WithOperation(ctx, operation)
	s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "cart mutation failed, state unchanged")
	s.metrics.IncCartMutation(operation, "failed")

	message := fallback
	if typed := pkgerrors.As(err); typed != nil {
		if msg := typed.Message(); msg != "" || fallback == "" {
			message = typed.UserMessage()
		}
	} else if fallback == "" {
		message = err.Error()
	}
	return MutationResult{Kind: KindFailed, Message: message}
}
