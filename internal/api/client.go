package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acevedolabs/tienda-storefront/internal/cart"
	"github.com/acevedolabs/tienda-storefront/internal/promotion"
	"github.com/acevedolabs/tienda-storefront/pkg/config"
	pkgerrors "github.com/acevedolabs/tienda-storefront/pkg/errors"
	"github.com/acevedolabs/tienda-storefront/pkg/logger"
	"github.com/acevedolabs/tienda-storefront/pkg/metrics"
)

// TokenSource supplies the bearer token for authenticated requests. An empty
// token is valid: anonymous-cart operations carry no Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client is the typed wrapper around the tienda REST backend. It is the only
// package that knows the endpoint paths, the Spanish wire envelope, and the
// HTTP-status-to-error-code mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	tokens     TokenSource
	logger     *logger.Logger
	metrics    *metrics.ClientMetrics
}

// NewClient validates the configuration and builds the backend client.
// tokens may be nil for a purely anonymous client.
func NewClient(cfg config.BackendConfig, tokens TokenSource, logg *logger.Logger, m *metrics.ClientMetrics) (*Client, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("backend base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		tokens:     tokens,
		logger:     logg,
		metrics:    m,
	}, nil
}

// GetCart fetches the current cart. Absence ("no cart exists") comes back as
// a CodeNotFound error the caller is expected to treat as an empty cart.
func (c *Client) GetCart(ctx context.Context) (*cart.Cart, error) {
	env, err := c.do(ctx, http.MethodGet, "/CarritoCompra", "get_cart", nil)
	if err != nil {
		return nil, err
	}
	var dto carritoDTO
	if err := decodeDatos(env.Datos, &dto); err != nil {
		return nil, err
	}
	return dto.toCart()
}

// AddItem adds a variant to the cart. The response payload is ignored; the
// caller reloads the cart to pick up server-computed prices and promotions.
func (c *Client) AddItem(ctx context.Context, variantID string, quantity int) error {
	body := addItemRequest{VarianteProductoID: variantID, Cantidad: quantity}
	_, err := c.do(ctx, http.MethodPost, "/CarritoCompra/items", "add_item", body)
	return err
}

// UpdateItemQuantity changes the quantity of an existing line.
func (c *Client) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	path := "/CarritoCompra/items/" + url.PathEscape(itemID)
	_, err := c.do(ctx, http.MethodPut, path, "update_item", updateItemRequest{Cantidad: quantity})
	return err
}

// RemoveItem deletes a line from the cart.
func (c *Client) RemoveItem(ctx context.Context, itemID string) error {
	path := "/CarritoCompra/items/" + url.PathEscape(itemID)
	_, err := c.do(ctx, http.MethodDelete, path, "remove_item", nil)
	return err
}

// ClearCart removes every line and any attached coupon.
func (c *Client) ClearCart(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/CarritoCompra", "clear_cart", nil)
	return err
}

// ApplyCoupon attaches a coupon and returns the server's recomputed cart.
func (c *Client) ApplyCoupon(ctx context.Context, code string) (*cart.Cart, error) {
	env, err := c.do(ctx, http.MethodPost, "/CarritoCompra/aplicar-cupon", "apply_coupon", applyCouponRequest{Codigo: code})
	if err != nil {
		return nil, err
	}
	var dto carritoDTO
	if err := decodeDatos(env.Datos, &dto); err != nil {
		return nil, err
	}
	return dto.toCart()
}

// RemoveCoupon detaches the coupon and returns the server's recomputed cart.
func (c *Client) RemoveCoupon(ctx context.Context) (*cart.Cart, error) {
	env, err := c.do(ctx, http.MethodDelete, "/CarritoCompra/remover-cupon", "remove_coupon", nil)
	if err != nil {
		return nil, err
	}
	var dto carritoDTO
	if err := decodeDatos(env.Datos, &dto); err != nil {
		return nil, err
	}
	return dto.toCart()
}

// ListActivePromotions returns every promotion currently active for the store.
func (c *Client) ListActivePromotions(ctx context.Context) ([]promotion.Promotion, error) {
	env, err := c.do(ctx, http.MethodGet, "/Promocion/activas", "list_promotions", nil)
	if err != nil {
		return nil, err
	}
	var dtos []promocionDTO
	if err := decodeDatos(env.Datos, &dtos); err != nil {
		return nil, err
	}
	return mapPromotions(dtos)
}

// GetApplicablePromotions queries promotions applicable to the given context.
func (c *Client) GetApplicablePromotions(ctx context.Context, query promotion.Query) ([]promotion.Promotion, error) {
	body := applicablePromotionsRequest{
		ProductoIds:  query.ProductIDs,
		CategoriaIds: query.CategoryIDs,
		TiendaID:     query.StoreID,
	}
	if query.TotalAmount != nil {
		body.MontoTotal = json.Number(query.TotalAmount.String())
	}
	env, err := c.do(ctx, http.MethodPost, "/Promocion/aplicables", "applicable_promotions", body)
	if err != nil {
		return nil, err
	}
	var dtos []promocionDTO
	if err := decodeDatos(env.Datos, &dtos); err != nil {
		return nil, err
	}
	return mapPromotions(dtos)
}

func (c *Client) do(ctx context.Context, method, path, endpoint string, body any) (*envelope, error) {
	requestID := uuid.NewString()
	ctx = c.logger.WithRequestID(ctx, requestID)
	ctx = c.logger.WithFields(ctx, map[string]any{"endpoint": endpoint, "method": method})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serializando peticion")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creando peticion")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.logger.Warn(c.logger.WithField(ctx, "error", err.Error()), "token source failed, sending anonymous request")
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.logger.Debug(ctx, "backend request")
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveRequest(endpoint, time.Since(start))
	if err != nil {
		c.logger.Warn(c.logger.WithField(ctx, "error", err.Error()), "backend request failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "leyendo respuesta")
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, c.undecodable(resp.StatusCode, err)
		}
	}

	ctx = c.logger.WithField(ctx, "status", resp.StatusCode)
	if !env.Exito || resp.StatusCode >= http.StatusBadRequest {
		mapped := c.mapFailure(resp.StatusCode, env)
		c.logger.Debug(c.logger.WithField(ctx, "code", string(mapped.Code())), "backend rejected request")
		return nil, mapped
	}

	c.logger.Debug(ctx, "backend response")
	return &env, nil
}

// undecodable keeps the status-derived code when the body is not the
// expected envelope (proxies and gateways answer 401/404 with HTML).
func (c *Client) undecodable(status int, cause error) error {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, "")
	case http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, "")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDecode, cause, "decodificando respuesta")
	}
}

func (c *Client) mapFailure(status int, env envelope) *pkgerrors.Error {
	if len(env.Errores) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, env.Mensaje).WithDetails(env.Errores)
	}
	switch {
	case status == http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, env.Mensaje)
	case status == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, env.Mensaje)
	case status >= http.StatusInternalServerError:
		return pkgerrors.New(pkgerrors.CodeInternal, env.Mensaje)
	default:
		// exito=false with a human message is a business-rule rejection,
		// propagated verbatim.
		return pkgerrors.New(pkgerrors.CodeBusiness, env.Mensaje)
	}
}
