package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics records cart mutations, promotion lookups, and backend
// round-trip durations for the storefront client.
type ClientMetrics struct {
	requestDuration *prometheus.HistogramVec
	cartMutations   *prometheus.CounterVec
	promoLookups    *prometheus.CounterVec
}

// NewClientMetrics registers the client metrics on the provided registerer.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		return &ClientMetrics{}
	}
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Duration of storefront backend requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	promoLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promotion_lookups_total",
		Help: "Promotion lookups by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(requestDuration, cartMutations, promoLookups)
	return &ClientMetrics{
		requestDuration: requestDuration,
		cartMutations:   cartMutations,
		promoLookups:    promoLookups,
	}
}

// ObserveRequest records the duration of a backend call for the endpoint.
func (c *ClientMetrics) ObserveRequest(endpoint string, duration time.Duration) {
	if c == nil || c.requestDuration == nil {
		return
	}
	c.requestDuration.WithLabelValues(normalizeLabel(endpoint)).Observe(duration.Seconds())
}

// IncCartMutation counts a cart mutation outcome ("patched", "reloaded",
// "cleared", "failed").
func (c *ClientMetrics) IncCartMutation(operation, outcome string) {
	if c == nil || c.cartMutations == nil {
		return
	}
	c.cartMutations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncPromoLookup counts a promotion lookup outcome ("hit", "miss", "degraded").
func (c *ClientMetrics) IncPromoLookup(outcome string) {
	if c == nil || c.promoLookups == nil {
		return
	}
	c.promoLookups.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
