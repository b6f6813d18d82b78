// Package telemetry exposes Prometheus metrics for business-level
// observability: the cart/checkout funnel and order volume.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds the Prometheus collectors incremented by the
// service layer.
type BusinessMetrics struct {
	// Cart funnel
	CartMutations  *prometheus.CounterVec // op: add | decrement | delete
	CartValue      prometheus.Histogram

	// Checkout funnel
	CheckoutStarted     prometheus.Counter
	CheckoutStageResets prometheus.Counter
	CheckoutAbandoned   prometheus.Counter

	// Orders
	OrdersCreated  prometheus.Counter
	OrderValue     prometheus.Histogram
	OrderItemCount prometheus.Histogram
	PaymentFailed  prometheus.Counter
}

// NewBusinessMetrics creates and registers the business metrics against
// the given registerer. Tests pass a fresh prometheus.NewRegistry() to
// avoid duplicate-registration panics.
func NewBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	factory := promauto.With(reg)

	return &BusinessMetrics{
		CartMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "maplecart",
				Name:      "cart_mutations_total",
				Help:      "Cart mutations by operation",
			},
			[]string{"op"},
		),
		CartValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "maplecart",
				Name:      "cart_value",
				Help:      "Cart total after each mutation",
				Buckets:   prometheus.ExponentialBuckets(1, 2.5, 10),
			},
		),
		CheckoutStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "maplecart",
				Name:      "checkout_started_total",
				Help:      "Checkout sessions opened",
			},
		),
		CheckoutStageResets: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "maplecart",
				Name:      "checkout_stage_resets_total",
				Help:      "Checkout sessions reset to shipping by a cart mutation",
			},
		),
		CheckoutAbandoned: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "maplecart",
				Name:      "checkout_abandoned_total",
				Help:      "Checkout sessions deleted before commit",
			},
		),
		OrdersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "maplecart",
				Name:      "orders_created_total",
				Help:      "Orders committed",
			},
		),
		OrderValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "maplecart",
				Name:      "order_value",
				Help:      "Order totals",
				Buckets:   prometheus.ExponentialBuckets(1, 2.5, 10),
			},
		),
		OrderItemCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "maplecart",
				Name:      "order_item_count",
				Help:      "Units per order",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
			},
		),
		PaymentFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "maplecart",
				Name:      "payment_failed_total",
				Help:      "Card charges declined or errored at commit",
			},
		),
	}
}
