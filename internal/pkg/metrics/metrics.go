// Package metrics declares the Prometheus collectors of the store service.
// They register on the default registry at init and are served by
// promhttp.Handler on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)

	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_orders_created_total",
			Help: "Orders created by checkout",
		},
	)

	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_order_transitions_total",
			Help: "Committed order status transitions",
		},
		[]string{"from", "to"},
	)

	Payments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_payments_total",
			Help: "Wallet payment attempts by result",
		},
		[]string{"result"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_notifications_failed_total",
			Help: "Notifications that could not be delivered",
		},
		[]string{"kind"},
	)
)

// Payment results.
const (
	PaymentSuccess             = "success"
	PaymentInsufficientBalance = "insufficient_balance"
	PaymentRejected            = "rejected"
	PaymentError               = "error"
)
