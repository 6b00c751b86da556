package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_started_total",
		Help: "Total number of table sessions started",
	})

	SessionsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessions_rejected_total",
		Help: "Total number of rejected session starts",
	}, []string{"reason"})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders submitted by customers",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order submissions",
	}, []string{"reason"})

	OrderItemsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_items_added_total",
		Help: "Total number of items added to existing orders",
	})

	PaymentsInitiatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_initiated_total",
		Help: "Total number of gateway transactions created",
	})

	PaymentsSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_settled_total",
		Help: "Total number of payments settled by the gateway",
	})

	PaymentsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_expired_total",
		Help: "Total number of pending payments expired by the sweeper",
	})

	PaymentNotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_notifications_total",
		Help: "Gateway notifications received, by transaction status",
	}, []string{"status"})

	PaymentNotificationsDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_notifications_duplicate_total",
		Help: "Gateway notifications ignored because they were already processed",
	})

	GatewayLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_gateway_latency_seconds",
		Help:    "Latency of payment gateway transaction creation",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
