package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentStartsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_starts_total",
		Help: "Total number of payment start attempts by result",
	}, []string{"result"})

	PaymentReturnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_returns_total",
		Help: "Total number of customer returns from the gateway by outcome",
	}, []string{"outcome"})

	OrdersCancelledByTerminalTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_by_terminal_total",
		Help: "Total number of orders cancelled because the in-store terminal payment ended",
	})

	CheckoutEventsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_events_recorded_total",
		Help: "Total number of checkout events written to the audit log",
	}, []string{"event_type"})

	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Latency of payment gateway API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

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
