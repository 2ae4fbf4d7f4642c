// Package metrics holds the Prometheus collectors for the mission service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and route
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missions_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "route"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "missions_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "route"},
	)

	// StoreOperationDuration measures document load and update time
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "missions_store_operation_duration_seconds",
			Help:    "Document store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "backend"},
	)

	// Events counts domain events by type
	Events = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missions_events_total",
			Help: "Total number of progression events",
		},
		[]string{"type"},
	)

	// TimerWatchers counts open timer event streams
	TimerWatchers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "missions_timer_watchers",
			Help: "Number of open timer event streams",
		},
	)
)

// ObserveStore records the duration of a store operation started at start.
func ObserveStore(operation, backend string, start time.Time) {
	StoreOperationDuration.WithLabelValues(operation, backend).Observe(time.Since(start).Seconds())
}
