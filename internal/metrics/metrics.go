// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

// Package metrics provides Prometheus instrumentation for the gateway,
// the offline fallback path, the scanner loop and the audit queue.
// Metrics are exposed at /metrics in Prometheus text format.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Remote gateway metrics
	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of remote gateway requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	GatewayErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_errors_total",
			Help: "Total number of failed remote gateway requests",
		},
		[]string{"operation", "table"},
	)

	// Circuit breaker metrics
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	BreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_breaker_requests_total",
			Help: "Circuit breaker request outcomes",
		},
		[]string{"name", "outcome"}, // "success", "failure", "rejected"
	)

	// Offline fallback metrics
	CacheFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_fallbacks_total",
			Help: "Reads served from the local cache because the remote gateway failed",
		},
		[]string{"collection"},
	)

	CacheMirrorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_mirror_failures_total",
			Help: "Best-effort cache mirror writes that failed and were swallowed",
		},
		[]string{"collection"},
	)

	// DuplicateRows counts id/code lookups that matched more than one row.
	// The condition is tolerated (most recent row wins) but observable.
	DuplicateRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_duplicate_rows_total",
			Help: "Lookups that matched more than one row for a unique key",
		},
		[]string{"table", "column"},
	)

	// Scanner metrics
	ScannerFramesSampled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scanner_frames_sampled_total",
			Help: "Video frames sampled by the QR resolution loop",
		},
	)

	ScannerDecodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_decodes_total",
			Help: "Decode attempts that found a code, by resolution outcome",
		},
		[]string{"outcome"}, // "resolved", "not_found", "error"
	)

	// Audit queue metrics
	AuditEventsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_written_total",
			Help: "Audit entries persisted by the writer worker",
		},
	)

	AuditEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_dropped_total",
			Help: "Audit entries dropped because the write queue was full or closed",
		},
	)

	// HTTP API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// ObserveGatewayRequest records the duration and outcome of one remote call.
func ObserveGatewayRequest(operation, table string, start time.Time, err error) {
	GatewayRequestDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	if err != nil {
		GatewayErrors.WithLabelValues(operation, table).Inc()
	}
}

// ObserveAPIRequest records one HTTP request handled by the API.
func ObserveAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
