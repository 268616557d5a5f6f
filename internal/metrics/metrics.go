// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Notification stream throughput and normalization outcomes
// - Skip decisions and dispatch results
// - Marker cache and player directory efficiency
// - Plex API latency and circuit breaker state
// - Diagnostics HTTP endpoints

var (
	// Notification Stream Metrics
	EventsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autoskip_events_received_total",
			Help: "Total number of raw playback notifications received from the notification source",
		},
	)

	EventsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoskip_events_normalized_total",
			Help: "Total number of notifications by normalization outcome",
		},
		[]string{"outcome"}, // update, coalesced, stopped, dropped
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoskip_events_dropped_total",
			Help: "Total number of dropped notifications by reason",
		},
		[]string{"reason"}, // missing_field, unknown_state, ineligible_player, player_lookup_failed
	)

	StreamDisruptions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autoskip_stream_disruptions_total",
			Help: "Total number of notification stream disconnects surfaced to the supervisor",
		},
	)

	ExtrapolatedUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autoskip_extrapolated_updates_total",
			Help: "Total number of synthetic position updates generated while a session was playing",
		},
	)

	// Session Metrics
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autoskip_active_sessions",
			Help: "Current number of tracked playback sessions",
		},
	)

	SessionWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autoskip_session_workers",
			Help: "Current number of per-session worker goroutines",
		},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autoskip_sessions_expired_total",
			Help: "Total number of sessions removed by the liveness sweep",
		},
	)

	// Skip Decision Metrics
	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoskip_decisions_total",
			Help: "Total number of skip engine decisions by action",
		},
		[]string{"action"},
	)

	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoskip_dispatches_total",
			Help: "Total number of skip command dispatches by result",
		},
		[]string{"kind", "result"}, // result: success, failure, suppressed, discarded
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "autoskip_dispatch_duration_seconds",
			Help:    "Duration of skip command round trips to the player",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoskip_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"}, // markers, players
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoskip_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autoskip_fetch_duration_seconds",
			Help:    "Duration of metadata fetches from the media server",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"}, // markers, players
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoskip_fetch_errors_total",
			Help: "Total number of failed metadata fetches",
		},
		[]string{"op"},
	)

	// Plex API Metrics
	PlexRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autoskip_plex_request_duration_seconds",
			Help:    "Duration of Plex Media Server API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	PlexRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autoskip_plex_rate_limited_total",
			Help: "Total number of HTTP 429 responses from Plex",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Diagnostics API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoskip_api_requests_total",
			Help: "Total number of diagnostics API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autoskip_api_request_duration_seconds",
			Help:    "Diagnostics API request latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordFetch records the outcome of a metadata fetch.
func RecordFetch(op string, duration time.Duration, err error) {
	FetchDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		FetchErrors.WithLabelValues(op).Inc()
	}
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordDispatch records a skip command result and, for completed round trips, its latency.
func RecordDispatch(kind, result string, duration time.Duration) {
	Dispatches.WithLabelValues(kind, result).Inc()
	if duration > 0 {
		DispatchDuration.Observe(duration.Seconds())
	}
}

// RecordPlexRequest records a Plex API request.
func RecordPlexRequest(endpoint, status string, duration time.Duration) {
	PlexRequestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())
}

// RecordAPIRequest records a diagnostics API request. endpoint is the route
// pattern, not the raw path.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
