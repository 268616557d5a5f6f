// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry via promauto and are
exposed by the diagnostics server at /metrics:

	curl http://localhost:9753/metrics

# Available Metrics

Notification Stream:
  - autoskip_events_received_total: Raw notifications read from the source
  - autoskip_events_normalized_total: Outcomes (update, coalesced, stopped, dropped)
  - autoskip_events_dropped_total: Dropped notifications by reason
  - autoskip_stream_disruptions_total: Stream disconnects handed to the supervisor
  - autoskip_extrapolated_updates_total: Synthetic position updates

Sessions and Decisions:
  - autoskip_active_sessions: Tracked sessions (gauge)
  - autoskip_session_workers: Per-session workers (gauge)
  - autoskip_sessions_expired_total: Liveness sweep removals
  - autoskip_decisions_total: Engine decisions by action
  - autoskip_dispatches_total: Skip commands by player kind and result
  - autoskip_dispatch_duration_seconds: Skip command latency

Caches and Plex:
  - autoskip_cache_hits_total / autoskip_cache_misses_total: Labels: cache (markers, players)
  - autoskip_fetch_duration_seconds / autoskip_fetch_errors_total: Labels: op
  - autoskip_plex_request_duration_seconds: Labels: endpoint, status
  - autoskip_plex_rate_limited_total

Circuit Breaker:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Labels: name, result
  - circuit_breaker_consecutive_failures
  - circuit_breaker_state_transitions_total
*/
package metrics
