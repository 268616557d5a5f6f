// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
Package api serves the read-only diagnostics HTTP interface.

# Endpoints

	GET /healthz              liveness, always 200 while the process runs
	GET /readyz               200 when the notification stream is connected
	                          and the Plex circuit breaker is not open, else 503
	GET /api/v1/sessions      active playback sessions (?limit=&state=&player=)
	GET /api/v1/players       players from the last /clients listing (?eligible=true)
	GET /api/v1/events        WebSocket feed of skips as they land (internal/websocket)
	GET /metrics              Prometheus exposition

Responses use the models.APIResponse envelope. Query parameters are checked
with internal/validation; violations return 400 with VALIDATION_ERROR.

# Middleware

The chi stack is RequestID, RealIP, Recoverer and CORS globally, then httprate
limiting (by IP) on the /api/v1 group and Prometheus instrumentation on its
JSON endpoints. The
health probes skip the limiter so an orchestrator cannot be throttled.
*/
package api
