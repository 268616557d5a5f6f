// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
Package config loads and validates autoskip configuration.

# Configuration Sources

Values are layered with Koanf v2, later layers winning:
  - Built-in defaults (structs provider)
  - Optional YAML file: $CONFIG_PATH, ./config.yaml, /etc/autoskip/config.yaml
  - Environment variables (explicit mapping, unrelated variables ignored)

Durations accept Go syntax ("10s", "1m30s").

# Environment Variables

Plex (PlexConfig):
  - PLEX_URL: server base URL (required), e.g. http://192.168.1.10:32400
  - PLEX_TOKEN: X-Plex-Token (required)
  - PLEX_CLIENT_IDENTIFIER: controller identifier (default: random per start)
  - PLEX_SOURCE: websocket or poll (default: websocket)
  - PLEX_POLL_INTERVAL: /status/sessions poll period (default: 1s)
  - PLEX_REQUEST_TIMEOUT, PLEX_COMMAND_INTERVAL, PLEX_MAX_RETRIES
  - PLEX_PING_INTERVAL, PLEX_READ_TIMEOUT: WebSocket keepalive
  - PLEX_BREAKER: circuit breaker around Plex calls (default: true)

Skip engine (SkipConfig):
  - SKIP_TOLERANCE: position regression still treated as stale (default: 10s)
  - SKIP_STALENESS / SKIP_CAST_STALENESS: rewind grace after a skip (default: 2s / 10s)
  - SKIP_CREDITS: also skip credits markers (default: false)
  - SKIP_TO_NEXT: advance to the next item at the final credits marker (default: false)
  - SKIP_MARKER_TTL, SKIP_PLAYER_TTL, SKIP_PLAYER_REFRESH_INTERVAL
  - SKIP_FETCH_TIMEOUT, SKIP_DISPATCH_TIMEOUT
  - SKIP_LIVENESS_TIMEOUT, SKIP_SWEEP_INTERVAL
  - SKIP_EXTRAPOLATION_INTERVAL (0 disables), SKIP_MAX_EXTRAPOLATION

Diagnostics server (ServerConfig):
  - HTTP_ENABLED, HTTP_HOST, HTTP_PORT (default: 8089), HTTP_TIMEOUT
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - HTTP_CORS_ORIGINS: comma-separated allowed origins (default: none)

Supervisor (SupervisorConfig):
  - SUPERVISOR_FAILURE_THRESHOLD, SUPERVISOR_FAILURE_DECAY
  - SUPERVISOR_FAILURE_BACKOFF, SUPERVISOR_SHUTDOWN_TIMEOUT

Logging (LoggingConfig):
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)
  - LOG_CALLER: include caller file:line (default: false)

# Validation

Field constraints are validator struct tags checked through
internal/validation; Validate adds URL shape, placeholder token and
cross-field timing checks.
*/
package config
