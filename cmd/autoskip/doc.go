// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

// Package main is the entry point for autoskip.
//
// Autoskip watches a Plex Media Server's playback notifications and seeks
// local players past intro (and optionally credits) markers as soon as
// playback enters them.
//
// # Application Architecture
//
// Components are wired in this order:
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. Plex client: paced, retrying HTTP client, optionally behind a circuit breaker
//  3. Skip engine: marker cache, player directory, session registry,
//     normalizer, dispatcher and monitor
//  4. Supervisor tree: the notification monitor, periodic maintenance and
//     the diagnostics HTTP server, each restarted independently on failure
//
// # Example Usage
//
//	export PLEX_URL=http://192.168.1.10:32400
//	export PLEX_TOKEN=...
//	./autoskip
//
// Polling instead of the notification WebSocket:
//
//	export PLEX_SOURCE=poll
//	export PLEX_POLL_INTERVAL=1s
//	./autoskip
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The notification connection
// is closed, in-flight seeks are abandoned and the diagnostics server drains
// within SUPERVISOR_SHUTDOWN_TIMEOUT.
package main
