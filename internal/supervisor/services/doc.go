// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
Package services adapts autoskip components to suture.Service.

  - MonitorService opens a notification source (WebSocket or poller) and runs
    the skip monitor on it. The source is closed when Serve returns; a
    disrupted stream returns an error so the supervisor reconnects with
    backoff.
  - PeriodicService runs a maintenance task on a ticker (marker cache
    cleanup, player directory refresh).
  - HTTPServerService runs the diagnostics server with graceful shutdown.

Every service implements fmt.Stringer; suture uses the name in its log events.
*/
package services
