// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
Package skip implements the session monitoring and skip decision engine.

It sits between a notification source (Plex WebSocket or session poller) and a
player control client, and issues at most one seek per interruption window per
playback session.

# Components

	RawEvent ──► Normalizer ──► Registry.Upsert ──► Engine ──► Dispatcher ──► Registry.MarkSkipped
	                 │                                 │
	          PlayerDirectory                     MarkerCache

  - Registry: authoritative in-memory session state with per-key locking.
  - MarkerCache: item key -> interruption windows, TTL-bounded, one in-flight fetch per item.
  - PlayerDirectory: advertised players, refreshed on demand and rate limited.
  - Normalizer: drops ineligible or malformed notifications, coalesces duplicates,
    classifies position regressions as stale (within tolerance) or seeks.
  - Engine: the per-update state machine deciding wait, pass-through or skip.
  - Dispatcher: sends the seek (or skip-next for an ending window), suppresses
    concurrent dispatches for one session, records success in the registry.
  - Monitor: pulls events from the source, serializes them per session on
    worker goroutines, extrapolates positions and expires idle sessions.

# Extrapolation

Between notifications a PLAYING session waiting for a window has its position
advanced from the last reported offset, never past MaxExtrapolation beyond
that report. Synthetic updates only move the stored position forward and never
recreate a session that was removed or expired.

# Staleness

Cast-class receivers keep reporting the pre-seek position for up to ~10 seconds
after a skip. Skipped windows are therefore tracked per window rather than by
comparing positions, and a rewind only re-arms a window once the player's
staleness grace has elapsed since the window was marked.

# Failure Handling

Marker and player fetch failures defer the decision until the next event.
Dispatch failures leave the window armed so the next qualifying update retries.
A failing session never stops the monitor; only a broken notification stream
ends Monitor.Run, with ErrStreamDisrupted, for the supervisor to restart.
*/
package skip
