// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
Package websocket pushes live skip events to diagnostics subscribers.

A Hub implements skip.SkipListener: every skip the dispatcher lands is queued
as a "skip" message and fanned out to connected clients. The hub runs as a
suture service in the API layer of the supervisor tree; on shutdown every
subscriber receives a close frame.

# Protocol

Clients connect to GET /api/v1/events and receive JSON frames:

	{"type":"skip","data":{"session_id":"42","item_id":"5501","player_id":"abc",
	  "player_kind":"standard","kind":"intro","from_seconds":31.5,
	  "to_seconds":92,"at":"2026-03-01T20:01:12Z"}}

A client may send {"type":"ping"} and gets {"type":"pong"} back. WebSocket
control pings keep idle connections alive.

# Backpressure

Broadcasts never block the dispatcher. The hub queue drops messages when
full and a subscriber that cannot keep up with its own queue is
disconnected.
*/
package websocket
