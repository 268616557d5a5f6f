// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/autoskip/internal/skip"
)

// SessionLister snapshots active sessions. Satisfied by *skip.Registry.
type SessionLister interface {
	ListActive() []skip.PlaybackSession
}

// PlayerSource returns the last player listing. Satisfied by
// *skip.PlayerDirectory.
type PlayerSource interface {
	Players() []skip.Player
}

// StreamStatus reports whether notifications are flowing. Satisfied by
// *services.MonitorService.
type StreamStatus interface {
	Connected() bool
}

// BreakerStatus reports the Plex circuit breaker state ("closed",
// "half-open", "open"). Satisfied by *plex.BreakerClient.
type BreakerStatus interface {
	State() string
}

// HandlerDeps are the components the diagnostics endpoints read from.
// Breaker is nil when the circuit breaker is disabled. Events serves the
// live skip feed and may be nil.
type HandlerDeps struct {
	Sessions     SessionLister
	Players      PlayerSource
	Stream       StreamStatus
	StreamSource string
	Breaker      BreakerStatus
	Events       http.Handler
}

// Handler serves the diagnostics endpoints.
type Handler struct {
	deps      HandlerDeps
	startTime time.Time
}

// NewHandler creates a handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{deps: deps, startTime: time.Now()}
}
