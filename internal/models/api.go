// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package models

import "time"

// APIResponse is the envelope for every diagnostics API response.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response bookkeeping.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Count     *int      `json:"count,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthStatus is returned by GET /readyz.
type HealthStatus struct {
	Status          string  `json:"status"`
	StreamSource    string  `json:"stream_source"`
	StreamConnected bool    `json:"stream_connected"`
	BreakerState    string  `json:"breaker_state,omitempty"`
	ActiveSessions  int     `json:"active_sessions"`
	Uptime          float64 `json:"uptime_seconds"`
}

// SkippedWindow is one interruption window a session has passed.
type SkippedWindow struct {
	Kind      string     `json:"kind"`
	Start     float64    `json:"start_seconds"`
	End       float64    `json:"end_seconds"`
	SkippedAt *time.Time `json:"skipped_at,omitempty"`
}

// SessionView is the API representation of an active playback session.
type SessionView struct {
	SessionID  string          `json:"session_id"`
	ItemID     string          `json:"item_id"`
	PlayerID   string          `json:"player_id"`
	PlayerKind string          `json:"player_kind"`
	Position   float64         `json:"position_seconds"`
	State      string          `json:"state"`
	FirstSeen  time.Time       `json:"first_seen"`
	LastSeen   time.Time       `json:"last_seen"`
	Dispatched int             `json:"skips_dispatched"`
	Skipped    []SkippedWindow `json:"skipped_windows"`
}

// PlayerView is the API representation of an advertised player.
type PlayerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Product  string `json:"product"`
	Address  string `json:"address,omitempty"`
	Kind     string `json:"kind"`
	IsLocal  bool   `json:"local"`
	Eligible bool   `json:"eligible"`
}

// SkipEvent is pushed to /api/v1/events subscribers after each successful skip.
type SkipEvent struct {
	SessionID  string    `json:"session_id"`
	ItemID     string    `json:"item_id"`
	PlayerID   string    `json:"player_id"`
	PlayerKind string    `json:"player_kind"`
	Kind       string    `json:"kind"`
	From       float64   `json:"from_seconds"`
	To         float64   `json:"to_seconds"`
	At         time.Time `json:"at"`
}
