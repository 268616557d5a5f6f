// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package models

// PlexSessionsResponse represents the top-level response from /status/sessions
type PlexSessionsResponse struct {
	MediaContainer PlexSessionsContainer `json:"MediaContainer"`
}

// PlexSessionsContainer wraps the active sessions array
type PlexSessionsContainer struct {
	Size     int           `json:"size"`
	Metadata []PlexSession `json:"Metadata"`
}

// PlexSession represents a single active playback session
type PlexSession struct {
	SessionKey string `json:"sessionKey"` // Matches WebSocket notifications
	Key        string `json:"key"`
	RatingKey  string `json:"ratingKey"`
	Type       string `json:"type"` // "movie", "episode", "track"
	Title      string `json:"title"`

	GrandparentTitle string `json:"grandparentTitle,omitempty"`

	Player  *PlexSessionPlayer  `json:"Player,omitempty"`
	Session *PlexSessionDetails `json:"Session,omitempty"`

	ViewOffset FlexInt64 `json:"viewOffset"` // milliseconds
	Duration   FlexInt64 `json:"duration"`   // milliseconds
}

// PlexSessionDetails carries the session id and bandwidth location
type PlexSessionDetails struct {
	ID       string `json:"id"`
	Location string `json:"location"` // "lan" or "wan"
}

// PlexSessionPlayer describes the device playing a session
type PlexSessionPlayer struct {
	Address           string   `json:"address"`
	Device            string   `json:"device"`
	MachineIdentifier string   `json:"machineIdentifier"`
	Platform          string   `json:"platform"`
	Product           string   `json:"product"`
	State             string   `json:"state"` // "playing", "paused", "buffering"
	Title             string   `json:"title"`
	Local             FlexBool `json:"local"`
}

// IsMusic reports whether the session plays a track; tracks carry no markers.
func (s *PlexSession) IsMusic() bool {
	return s.Type == "track"
}

// PlayerState returns the session's player state, or "" without a player.
func (s *PlexSession) PlayerState() string {
	if s.Player == nil {
		return ""
	}
	return s.Player.State
}
