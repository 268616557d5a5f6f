// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package models

import "strings"

// Plex WebSocket Notification Models
// Endpoint: ws://{plex_url}/:/websockets/notifications
// Documentation: https://forums.plex.tv/t/about-websocket-notifications/79679

// Notification types carried in PlexNotificationContainer.Type.
const (
	NotificationPlaying      = "playing"
	NotificationTimeline     = "timeline"
	NotificationActivity     = "activity"
	NotificationStatus       = "status"
	NotificationReachability = "reachability"
)

// PlexNotificationWrapper wraps the top-level notification container
type PlexNotificationWrapper struct {
	NotificationContainer PlexNotificationContainer `json:"NotificationContainer"`
}

// PlexNotificationContainer wraps all notification types from Plex WebSocket.
// Only playback notifications are decoded; other types are recognized by Type
// and skipped.
type PlexNotificationContainer struct {
	Type                         string                    `json:"type"`
	Size                         int                       `json:"size,omitempty"`
	PlaySessionStateNotification []PlexPlayingNotification `json:"PlaySessionStateNotification,omitempty"`
}

// PlexPlayingNotification represents a real-time playback state change.
// Plex sends one roughly every 10 seconds per playing session and immediately
// on state changes and seeks.
type PlexPlayingNotification struct {
	SessionKey       string    `json:"sessionKey"`       // Session identifier (matches /status/sessions)
	ClientIdentifier string    `json:"clientIdentifier"` // Player machine identifier
	State            string    `json:"state"`            // "playing", "paused", "stopped", "buffering"
	RatingKey        string    `json:"ratingKey"`        // Plex content identifier
	ViewOffset       FlexInt64 `json:"viewOffset"`       // Playback position (milliseconds)

	Key              string `json:"key,omitempty"`
	Guid             string `json:"guid,omitempty"`
	URL              string `json:"url,omitempty"`
	TranscodeSession string `json:"transcodeSession,omitempty"`
}

// GetPlaybackState returns the normalized playback state
func (n *PlexPlayingNotification) GetPlaybackState() string {
	return strings.ToLower(strings.TrimSpace(n.State))
}

// IsStopped reports whether the notification ends the session
func (n *PlexPlayingNotification) IsStopped() bool {
	return n.GetPlaybackState() == "stopped"
}

// IsBuffering returns true if playback is currently buffering
func (n *PlexPlayingNotification) IsBuffering() bool {
	return n.GetPlaybackState() == "buffering"
}
