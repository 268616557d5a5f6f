// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package models

// PlexMetadataResponse represents the response from
// GET /library/metadata/{ratingKey}?includeMarkers=1
type PlexMetadataResponse struct {
	MediaContainer PlexMetadataContainer `json:"MediaContainer"`
}

// PlexMetadataContainer wraps the metadata items
type PlexMetadataContainer struct {
	Size     int                `json:"size"`
	Metadata []PlexMetadataItem `json:"Metadata"`
}

// PlexMetadataItem is one library item with its markers
type PlexMetadataItem struct {
	RatingKey        string       `json:"ratingKey"`
	Type             string       `json:"type"`
	Title            string       `json:"title"`
	GrandparentTitle string       `json:"grandparentTitle,omitempty"`
	Duration         FlexInt64    `json:"duration"`
	Marker           []PlexMarker `json:"Marker,omitempty"`
}

// Marker types produced by Plex intro and credits detection.
const (
	MarkerTypeIntro   = "intro"
	MarkerTypeCredits = "credits"
)

// PlexMarker is an interruption window detected by the server
type PlexMarker struct {
	ID              FlexInt64 `json:"id"`
	Type            string    `json:"type"`            // "intro" or "credits"
	StartTimeOffset FlexInt64 `json:"startTimeOffset"` // milliseconds
	EndTimeOffset   FlexInt64 `json:"endTimeOffset"`   // milliseconds
	Final           FlexBool  `json:"final,omitempty"` // last credits marker, runs to the end
}

// Valid reports whether the marker describes a non-empty window.
func (m *PlexMarker) Valid() bool {
	return m.StartTimeOffset >= 0 && m.EndTimeOffset > m.StartTimeOffset
}
