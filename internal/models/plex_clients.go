// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package models

import "strings"

// PlexClientsResponse represents the response from GET /clients, the players
// that advertised themselves to the server for remote control.
type PlexClientsResponse struct {
	MediaContainer PlexClientsContainer `json:"MediaContainer"`
}

// PlexClientsContainer wraps the advertised players
type PlexClientsContainer struct {
	Size   int          `json:"size"`
	Server []PlexClient `json:"Server"`
}

// PlexClient is one advertised player
type PlexClient struct {
	Name                 string    `json:"name"`
	Host                 string    `json:"host"`
	Address              string    `json:"address"`
	Port                 FlexInt64 `json:"port"`
	MachineIdentifier    string    `json:"machineIdentifier"`
	Version              string    `json:"version"`
	Protocol             string    `json:"protocol"`
	Product              string    `json:"product"`
	Platform             string    `json:"platform,omitempty"`
	DeviceClass          string    `json:"deviceClass"`
	ProtocolVersion      string    `json:"protocolVersion"`
	ProtocolCapabilities string    `json:"protocolCapabilities"` // comma separated: "timeline,playback,navigation"
	Local                FlexBool  `json:"local,omitempty"`
}

// Capabilities splits ProtocolCapabilities into its entries.
func (c *PlexClient) Capabilities() []string {
	if c.ProtocolCapabilities == "" {
		return nil
	}
	parts := strings.Split(c.ProtocolCapabilities, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsCast reports whether the client is a Chromecast-class receiver.
func (c *PlexClient) IsCast() bool {
	for _, s := range []string{c.Product, c.Platform, c.DeviceClass} {
		s = strings.ToLower(s)
		if strings.Contains(s, "chromecast") || strings.Contains(s, "cast") {
			return true
		}
	}
	return false
}
