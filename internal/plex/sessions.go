// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package plex

import (
	"context"

	"github.com/tomtom215/autoskip/internal/models"
)

// Sessions returns the server's active playback sessions.
//
// Endpoint: GET /status/sessions
func (c *Client) Sessions(ctx context.Context) ([]models.PlexSession, error) {
	var resp models.PlexSessionsResponse
	if err := c.doJSONRequest(ctx, "sessions", "/status/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Metadata, nil
}
