// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Seek tells a player to jump to position in the video it is playing.
//
// Endpoint: GET /player/playback/seekTo?offset={ms}&type=video&commandID={n}
//
// The server proxies the command to the player named by the
// X-Plex-Target-Client-Identifier header. Commands are paced by the client's
// command limiter, and commandID increases monotonically so players can
// discard reordered commands.
func (c *Client) Seek(ctx context.Context, playerID string, position time.Duration) error {
	if playerID == "" {
		return errors.New("seek: empty player identifier")
	}
	if position < 0 {
		return fmt.Errorf("seek: negative position %v", position)
	}
	if err := c.commands.Wait(ctx); err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	query := url.Values{}
	query.Set("offset", strconv.FormatInt(position.Milliseconds(), 10))
	query.Set("type", "video")
	query.Set("commandID", strconv.FormatInt(c.commandID.Add(1), 10))

	return c.doRequest(ctx, requestConfig{
		endpoint:    "seek",
		method:      http.MethodGet,
		path:        "/player/playback/seekTo",
		query:       query,
		header:      http.Header{"X-Plex-Target-Client-Identifier": []string{playerID}},
		expectNoErr: true,
	}, nil)
}

// SkipNext tells a player to advance to the next item in its play queue.
//
// Endpoint: GET /player/playback/skipNext?type=video&commandID={n}
func (c *Client) SkipNext(ctx context.Context, playerID string) error {
	if playerID == "" {
		return errors.New("skip next: empty player identifier")
	}
	if err := c.commands.Wait(ctx); err != nil {
		return fmt.Errorf("skip next: %w", err)
	}

	query := url.Values{}
	query.Set("type", "video")
	query.Set("commandID", strconv.FormatInt(c.commandID.Add(1), 10))

	return c.doRequest(ctx, requestConfig{
		endpoint:    "skip_next",
		method:      http.MethodGet,
		path:        "/player/playback/skipNext",
		query:       query,
		header:      http.Header{"X-Plex-Target-Client-Identifier": []string{playerID}},
		expectNoErr: true,
	}, nil)
}
