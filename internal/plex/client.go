// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
client.go - Plex Media Server API Client

This file provides the core Client struct used by the skip engine's
collaborators: marker metadata, the advertised player directory, active
sessions and player remote control.

Client Features:
  - HTTP client with configurable timeout (default 30 seconds)
  - X-Plex-Token authentication plus X-Plex client identification headers
  - Automatic rate limit handling with exponential backoff
  - Paced player commands (one command per CommandInterval)
  - JSON response parsing

Related Files:
  - request.go: HTTP request helpers
  - markers.go: intro and credits markers
  - players.go: advertised players (/clients)
  - sessions.go: active sessions (/status/sessions)
  - seek.go: player remote control
  - breaker.go: circuit breaker wrapper
*/

//nolint:staticcheck // File documentation, not package doc
package plex

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Product is sent as X-Plex-Product on every request.
const Product = "autoskip"

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the Plex Media Server URL (e.g., "http://localhost:32400").
	BaseURL string

	// Token is the X-Plex-Token used for every request.
	Token string

	// ClientIdentifier identifies this controller to Plex and to players.
	// A random identifier is generated when empty.
	ClientIdentifier string

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration

	// CommandInterval is the minimum spacing between player commands.
	// Zero disables pacing.
	CommandInterval time.Duration

	// MaxRetries is how many times a rate limited (HTTP 429) request is retried.
	MaxRetries int

	// RetryBaseDelay is the first backoff delay after a 429; it doubles per attempt.
	RetryBaseDelay time.Duration
}

// DefaultClientConfig returns production defaults for the given server.
func DefaultClientConfig(baseURL, token string) ClientConfig {
	return ClientConfig{
		BaseURL:         baseURL,
		Token:           token,
		Timeout:         30 * time.Second,
		CommandInterval: 250 * time.Millisecond,
		MaxRetries:      5,
		RetryBaseDelay:  time.Second,
	}
}

// Client handles communication with the Plex Media Server API.
type Client struct {
	baseURL          string
	token            string
	clientIdentifier string
	httpClient       *http.Client

	maxRetries     int
	retryBaseDelay time.Duration

	commands  *rate.Limiter
	commandID atomic.Int64
}

// NewClient creates an authenticated Plex client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ClientIdentifier == "" {
		cfg.ClientIdentifier = uuid.NewString()
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	limit := rate.Inf
	if cfg.CommandInterval > 0 {
		limit = rate.Every(cfg.CommandInterval)
	}

	return &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		token:            cfg.Token,
		clientIdentifier: cfg.ClientIdentifier,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		commands:       rate.NewLimiter(limit, 1),
	}
}

// ClientIdentifier returns the X-Plex-Client-Identifier this client sends.
func (c *Client) ClientIdentifier() string {
	return c.clientIdentifier
}

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("plex %s: unexpected status: %d %s", e.Endpoint, e.StatusCode, e.Status)
}

// Temporary reports whether retrying the request later may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
