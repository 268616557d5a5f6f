// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
request.go - Plex HTTP Request Helpers

Request Configuration:
  - Authentication: X-Plex-Token header on all requests
  - Identification: X-Plex-Product and X-Plex-Client-Identifier
  - JSON Accept: Optional Accept: application/json header
  - Status Validation: *StatusError for anything but 200 (or 204 when allowed)
  - Rate Limiting: Automatic retry with exponential backoff on HTTP 429

Every request is observed in autoskip_plex_request_duration_seconds, labeled
by endpoint name rather than path so item keys do not explode cardinality.
*/

//nolint:staticcheck // File documentation, not package doc
package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/autoskip/internal/logging"
	"github.com/tomtom215/autoskip/internal/metrics"
)

// requestConfig holds configuration for building HTTP requests
type requestConfig struct {
	endpoint    string // metrics label
	method      string
	path        string
	query       url.Values
	header      http.Header
	acceptJSON  bool
	expectNoErr bool // if true, also accept 204 No Content
}

// doRequest executes a Plex API request and decodes the response into result
// when result is non-nil.
func (c *Client) doRequest(ctx context.Context, cfg requestConfig, result interface{}) error {
	reqURL := c.baseURL + cfg.path

	req, err := http.NewRequestWithContext(ctx, cfg.method, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Product", Product)
	req.Header.Set("X-Plex-Client-Identifier", c.clientIdentifier)
	for k, v := range cfg.header {
		req.Header[k] = v
	}
	if cfg.acceptJSON {
		req.Header.Set("Accept", "application/json")
	}
	if len(cfg.query) > 0 {
		req.URL.RawQuery = cfg.query.Encode()
	}

	start := time.Now()
	resp, err := c.doRequestWithRateLimit(req)
	if err != nil {
		metrics.RecordPlexRequest(cfg.endpoint, "error", time.Since(start))
		return err
	}
	defer resp.Body.Close()
	metrics.RecordPlexRequest(cfg.endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	ok := resp.StatusCode == http.StatusOK ||
		(cfg.expectNoErr && resp.StatusCode == http.StatusNoContent)
	if !ok {
		return &StatusError{Endpoint: cfg.endpoint, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode %s response: %w", cfg.endpoint, err)
		}
	}
	return nil
}

// doJSONRequest is a convenience wrapper for GET requests returning JSON
func (c *Client) doJSONRequest(ctx context.Context, endpoint, path string, query url.Values, result interface{}) error {
	return c.doRequest(ctx, requestConfig{
		endpoint:   endpoint,
		method:     http.MethodGet,
		path:       path,
		query:      query,
		acceptJSON: true,
	}, result)
}

// doRequestWithRateLimit executes req, retrying HTTP 429 responses with
// exponential backoff (base, 2x, 4x, ...). A Retry-After header in seconds
// overrides the computed delay.
func (c *Client) doRequestWithRateLimit(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()
		metrics.PlexRateLimited.Inc()

		if attempt >= c.maxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries", c.maxRetries)
		}

		retryDelay := c.retryBaseDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				retryDelay = time.Duration(seconds) * time.Second
			}
		}

		logging.Warn().Dur("retry_delay", retryDelay).Int("attempt", attempt+1).Int("max_retries", c.maxRetries).Msg("Plex API rate limited (HTTP 429), retrying")

		timer := time.NewTimer(retryDelay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
}
