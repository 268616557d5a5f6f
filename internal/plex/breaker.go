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
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/autoskip/internal/logging"
	"github.com/tomtom215/autoskip/internal/metrics"
	"github.com/tomtom215/autoskip/internal/models"
	"github.com/tomtom215/autoskip/internal/skip"
)

// BreakerName labels the Plex circuit breaker in metrics and logs.
const BreakerName = "plex-api"

// BreakerClient wraps Client with the circuit breaker pattern so an
// unreachable server fails fast instead of stalling every session worker.
//
// An open circuit surfaces as gobreaker.ErrOpenState; the skip engine treats
// it like any other fetch or dispatch failure.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient creates a circuit breaker around client.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
// - Client errors (4xx other than 429) and caller cancellation do not count as failures
func NewBreakerClient(client *Client) *BreakerClient {
	name := BreakerName

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: isSuccessful,

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &BreakerClient{
		client: client,
		cb:     cb,
		name:   name,
	}
}

// isSuccessful decides which errors count against the server's health.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 400 && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// execute wraps a Plex API call with circuit breaker protection
func (b *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)

	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Err(err).Str("breaker", b.name).Msg("[CIRCUIT BREAKER] Request rejected")
		case isSuccessful(err):
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		default:
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
			counts := b.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// castResult safely type-casts the circuit breaker result
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// State returns the current breaker state ("closed", "half-open", "open").
func (b *BreakerClient) State() string {
	return stateToString(b.cb.State())
}

// FetchMarkers retrieves item markers with circuit breaker protection
func (b *BreakerClient) FetchMarkers(ctx context.Context, itemID string) ([]skip.IntroMarker, error) {
	return castResult[[]skip.IntroMarker](b.execute(func() (interface{}, error) {
		return b.client.FetchMarkers(ctx, itemID)
	}))
}

// ListPlayers retrieves advertised players with circuit breaker protection
func (b *BreakerClient) ListPlayers(ctx context.Context) ([]skip.Player, error) {
	return castResult[[]skip.Player](b.execute(func() (interface{}, error) {
		return b.client.ListPlayers(ctx)
	}))
}

// Sessions retrieves active sessions with circuit breaker protection
func (b *BreakerClient) Sessions(ctx context.Context) ([]models.PlexSession, error) {
	return castResult[[]models.PlexSession](b.execute(func() (interface{}, error) {
		return b.client.Sessions(ctx)
	}))
}

// Seek sends a seek command with circuit breaker protection
func (b *BreakerClient) Seek(ctx context.Context, playerID string, position time.Duration) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.client.Seek(ctx, playerID, position)
	})
	return err
}

// SkipNext sends a skip-to-next command with circuit breaker protection
func (b *BreakerClient) SkipNext(ctx context.Context, playerID string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.client.SkipNext(ctx, playerID)
	})
	return err
}
