// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package plex

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/autoskip/internal/logging"
	"github.com/tomtom215/autoskip/internal/models"
	"github.com/tomtom215/autoskip/internal/skip"
)

// SessionLister lists the server's active sessions.
type SessionLister interface {
	Sessions(ctx context.Context) ([]models.PlexSession, error)
}

// PollerConfig configures a PollingSource.
type PollerConfig struct {
	// Interval is how often to poll Plex for sessions.
	Interval time.Duration

	// MaxFailures is how many consecutive failed polls end the stream.
	MaxFailures int
}

// DefaultPollerConfig returns default poller configuration
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:    time.Second,
		MaxFailures: 5,
	}
}

// PollingSource is an event source backed by GET /status/sessions, for
// servers or networks where the notification WebSocket is unavailable.
//
// Each poll yields one event per active video session. Sessions that
// disappear between polls yield a synthetic "stopped" event so they leave
// the registry without waiting for the liveness sweep. Music sessions are
// ignored.
//
// A PollingSource is consumed by a single Monitor and is not safe for
// concurrent use.
type PollingSource struct {
	lister SessionLister
	config PollerConfig
	logger zerolog.Logger
	now    func() time.Time

	pending  []skip.RawEvent
	known    map[string]skip.RawEvent
	timer    *time.Timer
	polled   bool
	failures int
}

// NewPollingSource creates a polling event source.
func NewPollingSource(lister SessionLister, config PollerConfig) *PollingSource {
	def := DefaultPollerConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = def.MaxFailures
	}
	return &PollingSource{
		lister: lister,
		config: config,
		logger: logging.WithComponent("plex-poller"),
		now:    time.Now,
		known:  make(map[string]skip.RawEvent),
	}
}

// Next returns the next event, polling as needed. The first poll happens
// immediately; later polls wait for the interval.
func (p *PollingSource) Next(ctx context.Context) (skip.RawEvent, error) {
	for len(p.pending) == 0 {
		if p.polled {
			if err := p.wait(ctx); err != nil {
				return skip.RawEvent{}, err
			}
		}
		p.polled = true

		if err := p.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return skip.RawEvent{}, ctx.Err()
			}
			p.failures++
			p.logger.Warn().Err(err).Int("failures", p.failures).Int("max_failures", p.config.MaxFailures).Msg("Session poll failed")
			if p.failures >= p.config.MaxFailures {
				return skip.RawEvent{}, fmt.Errorf("%w: %d consecutive poll failures: %w", skip.ErrStreamDisrupted, p.failures, err)
			}
			continue
		}
		p.failures = 0
	}

	ev := p.pending[0]
	p.pending[0] = skip.RawEvent{}
	p.pending = p.pending[1:]
	return ev, nil
}

func (p *PollingSource) wait(ctx context.Context) error {
	if p.timer == nil {
		p.timer = time.NewTimer(p.config.Interval)
	} else {
		p.timer.Reset(p.config.Interval)
	}
	select {
	case <-ctx.Done():
		p.timer.Stop()
		return ctx.Err()
	case <-p.timer.C:
		return nil
	}
}

// poll fetches active sessions and queues their events.
func (p *PollingSource) poll(ctx context.Context) error {
	sessions, err := p.lister.Sessions(ctx)
	if err != nil {
		return err
	}

	now := p.now()
	seen := make(map[string]skip.RawEvent, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		if s.IsMusic() || s.Player == nil || s.SessionKey == "" {
			continue
		}
		ev := skip.RawEvent{
			SessionID:  s.SessionKey,
			ItemID:     s.RatingKey,
			PlayerID:   s.Player.MachineIdentifier,
			Position:   millis(s.ViewOffset),
			State:      s.PlayerState(),
			ReceivedAt: now,
		}
		seen[ev.SessionID] = ev
		p.pending = append(p.pending, ev)
	}

	for id, last := range p.known {
		if _, ok := seen[id]; ok {
			continue
		}
		last.State = string(skip.StateStopped)
		last.ReceivedAt = now
		p.pending = append(p.pending, last)
	}
	p.known = seen
	return nil
}
