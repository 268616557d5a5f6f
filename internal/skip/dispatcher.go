// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package skip

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/autoskip/internal/logging"
	"github.com/tomtom215/autoskip/internal/metrics"
)

// PlayerController sends playback commands to a player.
type PlayerController interface {
	Seek(ctx context.Context, playerID string, position time.Duration) error
	SkipNext(ctx context.Context, playerID string) error
}

// Dispatcher issues seek commands and records successful skips. At most one
// dispatch per session is in flight; a second request is rejected with
// ErrDispatchInFlight rather than queued.
type Dispatcher struct {
	controller PlayerController
	registry   *Registry
	timeout    time.Duration
	inFlight   sync.Map // session ID -> struct{}
	logger     zerolog.Logger
	listener   SkipListener
}

// SkipListener is told about every skip that landed. Implementations must
// not block.
type SkipListener interface {
	SkipDispatched(from PlaybackSession, m IntroMarker)
}

// SetListener registers l for successful skips. Call before the first
// dispatch.
func (d *Dispatcher) SetListener(l SkipListener) {
	d.listener = l
}

// NewDispatcher creates a dispatcher. timeout bounds each seek; zero means
// the caller's context alone bounds it.
func NewDispatcher(controller PlayerController, registry *Registry, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		controller: controller,
		registry:   registry,
		timeout:    timeout,
		logger:     logging.WithComponent("dispatcher"),
	}
}

// DispatchSkip seeks the session's player to the end of window m and marks
// the window skipped. For an ending window the player is sent to the next
// item instead. On failure the window stays armed and a *DispatchError
// is returned. If the session was removed while the command was outstanding
// the result is discarded and ErrSessionNotFound returned.
func (d *Dispatcher) DispatchSkip(ctx context.Context, s PlaybackSession, m IntroMarker) (PlaybackSession, error) {
	kind := s.PlayerKind.String()
	if _, loaded := d.inFlight.LoadOrStore(s.SessionID, struct{}{}); loaded {
		metrics.RecordDispatch(kind, "suppressed", 0)
		d.logger.Debug().Str("session", s.SessionID).Stringer("window", m).Msg("Skip suppressed, dispatch in flight")
		return PlaybackSession{}, ErrDispatchInFlight
	}
	defer d.inFlight.Delete(s.SessionID)

	seekCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		seekCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	var err error
	if m.Kind == MarkerEnding {
		err = d.controller.SkipNext(seekCtx, s.PlayerID)
	} else {
		err = d.controller.Seek(seekCtx, s.PlayerID, m.End)
	}
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordDispatch(kind, "failure", elapsed)
		derr := &DispatchError{SessionID: s.SessionID, PlayerID: s.PlayerID, Marker: m, Err: err}
		d.logger.Warn().Err(err).
			Str("session", s.SessionID).
			Str("player", s.PlayerID).
			Stringer("window", m).
			Dur("position", s.Position).
			Msg("Skip command failed, will retry on next update inside the window")
		return PlaybackSession{}, derr
	}

	next, err := d.registry.MarkSkipped(s.SessionID, s.Generation, m, true)
	if err != nil {
		metrics.RecordDispatch(kind, "discarded", elapsed)
		if errors.Is(err, ErrSessionNotFound) {
			d.logger.Info().Str("session", s.SessionID).Msg("Session ended during skip, result discarded")
		}
		return PlaybackSession{}, err
	}

	metrics.RecordDispatch(kind, "success", elapsed)
	msg := "Skipped interruption window"
	if m.Kind == MarkerEnding {
		msg = "Skipped to next item"
	}
	d.logger.Info().
		Str("session", s.SessionID).
		Str("item", s.ItemID).
		Str("player", s.PlayerID).
		Str("kind", kind).
		Stringer("window", m).
		Dur("from", s.Position).
		Dur("to", m.End).
		Dur("latency", elapsed).
		Msg(msg)
	if d.listener != nil {
		d.listener.SkipDispatched(s, m)
	}
	return next, nil
}

// InFlight reports whether a dispatch for the session is outstanding.
func (d *Dispatcher) InFlight(sessionID string) bool {
	_, ok := d.inFlight.Load(sessionID)
	return ok
}
