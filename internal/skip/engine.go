// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package skip

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/autoskip/internal/logging"
	"github.com/tomtom215/autoskip/internal/metrics"
)

// Action is the outcome of evaluating one update.
type Action string

// Engine actions.
const (
	ActionNone           Action = "none"
	ActionNoMarkers      Action = "no_markers"
	ActionDeferred       Action = "deferred"
	ActionWaiting        Action = "waiting"
	ActionNotPlaying     Action = "not_playing"
	ActionSkipped        Action = "skipped"
	ActionPassed         Action = "passed"
	ActionSuppressed     Action = "suppressed"
	ActionDispatchFailed Action = "dispatch_failed"
)

// Decision describes what the engine did for an update.
type Decision struct {
	Action  Action
	Session PlaybackSession
	// Marker is the window the action refers to, when there is one.
	Marker *IntroMarker
	// Passed lists windows marked without a command during this evaluation.
	Passed  []IntroMarker
	Created bool
	Err     error
}

// MarkerSource returns the ordered windows for an item.
type MarkerSource interface {
	Markers(ctx context.Context, itemID string) ([]IntroMarker, error)
}

// SkipDispatcher issues a skip for a session window.
type SkipDispatcher interface {
	DispatchSkip(ctx context.Context, s PlaybackSession, m IntroMarker) (PlaybackSession, error)
}

// Engine is the skip decision state machine.
type Engine struct {
	registry   *Registry
	markers    MarkerSource
	dispatcher SkipDispatcher
	logger     zerolog.Logger
}

// NewEngine wires the engine to its collaborators.
func NewEngine(registry *Registry, markers MarkerSource, dispatcher SkipDispatcher) *Engine {
	return &Engine{
		registry:   registry,
		markers:    markers,
		dispatcher: dispatcher,
		logger:     logging.WithComponent("engine"),
	}
}

// Process applies u to the registry and evaluates the session's windows in
// order. Failures are reported in the Decision and never abort the caller.
// Updates for one session must not be processed concurrently.
func (e *Engine) Process(ctx context.Context, u Update) Decision {
	d := e.process(ctx, u)
	metrics.Decisions.WithLabelValues(string(d.Action)).Inc()
	return d
}

func (e *Engine) process(ctx context.Context, u Update) Decision {
	var (
		s       PlaybackSession
		created bool
	)
	if u.Extrapolated {
		var err error
		if s, err = e.registry.UpdateExisting(u); err != nil {
			return Decision{Action: ActionNone, Err: err}
		}
	} else {
		s, created = e.registry.Upsert(u)
	}
	d := Decision{Session: s, Created: created}
	if created {
		e.logger.Info().
			Str("session", s.SessionID).
			Str("item", s.ItemID).
			Str("player", s.PlayerID).
			Str("kind", s.PlayerKind.String()).
			Msg("Tracking playback session")
	}

	markers, err := e.markers.Markers(ctx, s.ItemID)
	if err != nil {
		e.logger.Warn().Err(err).
			Str("session", s.SessionID).
			Str("item", s.ItemID).
			Msg("Marker fetch failed, deferring decision")
		d.Action = ActionDeferred
		d.Err = err
		return d
	}
	if len(markers) == 0 {
		d.Action = ActionNoMarkers
		return d
	}

	for i := range markers {
		m := markers[i]
		if s.Skipped(m) {
			continue
		}
		d.Marker = &m

		// Passing a window marks it whatever the play state; the PLAYING
		// gate below only guards commands.
		if s.Position >= m.End {
			next, err := e.registry.MarkSkipped(s.SessionID, s.Generation, m, false)
			if err != nil {
				d.Action = ActionNone
				d.Err = err
				return d
			}
			s = next
			d.Session = s
			d.Passed = append(d.Passed, m)
			e.logger.Debug().
				Str("session", s.SessionID).
				Stringer("window", m).
				Dur("position", s.Position).
				Msg("Window passed without a skip")
			continue
		}
		if s.Position < m.Start {
			d.Action = ActionWaiting
			return d
		}
		if s.State != StatePlaying {
			d.Action = ActionNotPlaying
			return d
		}
		return e.dispatch(ctx, d, s, m)
	}

	d.Marker = nil
	if len(d.Passed) > 0 {
		d.Action = ActionPassed
	} else {
		d.Action = ActionNone
	}
	return d
}

func (e *Engine) dispatch(ctx context.Context, d Decision, s PlaybackSession, m IntroMarker) Decision {
	next, err := e.dispatcher.DispatchSkip(ctx, s, m)
	switch {
	case err == nil:
		d.Action = ActionSkipped
		d.Session = next
	case errors.Is(err, ErrDispatchInFlight):
		d.Action = ActionSuppressed
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrWindowChanged):
		d.Action = ActionNone
		d.Err = err
	default:
		d.Action = ActionDispatchFailed
		d.Err = err
	}
	return d
}
