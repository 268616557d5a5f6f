// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package skip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/autoskip/internal/logging"
	"github.com/tomtom215/autoskip/internal/metrics"
)

// Outcome classifies what the Normalizer did with a raw event.
type Outcome int

// Normalization outcomes.
const (
	// OutcomeUpdate means the event produced an update for the engine.
	OutcomeUpdate Outcome = iota
	// OutcomeCoalesced means the event repeated the stored state; only liveness was refreshed.
	OutcomeCoalesced
	// OutcomeStopped means the session ended.
	OutcomeStopped
	// OutcomeDropped means the event was discarded.
	OutcomeDropped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdate:
		return "update"
	case OutcomeCoalesced:
		return "coalesced"
	case OutcomeStopped:
		return "stopped"
	case OutcomeDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// PlayerResolver resolves a player ID reported by a notification.
type PlayerResolver interface {
	Lookup(ctx context.Context, id string) (Player, error)
}

// Normalizer turns raw notifications into canonical updates.
type Normalizer struct {
	players   PlayerResolver
	registry  *Registry
	tolerance time.Duration
	logger    zerolog.Logger
}

// NewNormalizer creates a normalizer. tolerance is the largest regression
// of a PLAYING session treated as a stale report.
func NewNormalizer(players PlayerResolver, registry *Registry, tolerance time.Duration) *Normalizer {
	return &Normalizer{
		players:   players,
		registry:  registry,
		tolerance: tolerance,
		logger:    logging.WithComponent("normalizer"),
	}
}

// Normalize validates ev and classifies it against the stored session.
// Dropped events return the reason as the error; no other outcome has one.
// A coalesced event refreshes the session's liveness as a side effect.
func (n *Normalizer) Normalize(ctx context.Context, ev RawEvent) (Update, Outcome, error) {
	if ev.SessionID == "" || ev.ItemID == "" || ev.PlayerID == "" {
		n.drop("missing_field", ev).Msg("Dropped notification without session, item or player")
		return Update{}, OutcomeDropped, fmt.Errorf("%w: session=%q item=%q player=%q",
			ErrMissingField, ev.SessionID, ev.ItemID, ev.PlayerID)
	}
	state, ok := ParsePlayState(ev.State)
	if !ok {
		n.drop("unknown_state", ev).Msg("Dropped notification with unknown play state")
		return Update{}, OutcomeDropped, fmt.Errorf("%w: %q", ErrUnknownState, ev.State)
	}

	observed := ev.ReceivedAt
	if observed.IsZero() {
		observed = time.Now()
	}
	u := Update{
		SessionID:  ev.SessionID,
		ItemID:     ev.ItemID,
		Position:   ev.Position,
		State:      state,
		ObservedAt: observed,
	}
	if state == StateStopped {
		return u, OutcomeStopped, nil
	}

	prev, err := n.registry.Get(ev.SessionID)
	known := err == nil

	player, err := n.players.Lookup(ctx, ev.PlayerID)
	switch {
	case errors.Is(err, ErrUnknownPlayer):
		n.drop("ineligible_player", ev).
			Msg("Player is not advertised for remote control; enable \"Advertise as player\" in the player's settings")
		return Update{}, OutcomeDropped, fmt.Errorf("%w: %s: %w", ErrIneligiblePlayer, ev.PlayerID, err)
	case err != nil:
		if !known || prev.PlayerID != ev.PlayerID {
			n.drop("player_lookup_failed", ev).Err(err).Msg("Dropped notification, player lookup failed")
			return Update{}, OutcomeDropped, err
		}
		// The player was eligible when the session was created.
		player = Player{
			ID:           prev.PlayerID,
			Capabilities: []string{CapabilityPlayback},
			IsLocal:      true,
			Kind:         prev.PlayerKind,
		}
	}
	if !player.Eligible() {
		n.drop("ineligible_player", ev).
			Bool("local", player.IsLocal).
			Strs("capabilities", player.Capabilities).
			Msg("Dropped notification from player that is not local or not controllable")
		return Update{}, OutcomeDropped, fmt.Errorf("%w: %s", ErrIneligiblePlayer, ev.PlayerID)
	}
	u.Player = player

	if !known || prev.ItemID != u.ItemID {
		return u, OutcomeUpdate, nil
	}
	if prev.Position == u.Position && prev.State == u.State && prev.PlayerID == player.ID {
		n.registry.Touch(u.SessionID, observed)
		return u, OutcomeCoalesced, nil
	}
	if regression := prev.Position - u.Position; regression > 0 {
		switch {
		case regression > n.tolerance:
			u.Seek = true
		case state == StatePlaying:
			u.Informational = true
		}
		n.logger.Debug().
			Str("session", u.SessionID).
			Dur("regression", regression).
			Bool("seek", u.Seek).
			Bool("informational", u.Informational).
			Msg("Position regressed")
	}
	return u, OutcomeUpdate, nil
}

func (n *Normalizer) drop(reason string, ev RawEvent) *zerolog.Event {
	metrics.EventsDropped.WithLabelValues(reason).Inc()
	return n.logger.Warn().
		Str("reason", reason).
		Str("session", ev.SessionID).
		Str("item", ev.ItemID).
		Str("player", ev.PlayerID).
		Dur("position", ev.Position).
		Str("state", ev.State)
}
