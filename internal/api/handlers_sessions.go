// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package api

import (
	"cmp"
	"net/http"
	"slices"
	"strings"

	"github.com/tomtom215/autoskip/internal/models"
	"github.com/tomtom215/autoskip/internal/skip"
)

const defaultSessionLimit = 100

// sessionsQuery holds GET /api/v1/sessions parameters.
type sessionsQuery struct {
	Limit  int    `query:"limit" validate:"gte=1,lte=1000"`
	State  string `query:"state" validate:"omitempty,oneof=playing paused buffering"`
	Player string `query:"player" validate:"omitempty,max=128"`
}

// Sessions lists active sessions ordered by first sighting.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit", defaultSessionLimit)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	q := sessionsQuery{
		Limit:  limit,
		State:  strings.ToLower(r.URL.Query().Get("state")),
		Player: r.URL.Query().Get("player"),
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	active := h.deps.Sessions.ListActive()
	slices.SortFunc(active, func(a, b skip.PlaybackSession) int {
		if c := a.FirstSeen.Compare(b.FirstSeen); c != 0 {
			return c
		}
		return cmp.Compare(a.SessionID, b.SessionID)
	})

	views := make([]models.SessionView, 0, min(len(active), q.Limit))
	for _, s := range active {
		if q.State != "" && string(s.State) != q.State {
			continue
		}
		if q.Player != "" && s.PlayerID != q.Player {
			continue
		}
		views = append(views, sessionView(s))
		if len(views) == q.Limit {
			break
		}
	}

	count := len(views)
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     views,
		Metadata: models.Metadata{Count: &count},
	})
}

func sessionView(s skip.PlaybackSession) models.SessionView {
	windows := s.SkippedWindows()
	skipped := make([]models.SkippedWindow, 0, len(windows))
	for _, m := range windows {
		sw := models.SkippedWindow{
			Kind:  string(m.Kind),
			Start: m.Start.Seconds(),
			End:   m.End.Seconds(),
		}
		if at, ok := s.SkippedAt(m); ok && !at.IsZero() {
			sw.SkippedAt = &at
		}
		skipped = append(skipped, sw)
	}
	return models.SessionView{
		SessionID:  s.SessionID,
		ItemID:     s.ItemID,
		PlayerID:   s.PlayerID,
		PlayerKind: s.PlayerKind.String(),
		Position:   s.Position.Seconds(),
		State:      string(s.State),
		FirstSeen:  s.FirstSeen,
		LastSeen:   s.LastSeen,
		Dispatched: s.DispatchedCount(),
		Skipped:    skipped,
	}
}

// Players lists the players from the last listing, ordered by name.
// ?eligible=true keeps only players a skip can be sent to.
func (h *Handler) Players(w http.ResponseWriter, r *http.Request) {
	eligible, err := parseBoolParam(r, "eligible")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	players := h.deps.Players.Players()
	slices.SortFunc(players, func(a, b skip.Player) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	views := make([]models.PlayerView, 0, len(players))
	for _, p := range players {
		if eligible != nil && p.Eligible() != *eligible {
			continue
		}
		views = append(views, models.PlayerView{
			ID:       p.ID,
			Name:     p.Name,
			Product:  p.Product,
			Address:  p.Address,
			Kind:     p.Kind.String(),
			IsLocal:  p.IsLocal,
			Eligible: p.Eligible(),
		})
	}

	count := len(views)
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     views,
		Metadata: models.Metadata{Count: &count},
	})
}
