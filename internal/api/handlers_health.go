// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/autoskip/internal/models"
)

// HealthLive answers liveness probes. It does not look at dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":          true,
			"uptime_seconds": time.Since(h.startTime).Seconds(),
		},
	})
}

// HealthReady answers readiness probes: ready while the notification stream
// is connected and the breaker is not open.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	health := models.HealthStatus{
		Status:       "ready",
		StreamSource: h.deps.StreamSource,
		Uptime:       time.Since(h.startTime).Seconds(),
	}
	if h.deps.Stream != nil {
		health.StreamConnected = h.deps.Stream.Connected()
	}
	if h.deps.Sessions != nil {
		health.ActiveSessions = len(h.deps.Sessions.ListActive())
	}
	if h.deps.Breaker != nil {
		health.BreakerState = h.deps.Breaker.State()
	}

	status := http.StatusOK
	if !health.StreamConnected || health.BreakerState == "open" {
		health.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, &models.APIResponse{
		Status: health.Status,
		Data:   health,
	})
}
