// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

// Package validation provides struct validation using go-playground/validator v10.
//
// It holds a thread-safe singleton validator (struct info is cached across
// calls) that names fields by their koanf, json or query tag, so errors read
// "skip.tolerance must be ..." for configuration and "limit must be ..." for
// API query parameters.
//
// Example usage:
//
//	type sessionsQuery struct {
//	    Limit int    `query:"limit" validate:"gte=0,lte=1000"`
//	    State string `query:"state" validate:"omitempty,oneof=playing paused buffering"`
//	}
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    respondError(w, http.StatusBadRequest, verr.Error())
//	    return
//	}
package validation
