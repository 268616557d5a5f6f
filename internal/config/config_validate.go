// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/autoskip/internal/validation"
)

// Validate checks field constraints (validator struct tags) and the
// cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := validateHTTPURL(c.Plex.URL, "PLEX_URL"); err != nil {
		return err
	}
	if containsPlaceholder(c.Plex.Token) {
		return fmt.Errorf("PLEX_TOKEN looks like a placeholder; set the server's X-Plex-Token")
	}
	if c.Plex.PingInterval >= c.Plex.ReadTimeout {
		return fmt.Errorf("plex.ping_interval (%s) must be shorter than plex.read_timeout (%s)",
			c.Plex.PingInterval, c.Plex.ReadTimeout)
	}

	return c.validateSkip()
}

func (c *Config) validateSkip() error {
	s := c.Skip
	if s.ExtrapolationInterval > 0 && s.MaxExtrapolation < s.ExtrapolationInterval {
		return fmt.Errorf("skip.max_extrapolation (%s) must be at least skip.extrapolation_interval (%s)",
			s.MaxExtrapolation, s.ExtrapolationInterval)
	}
	if s.SweepInterval > 0 && s.SweepInterval > s.LivenessTimeout {
		return fmt.Errorf("skip.sweep_interval (%s) must not exceed skip.liveness_timeout (%s)",
			s.SweepInterval, s.LivenessTimeout)
	}
	if s.LivenessTimeout <= s.MaxExtrapolation {
		return fmt.Errorf("skip.liveness_timeout (%s) must exceed skip.max_extrapolation (%s)",
			s.LivenessTimeout, s.MaxExtrapolation)
	}
	return nil
}

// placeholderPatterns are values copied from example configs without editing.
var placeholderPatterns = []string{
	"your_token",
	"your-token",
	"changeme",
	"change_me",
	"replace_me",
	"<token>",
	"xxxxxxxx",
}

func containsPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
