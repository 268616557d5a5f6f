// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package services

import (
	"context"
	"time"

	"github.com/tomtom215/autoskip/internal/logging"
)

// PeriodicService runs a task on a fixed interval until ctx is canceled.
// A task error is logged and the schedule continues.
//
//	svc := services.NewPeriodicService("marker-cache-cleanup", time.Minute, func(context.Context) error {
//	    markers.CleanupExpired()
//	    return nil
//	})
type PeriodicService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
}

// NewPeriodicService creates a periodic task. A non-positive interval means 1m.
func NewPeriodicService(name string, interval time.Duration, task func(ctx context.Context) error) *PeriodicService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service.
func (s *PeriodicService) Serve(ctx context.Context) error {
	logger := logging.WithComponent(s.name)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.task(ctx); err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("Periodic task failed")
			}
		}
	}
}

// String implements fmt.Stringer. Suture uses it in log messages.
func (s *PeriodicService) String() string {
	return s.name
}
