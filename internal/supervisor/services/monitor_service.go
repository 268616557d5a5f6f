// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package services

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tomtom215/autoskip/internal/logging"
	"github.com/tomtom215/autoskip/internal/skip"
)

// SourceOpener connects a fresh notification source. The WebSocket dialer
// and the session poller both fit.
type SourceOpener func(ctx context.Context) (skip.EventSource, error)

// MonitorRunner consumes an event source until it ends. Satisfied by
// *skip.Monitor.
type MonitorRunner interface {
	Run(ctx context.Context, src skip.EventSource) error
}

// MonitorService keeps one notification source connected to the monitor.
//
// Each Serve call opens a new source and runs the monitor on it. A source
// that fails to open or ends with skip.ErrStreamDisrupted makes Serve return
// an error, and suture restarts the service with its failure backoff. The
// monitor's registry survives restarts.
type MonitorService struct {
	open    SourceOpener
	monitor MonitorRunner
	name    string
	logger  zerolog.Logger

	connected atomic.Bool
}

// NewMonitorService creates the ingest service. name identifies the source
// kind in supervisor logs, e.g. "plex-websocket".
func NewMonitorService(name string, open SourceOpener, monitor MonitorRunner) *MonitorService {
	return &MonitorService{
		open:    open,
		monitor: monitor,
		name:    name,
		logger:  logging.WithComponent(name),
	}
}

// Serve implements suture.Service.
func (s *MonitorService) Serve(ctx context.Context) error {
	src, err := s.open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn().Str("error", logging.RedactError(err)).Msg("Could not open notification source")
		return fmt.Errorf("open notification source: %w", err)
	}
	if closer, ok := src.(io.Closer); ok {
		defer func() {
			if cerr := closer.Close(); cerr != nil {
				s.logger.Debug().Err(cerr).Msg("Closing notification source")
			}
		}()
	}

	s.logger.Info().Msg("Monitoring playback notifications")
	s.connected.Store(true)
	err = s.monitor.Run(ctx, src)
	s.connected.Store(false)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Warn().Str("error", logging.RedactError(err)).Msg("Notification stream ended, reconnecting")
	return err
}

// Connected reports whether a notification source is open and being consumed.
func (s *MonitorService) Connected() bool {
	return s.connected.Load()
}

// String implements fmt.Stringer. Suture uses it in log messages.
func (s *MonitorService) String() string {
	return s.name
}
