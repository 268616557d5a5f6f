// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/autoskip/internal/skip"
)

// closingSource is an event source that records Close.
type closingSource struct {
	closed atomic.Int32
}

func (s *closingSource) Next(ctx context.Context) (skip.RawEvent, error) {
	<-ctx.Done()
	return skip.RawEvent{}, ctx.Err()
}

func (s *closingSource) Close() error {
	s.closed.Add(1)
	return nil
}

// fakeRunner returns runErr immediately, or blocks until ctx is done when
// runErr is nil.
type fakeRunner struct {
	runs   atomic.Int32
	runErr error
	seen   chan skip.EventSource
}

func (r *fakeRunner) Run(ctx context.Context, src skip.EventSource) error {
	r.runs.Add(1)
	if r.seen != nil {
		select {
		case r.seen <- src:
		default:
		}
	}
	if r.runErr != nil {
		return r.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestMonitorService_Interface(t *testing.T) {
	var _ suture.Service = (*MonitorService)(nil)
	var _ MonitorRunner = (*skip.Monitor)(nil)
}

func TestMonitorService_OpenFailure(t *testing.T) {
	t.Parallel()

	dialErr := errors.New("websocket dial failed (HTTP 401)")
	runner := &fakeRunner{}
	svc := NewMonitorService("plex-websocket", func(context.Context) (skip.EventSource, error) {
		return nil, dialErr
	}, runner)

	err := svc.Serve(context.Background())
	if !errors.Is(err, dialErr) {
		t.Errorf("Serve() = %v, want wrapping %v", err, dialErr)
	}
	if runner.runs.Load() != 0 {
		t.Error("monitor ran without a source")
	}
}

func TestMonitorService_StreamDisrupted(t *testing.T) {
	t.Parallel()

	src := &closingSource{}
	runner := &fakeRunner{runErr: fmt.Errorf("%w: close 1006", skip.ErrStreamDisrupted)}
	svc := NewMonitorService("plex-websocket", func(context.Context) (skip.EventSource, error) {
		return src, nil
	}, runner)

	err := svc.Serve(context.Background())
	if !errors.Is(err, skip.ErrStreamDisrupted) {
		t.Errorf("Serve() = %v, want ErrStreamDisrupted", err)
	}
	if src.closed.Load() != 1 {
		t.Errorf("source closed %d times, want 1", src.closed.Load())
	}
}

func TestMonitorService_Cancel(t *testing.T) {
	t.Parallel()

	src := &closingSource{}
	runner := &fakeRunner{seen: make(chan skip.EventSource, 1)}
	svc := NewMonitorService("plex-poll", func(context.Context) (skip.EventSource, error) {
		return src, nil
	}, runner)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	select {
	case got := <-runner.seen:
		if got != skip.EventSource(src) {
			t.Error("monitor received a different source")
		}
		if !svc.Connected() {
			t.Error("Connected() = false while the monitor runs")
		}
	case <-time.After(time.Second):
		t.Fatal("monitor did not start")
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
	if src.closed.Load() != 1 {
		t.Error("source not closed on shutdown")
	}
	if svc.Connected() {
		t.Error("Connected() = true after Serve returned")
	}
	if svc.String() != "plex-poll" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestMonitorService_RestartedBySupervisor(t *testing.T) {
	t.Parallel()

	var opens atomic.Int32
	runner := &fakeRunner{runErr: fmt.Errorf("%w: eof", skip.ErrStreamDisrupted)}
	svc := NewMonitorService("plex-websocket", func(context.Context) (skip.EventSource, error) {
		opens.Add(1)
		return &closingSource{}, nil
	}, runner)

	sup := suture.New("test-ingest", suture.Spec{
		FailureThreshold: 100,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for opens.Load() < 3 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("source opened %d times, want reconnects", opens.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-errCh
}
