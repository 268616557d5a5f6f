// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package skip

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDispatcherOneInFlightPerSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	m := intro("X", 30, 60)
	s, _ := h.registry.Upsert(update("S", "X", localPlayer("tv", KindStandard), 35, StatePlaying, h.clock.Now()))

	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	h.controller.onSeek = func(string) {
		once.Do(func() { close(entered) })
		<-release
	}

	errs := make(chan error, 1)
	go func() {
		_, err := h.dispatcher.DispatchSkip(context.Background(), s, m)
		errs <- err
	}()
	<-entered

	if !h.dispatcher.InFlight("S") {
		t.Error("InFlight() = false during dispatch")
	}
	if _, err := h.dispatcher.DispatchSkip(context.Background(), s, m); !errors.Is(err, ErrDispatchInFlight) {
		t.Errorf("concurrent DispatchSkip() error = %v, want ErrDispatchInFlight", err)
	}

	// Other sessions are not blocked.
	other, _ := h.registry.Upsert(update("T", "X", localPlayer("tv", KindStandard), 35, StatePlaying, h.clock.Now()))
	h.controller.mu.Lock()
	h.controller.onSeek = nil
	h.controller.mu.Unlock()
	if _, err := h.dispatcher.DispatchSkip(context.Background(), other, m); err != nil {
		t.Errorf("DispatchSkip(other session) error = %v", err)
	}

	close(release)
	if err := <-errs; err != nil {
		t.Fatalf("first DispatchSkip() error = %v", err)
	}
	if h.dispatcher.InFlight("S") {
		t.Error("InFlight() = true after completion")
	}
	if len(h.controller.Seeks()) != 2 {
		t.Errorf("seeks = %+v, want 2", h.controller.Seeks())
	}
}

func TestDispatcherTimeout(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.dispatcher = NewDispatcher(h.controller, h.registry, 20*time.Millisecond)
	m := intro("X", 30, 60)
	s, _ := h.registry.Upsert(update("S", "X", localPlayer("tv", KindStandard), 35, StatePlaying, h.clock.Now()))
	h.controller.onSeek = func(string) { time.Sleep(50 * time.Millisecond) }

	_, err := h.dispatcher.DispatchSkip(context.Background(), s, m)
	var de *DispatchError
	if !errors.As(err, &de) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("DispatchSkip() error = %v, want *DispatchError wrapping deadline", err)
	}
	got, _ := h.registry.Get("S")
	if got.Skipped(m) {
		t.Error("timed out dispatch marked the window")
	}
}

type recordingListener struct {
	mu    sync.Mutex
	skips []IntroMarker
	from  []time.Duration
}

func (l *recordingListener) SkipDispatched(from PlaybackSession, m IntroMarker) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.skips = append(l.skips, m)
	l.from = append(l.from, from.Position)
}

func TestDispatcherListener(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	listener := &recordingListener{}
	h.dispatcher.SetListener(listener)
	m := intro("X", 30, 60)
	s, _ := h.registry.Upsert(update("S", "X", localPlayer("tv", KindStandard), 35, StatePlaying, h.clock.Now()))

	h.controller.mu.Lock()
	h.controller.failN = 1
	h.controller.mu.Unlock()
	if _, err := h.dispatcher.DispatchSkip(context.Background(), s, m); err == nil {
		t.Fatal("DispatchSkip() = nil, want injected failure")
	}
	if _, err := h.dispatcher.DispatchSkip(context.Background(), s, m); err != nil {
		t.Fatalf("DispatchSkip() error = %v", err)
	}

	listener.mu.Lock()
	defer listener.mu.Unlock()
	if len(listener.skips) != 1 || listener.skips[0] != m {
		t.Fatalf("listener saw %+v, want only the successful skip", listener.skips)
	}
	if listener.from[0] != 35*time.Second {
		t.Errorf("from = %v, want 35s", listener.from[0])
	}
}
