// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package skip

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func sec(n int) time.Duration { return time.Duration(n) * time.Second }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeProvider serves markers per item and counts fetches.
type fakeProvider struct {
	mu      sync.Mutex
	markers map[string][]IntroMarker
	failN   int
	gate    chan struct{}
	calls   atomic.Int32
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{markers: make(map[string][]IntroMarker)}
}

func (p *fakeProvider) set(item string, markers ...IntroMarker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markers[item] = markers
}

func (p *fakeProvider) failNext(n int) {
	p.mu.Lock()
	p.failN = n
	p.mu.Unlock()
}

func (p *fakeProvider) FetchMarkers(ctx context.Context, item string) ([]IntroMarker, error) {
	p.calls.Add(1)
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failN > 0 {
		p.failN--
		return nil, errors.New("metadata unavailable")
	}
	return append([]IntroMarker(nil), p.markers[item]...), nil
}

type seekCall struct {
	PlayerID string
	Position time.Duration
}

// fakeController records seeks and skip-next commands. failN fails the next
// n commands; onSeek runs before a seek result is returned.
type fakeController struct {
	mu     sync.Mutex
	seeks  []seekCall
	nexts  []string
	failN  int
	onSeek func(playerID string)
	done   chan seekCall
}

func (c *fakeController) Seek(ctx context.Context, playerID string, pos time.Duration) error {
	c.mu.Lock()
	hook := c.onSeek
	c.mu.Unlock()
	if hook != nil {
		hook(playerID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failN > 0 {
		c.failN--
		return errors.New("player unreachable")
	}
	call := seekCall{PlayerID: playerID, Position: pos}
	c.seeks = append(c.seeks, call)
	if c.done != nil {
		select {
		case c.done <- call:
		default:
		}
	}
	return nil
}

func (c *fakeController) SkipNext(ctx context.Context, playerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failN > 0 {
		c.failN--
		return errors.New("player unreachable")
	}
	c.nexts = append(c.nexts, playerID)
	return nil
}

func (c *fakeController) SkipNexts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.nexts...)
}

func (c *fakeController) Seeks() []seekCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]seekCall(nil), c.seeks...)
}

type fakeLister struct {
	mu      sync.Mutex
	players []Player
	err     error
	calls   atomic.Int32
}

func (l *fakeLister) ListPlayers(context.Context) ([]Player, error) {
	l.calls.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return append([]Player(nil), l.players...), nil
}

func (l *fakeLister) setErr(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}

func localPlayer(id string, kind PlayerKind) Player {
	return Player{
		ID:           id,
		Name:         id,
		Capabilities: []string{"timeline", CapabilityPlayback, "navigation"},
		IsLocal:      true,
		Kind:         kind,
	}
}

func intro(item string, start, end int) IntroMarker {
	return IntroMarker{ItemID: item, Kind: MarkerIntro, Start: sec(start), End: sec(end)}
}

// harness wires the real core components to fakes.
type harness struct {
	clock      *fakeClock
	provider   *fakeProvider
	lister     *fakeLister
	controller *fakeController
	registry   *Registry
	markers    *MarkerCache
	players    *PlayerDirectory
	normalizer *Normalizer
	dispatcher *Dispatcher
	engine     *Engine
}

func newHarness(t *testing.T, kinds ...MarkerKind) *harness {
	t.Helper()
	h := &harness{
		clock:      newFakeClock(),
		provider:   newFakeProvider(),
		lister:     &fakeLister{players: []Player{localPlayer("tv", KindStandard), localPlayer("cast", KindCast)}},
		controller: &fakeController{},
	}
	cfg := DefaultRegistryConfig()
	cfg.Clock = h.clock.Now
	h.registry = NewRegistry(cfg)
	h.markers = NewMarkerCache(h.provider, MarkerCacheConfig{
		TTL:          time.Hour,
		Capacity:     100,
		FetchTimeout: time.Second,
		Kinds:        kinds,
	})
	h.players = NewPlayerDirectory(h.lister, PlayerDirectoryConfig{TTL: time.Hour, FetchTimeout: time.Second})
	h.normalizer = NewNormalizer(h.players, h.registry, cfg.Tolerance)
	h.dispatcher = NewDispatcher(h.controller, h.registry, time.Second)
	h.engine = NewEngine(h.registry, h.markers, h.dispatcher)
	return h
}

func (h *harness) event(session, item, player string, pos int, state PlayState) RawEvent {
	return RawEvent{
		SessionID:  session,
		ItemID:     item,
		PlayerID:   player,
		Position:   sec(pos),
		State:      string(state),
		ReceivedAt: h.clock.Now(),
	}
}

// feed runs an event through the normalizer and, when it yields an update,
// the engine.
func (h *harness) feed(t *testing.T, ev RawEvent) (Outcome, Decision) {
	t.Helper()
	u, outcome, _ := h.normalizer.Normalize(context.Background(), ev)
	switch outcome {
	case OutcomeUpdate:
		return outcome, h.engine.Process(context.Background(), u)
	case OutcomeStopped:
		h.registry.Remove(u.SessionID)
	}
	return outcome, Decision{}
}

// chanSource is an EventSource backed by a channel; closing it ends the stream.
type chanSource struct {
	ch chan RawEvent
}

func newChanSource(buf int) *chanSource {
	return &chanSource{ch: make(chan RawEvent, buf)}
}

func (s *chanSource) Next(ctx context.Context) (RawEvent, error) {
	select {
	case <-ctx.Done():
		return RawEvent{}, ctx.Err()
	case ev, ok := <-s.ch:
		if !ok {
			return RawEvent{}, io.EOF
		}
		return ev, nil
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
