// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package skip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/autoskip/internal/logging"
	"github.com/tomtom215/autoskip/internal/metrics"
)

// EventSource is a pull-based stream of raw notifications. Next blocks until
// an event is available, the stream ends (io.EOF or another error), or ctx
// is canceled.
type EventSource interface {
	Next(ctx context.Context) (RawEvent, error)
}

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	// LivenessTimeout removes sessions without a notification for this long.
	LivenessTimeout time.Duration
	SweepInterval   time.Duration
	// ExtrapolationInterval is how long a PLAYING session waiting for a window
	// may go without a notification before a synthetic update advances its
	// position. Zero disables extrapolation.
	ExtrapolationInterval time.Duration
	// MaxExtrapolation caps how far past the last real notification a position
	// is extrapolated.
	MaxExtrapolation time.Duration
	// MailboxSize is the per-session backlog above which a warning is logged.
	// Events are never dropped for backlog.
	MailboxSize int
	// WorkerIdleTimeout retires a session worker with nothing to do.
	WorkerIdleTimeout time.Duration
}

// DefaultMonitorConfig returns the default monitor settings.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		LivenessTimeout:       5 * time.Minute,
		SweepInterval:         30 * time.Second,
		ExtrapolationInterval: time.Second,
		MaxExtrapolation:      15 * time.Second,
		MailboxSize:           64,
		WorkerIdleTimeout:     30 * time.Second,
	}
}

// Monitor consumes a notification stream and drives the engine. Events for
// one session are processed in delivery order on that session's worker;
// different sessions proceed in parallel.
type Monitor struct {
	cfg        MonitorConfig
	registry   *Registry
	normalizer *Normalizer
	engine     *Engine
	logger     zerolog.Logger

	running atomic.Bool
	workers atomic.Int64
}

// NewMonitor creates a monitor.
func NewMonitor(cfg MonitorConfig, registry *Registry, normalizer *Normalizer, engine *Engine) *Monitor {
	if cfg.WorkerIdleTimeout <= 0 {
		cfg.WorkerIdleTimeout = DefaultMonitorConfig().WorkerIdleTimeout
	}
	return &Monitor{
		cfg:        cfg,
		registry:   registry,
		normalizer: normalizer,
		engine:     engine,
		logger:     logging.WithComponent("monitor"),
	}
}

type monitorRun struct {
	ctx      context.Context
	draining chan struct{}

	mu      sync.Mutex
	workers map[string]*sessionWorker
	wg      sync.WaitGroup
}

type sessionWorker struct {
	id   string
	wake chan struct{}

	mu     sync.Mutex
	queue  []RawEvent
	warned bool
}

// Run consumes src until it ends or ctx is canceled. When the stream ends,
// queued events are processed before Run returns an error wrapping
// ErrStreamDisrupted. On cancellation it returns ctx.Err(). The registry is
// kept across runs; sessions that vanished during a reconnect expire through
// the liveness sweep.
func (m *Monitor) Run(ctx context.Context, src EventSource) error {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("monitor already running")
	}
	defer m.running.Store(false)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r := &monitorRun{
		ctx:      runCtx,
		draining: make(chan struct{}),
		workers:  make(map[string]*sessionWorker),
	}

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		m.sweepLoop(runCtx)
	}()

	m.logger.Info().Msg("Session monitor started")
	for {
		ev, err := src.Next(runCtx)
		if err != nil {
			return m.stop(ctx, r, cancel, sweepDone, err)
		}
		metrics.EventsReceived.Inc()
		if ev.ReceivedAt.IsZero() {
			ev.ReceivedAt = time.Now()
		}
		m.route(r, ev)
	}
}

func (m *Monitor) stop(ctx context.Context, r *monitorRun, cancel context.CancelFunc, sweepDone <-chan struct{}, cause error) error {
	if ctx.Err() != nil {
		cancel()
	} else {
		close(r.draining)
	}
	r.wg.Wait()
	cancel()
	<-sweepDone

	if err := ctx.Err(); err != nil {
		m.logger.Info().Msg("Session monitor stopped")
		return err
	}

	metrics.StreamDisruptions.Inc()
	m.logger.Warn().Err(cause).Int("sessions", m.registry.Len()).Msg("Notification stream ended")
	switch {
	case errors.Is(cause, ErrStreamDisrupted):
		return cause
	case errors.Is(cause, io.EOF):
		return fmt.Errorf("%w: end of stream", ErrStreamDisrupted)
	default:
		return fmt.Errorf("%w: %w", ErrStreamDisrupted, cause)
	}
}

func (m *Monitor) route(r *monitorRun, ev RawEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[ev.SessionID]
	if !ok {
		w = &sessionWorker{id: ev.SessionID, wake: make(chan struct{}, 1)}
		r.workers[ev.SessionID] = w
		r.wg.Add(1)
		m.workers.Add(1)
		metrics.SessionWorkers.Inc()
		go m.work(r, w)
	}

	w.mu.Lock()
	w.queue = append(w.queue, ev)
	backlog := len(w.queue)
	warn := m.cfg.MailboxSize > 0 && backlog > m.cfg.MailboxSize && !w.warned
	if warn {
		w.warned = true
	}
	w.mu.Unlock()
	if warn {
		m.logger.Warn().Str("session", ev.SessionID).Int("backlog", backlog).Msg("Session worker falling behind")
	}

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *sessionWorker) pop() (RawEvent, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		w.warned = false
		return RawEvent{}, false
	}
	ev := w.queue[0]
	w.queue[0] = RawEvent{}
	w.queue = w.queue[1:]
	return ev, true
}

// retire removes an idle worker. It fails if an event arrived meanwhile.
func (r *monitorRun) retire(w *sessionWorker) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) > 0 {
		return false
	}
	if r.workers[w.id] == w {
		delete(r.workers, w.id)
	}
	return true
}

// extrapolation advances a PLAYING session's position between notifications.
// It always starts from the position the player reported, never from a
// stored position that may itself be extrapolated, so the drift stays within
// MaxExtrapolation of the last real report.
type extrapolation struct {
	timer *time.Timer
	base  Update
	since time.Time
}

func (x *extrapolation) C() <-chan time.Time {
	if x.timer == nil {
		return nil
	}
	return x.timer.C
}

func (x *extrapolation) arm(base Update, every time.Duration) {
	x.stop()
	x.base = base
	x.since = base.ObservedAt
	if now := time.Now(); x.since.IsZero() || x.since.After(now) {
		x.since = now
	}
	x.timer = time.NewTimer(every)
}

func (x *extrapolation) stop() {
	if x.timer != nil {
		x.timer.Stop()
		x.timer = nil
	}
}

func (m *Monitor) work(r *monitorRun, w *sessionWorker) {
	defer r.wg.Done()
	defer m.workers.Add(-1)
	defer metrics.SessionWorkers.Dec()

	idle := time.NewTimer(m.cfg.WorkerIdleTimeout)
	defer idle.Stop()
	var ex extrapolation
	defer ex.stop()

	for {
		if ev, ok := w.pop(); ok {
			ex.stop()
			u, d, evaluated := m.handle(r.ctx, ev)
			if evaluated && m.extrapolates(u, d) {
				ex.arm(u, m.cfg.ExtrapolationInterval)
			}
			idle.Reset(m.cfg.WorkerIdleTimeout)
			continue
		}

		select {
		case <-r.ctx.Done():
			return
		case <-w.wake:
		case <-r.draining:
			if r.retire(w) {
				return
			}
		case <-idle.C:
			if ex.timer == nil && r.retire(w) {
				return
			}
			idle.Reset(m.cfg.WorkerIdleTimeout)
		case <-ex.C():
			elapsed := time.Since(ex.since)
			if elapsed > m.cfg.MaxExtrapolation {
				ex.stop()
				continue
			}
			u := ex.base
			u.Position += elapsed
			u.ObservedAt = time.Now()
			u.Extrapolated = true
			u.Informational = false
			u.Seek = false
			metrics.ExtrapolatedUpdates.Inc()
			d := m.evaluate(r.ctx, u)
			if m.extrapolates(u, d) {
				ex.timer.Reset(m.cfg.ExtrapolationInterval)
			} else {
				ex.stop()
			}
		}
	}
}

func (m *Monitor) extrapolates(u Update, d Decision) bool {
	return m.cfg.ExtrapolationInterval > 0 &&
		u.State == StatePlaying &&
		d.Action == ActionWaiting
}

// handle normalizes and evaluates one event. A panic is contained to the event.
func (m *Monitor) handle(ctx context.Context, ev RawEvent) (u Update, d Decision, evaluated bool) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error().
				Interface("panic", rec).
				Str("session", ev.SessionID).
				Msg("Recovered from panic while handling notification")
			evaluated = false
		}
	}()

	u, outcome, _ := m.normalizer.Normalize(ctx, ev)
	metrics.EventsNormalized.WithLabelValues(outcome.String()).Inc()
	switch outcome {
	case OutcomeUpdate:
	case OutcomeStopped:
		if s, ok := m.registry.Remove(u.SessionID); ok {
			m.logger.Info().
				Str("session", s.SessionID).
				Str("item", s.ItemID).
				Int("skips", s.DispatchedCount()).
				Msg("Playback session stopped")
		}
		metrics.ActiveSessions.Set(float64(m.registry.Len()))
		return u, Decision{}, false
	default:
		return u, Decision{}, false
	}

	return u, m.evaluate(ctx, u), true
}

func (m *Monitor) evaluate(ctx context.Context, u Update) Decision {
	d := m.engine.Process(ctx, u)
	metrics.ActiveSessions.Set(float64(m.registry.Len()))
	ev := m.logger.Debug().
		Str("session", u.SessionID).
		Str("item", u.ItemID).
		Dur("position", d.Session.Position).
		Str("state", string(u.State)).
		Bool("extrapolated", u.Extrapolated).
		Str("action", string(d.Action))
	if d.Marker != nil {
		ev = ev.Stringer("window", *d.Marker)
	}
	ev.Msg("Evaluated session update")
	return d
}

func (m *Monitor) sweepLoop(ctx context.Context) {
	if m.cfg.SweepInterval <= 0 || m.cfg.LivenessTimeout <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Sweep removes sessions without a notification within the liveness timeout.
func (m *Monitor) Sweep(now time.Time) []PlaybackSession {
	expired := m.registry.Expire(now.Add(-m.cfg.LivenessTimeout))
	for _, s := range expired {
		metrics.SessionsExpired.Inc()
		m.logger.Info().
			Str("session", s.SessionID).
			Str("item", s.ItemID).
			Time("last_seen", s.LastSeen).
			Msg("Playback session expired")
	}
	metrics.ActiveSessions.Set(float64(m.registry.Len()))
	return expired
}

// Workers returns the number of live session workers.
func (m *Monitor) Workers() int {
	return int(m.workers.Load())
}

// Sessions returns the active sessions.
func (m *Monitor) Sessions() []PlaybackSession {
	return m.registry.ListActive()
}
