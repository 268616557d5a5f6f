// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package skip

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// StalenessPolicy is how long after a window was marked a rewind may re-arm
// it, per player kind.
type StalenessPolicy struct {
	Default time.Duration
	Cast    time.Duration
}

// For returns the grace period for a player kind.
func (p StalenessPolicy) For(kind PlayerKind) time.Duration {
	if kind == KindCast {
		return p.Cast
	}
	return p.Default
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Tolerance is the largest position regression treated as a stale report
	// rather than a rewind.
	Tolerance time.Duration
	Staleness StalenessPolicy
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// DefaultRegistryConfig returns the documented cast staleness defaults.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Tolerance: 10 * time.Second,
		Staleness: StalenessPolicy{Default: 2 * time.Second, Cast: 10 * time.Second},
	}
}

type registryEntry struct {
	mu      sync.Mutex
	session PlaybackSession
	removed bool
}

// Registry is the authoritative in-memory map of active playback sessions.
//
// The map lock is held only to find or insert an entry; all session state is
// guarded by the entry's own mutex, so unrelated sessions never contend.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry

	generation atomic.Uint64
	tolerance  time.Duration
	staleness  StalenessPolicy
	now        func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Registry{
		entries:   make(map[string]*registryEntry),
		tolerance: cfg.Tolerance,
		staleness: cfg.Staleness,
		now:       now,
	}
}

// Upsert creates or merges a session record and returns the post-update
// snapshot. created is true when the session was previously unknown.
//
// Skip marks survive unless the item changed, or the update rewound the
// position before a marked window's start by more than the tolerance once
// the player's staleness grace has passed.
func (r *Registry) Upsert(u Update) (PlaybackSession, bool) {
	for {
		e, created := r.loadOrCreate(u)
		e.mu.Lock()
		if e.removed {
			// Lost a race with Remove or Expire; the next pass inserts a fresh record.
			e.mu.Unlock()
			r.drop(u.SessionID, e)
			continue
		}
		if !created {
			r.merge(&e.session, u)
		}
		snap := e.session.clone()
		e.mu.Unlock()
		return snap, created
	}
}

// UpdateExisting merges u into a session that is still tracked. It never
// creates a record: a session removed or expired meanwhile stays removed and
// ErrSessionNotFound is returned.
func (r *Registry) UpdateExisting(u Update) (PlaybackSession, error) {
	e := r.lookup(u.SessionID)
	if e == nil {
		return PlaybackSession{}, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return PlaybackSession{}, ErrSessionNotFound
	}
	r.merge(&e.session, u)
	return e.session.clone(), nil
}

func (r *Registry) loadOrCreate(u Update) (*registryEntry, bool) {
	r.mu.RLock()
	e, ok := r.entries[u.SessionID]
	r.mu.RUnlock()
	if ok {
		return e, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.entries[u.SessionID]; ok {
		return e, false
	}
	at := u.ObservedAt
	if at.IsZero() {
		at = r.now()
	}
	e = &registryEntry{session: PlaybackSession{
		SessionID:  u.SessionID,
		ItemID:     u.ItemID,
		PlayerID:   u.Player.ID,
		PlayerKind: u.Player.Kind,
		Position:   u.Position,
		State:      u.State,
		FirstSeen:  at,
		LastSeen:   at,
		Generation: r.generation.Add(1),
		windows:    make(map[windowKey]windowMark),
	}}
	r.entries[u.SessionID] = e
	return e, true
}

func (r *Registry) merge(s *PlaybackSession, u Update) {
	if !u.Extrapolated {
		if u.ObservedAt.IsZero() {
			s.LastSeen = r.now()
		} else {
			s.LastSeen = u.ObservedAt
		}
	}
	if u.Player.ID != "" {
		s.PlayerID = u.Player.ID
		s.PlayerKind = u.Player.Kind
	}
	s.State = u.State

	if u.ItemID != s.ItemID {
		s.ItemID = u.ItemID
		s.Position = u.Position
		clear(s.windows)
		return
	}
	if u.Informational {
		return
	}
	if u.Extrapolated {
		if u.Position > s.Position {
			s.Position = u.Position
		}
		return
	}
	if s.Position-u.Position > r.tolerance {
		r.rearm(s, u.Position)
	}
	s.Position = u.Position
}

// rearm clears marks for windows the position rewound past, once the grace
// for stale reports has elapsed.
func (r *Registry) rearm(s *PlaybackSession, pos time.Duration) {
	grace := r.staleness.For(s.PlayerKind)
	now := r.now()
	for k, mark := range s.windows {
		if pos < mark.marker.Start && now.Sub(mark.at) >= grace {
			delete(s.windows, k)
		}
	}
}

func (r *Registry) lookup(id string) *registryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}

// Get returns a snapshot of the session or ErrSessionNotFound.
func (r *Registry) Get(id string) (PlaybackSession, error) {
	e := r.lookup(id)
	if e == nil {
		return PlaybackSession{}, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return PlaybackSession{}, ErrSessionNotFound
	}
	return e.session.clone(), nil
}

// Touch refreshes the liveness timestamp of a session.
func (r *Registry) Touch(id string, at time.Time) bool {
	e := r.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return false
	}
	if at.After(e.session.LastSeen) {
		e.session.LastSeen = at
	}
	return true
}

// MarkSkipped records window m as handled for the session. dispatched is true
// when a seek closed the window, in which case the stored position advances
// to the window end.
//
// The generation must match the record the caller acted on: a session removed
// and re-created in the meantime is never touched, and ErrSessionNotFound is
// returned. Marking an already marked window is a no-op.
func (r *Registry) MarkSkipped(id string, generation uint64, m IntroMarker, dispatched bool) (PlaybackSession, error) {
	e := r.lookup(id)
	if e == nil {
		return PlaybackSession{}, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := &e.session
	if e.removed || s.Generation != generation {
		return PlaybackSession{}, ErrSessionNotFound
	}
	if s.ItemID != m.ItemID {
		return s.clone(), ErrWindowChanged
	}
	if _, ok := s.windows[m.key()]; !ok {
		s.windows[m.key()] = windowMark{marker: m, at: r.now(), dispatched: dispatched}
	}
	if dispatched && s.Position < m.End {
		s.Position = m.End
	}
	return s.clone(), nil
}

// Remove releases a session record.
func (r *Registry) Remove(id string) (PlaybackSession, bool) {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return PlaybackSession{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = true
	return e.session.clone(), true
}

// Expire removes every session not seen since cutoff and returns them.
func (r *Registry) Expire(cutoff time.Time) []PlaybackSession {
	r.mu.RLock()
	candidates := make([]*registryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		candidates = append(candidates, e)
	}
	r.mu.RUnlock()

	var expired []PlaybackSession
	for _, e := range candidates {
		e.mu.Lock()
		if e.removed || !e.session.LastSeen.Before(cutoff) {
			e.mu.Unlock()
			continue
		}
		e.removed = true
		snap := e.session.clone()
		e.mu.Unlock()

		r.drop(snap.SessionID, e)
		expired = append(expired, snap)
	}
	return expired
}

func (r *Registry) drop(id string, e *registryEntry) {
	r.mu.Lock()
	if r.entries[id] == e {
		delete(r.entries, id)
	}
	r.mu.Unlock()
}

// ListActive returns snapshots of all sessions ordered by session ID.
func (r *Registry) ListActive() []PlaybackSession {
	r.mu.RLock()
	entries := make([]*registryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]PlaybackSession, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			out = append(out, e.session.clone())
		}
		e.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b PlaybackSession) int {
		return strings.Compare(a.SessionID, b.SessionID)
	})
	return out
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
