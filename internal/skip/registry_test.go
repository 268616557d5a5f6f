// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package skip

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestRegistry(clock *fakeClock) *Registry {
	cfg := DefaultRegistryConfig()
	cfg.Clock = clock.Now
	return NewRegistry(cfg)
}

func update(session, item string, player Player, pos int, state PlayState, at time.Time) Update {
	return Update{
		SessionID:  session,
		ItemID:     item,
		Player:     player,
		Position:   sec(pos),
		State:      state,
		ObservedAt: at,
	}
}

func TestRegistryUpsertCreatesAndMerges(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := newTestRegistry(clock)
	tv := localPlayer("tv", KindStandard)

	s, created := r.Upsert(update("S1", "X", tv, 10, StatePlaying, clock.Now()))
	if !created {
		t.Fatal("first upsert should create the session")
	}
	if s.Position != sec(10) || s.PlayerID != "tv" || s.Generation == 0 {
		t.Errorf("unexpected session %+v", s)
	}

	clock.Advance(5 * time.Second)
	s, created = r.Upsert(update("S1", "X", tv, 15, StatePaused, clock.Now()))
	if created {
		t.Error("second upsert should merge")
	}
	if s.Position != sec(15) || s.State != StatePaused {
		t.Errorf("merge lost fields: %+v", s)
	}
	if !s.LastSeen.Equal(clock.Now()) {
		t.Errorf("LastSeen = %v, want %v", s.LastSeen, clock.Now())
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistryGetMissing(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(newFakeClock())
	if _, err := r.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestRegistryItemChangeResetsWindows(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := newTestRegistry(clock)
	tv := localPlayer("tv", KindStandard)
	m := intro("X", 30, 60)

	s, _ := r.Upsert(update("S1", "X", tv, 35, StatePlaying, clock.Now()))
	if _, err := r.MarkSkipped("S1", s.Generation, m, true); err != nil {
		t.Fatalf("MarkSkipped() error = %v", err)
	}

	s, _ = r.Upsert(update("S1", "Y", tv, 5, StatePlaying, clock.Now()))
	if s.ItemID != "Y" || s.Position != sec(5) {
		t.Errorf("item change not applied: %+v", s)
	}
	if len(s.SkippedWindows()) != 0 {
		t.Errorf("windows survived item change: %v", s.SkippedWindows())
	}
}

func TestRegistryRewindRearm(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		kind    PlayerKind
		after   time.Duration
		rewind  int
		skipped bool
	}{
		{"stale report within cast grace", KindCast, 5 * time.Second, 5, true},
		{"rewind after cast grace", KindCast, 11 * time.Second, 5, false},
		{"rewind after standard grace", KindStandard, 3 * time.Second, 5, false},
		{"rewind into window keeps mark", KindStandard, time.Minute, 40, true},
		{"regression within tolerance", KindStandard, time.Minute, 55, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := newFakeClock()
			r := newTestRegistry(clock)
			p := localPlayer("p", tt.kind)
			m := intro("X", 30, 60)

			s, _ := r.Upsert(update("S", "X", p, 35, StatePlaying, clock.Now()))
			if _, err := r.MarkSkipped("S", s.Generation, m, true); err != nil {
				t.Fatalf("MarkSkipped() error = %v", err)
			}
			clock.Advance(tt.after)
			s, _ = r.Upsert(update("S", "X", p, tt.rewind, StatePlaying, clock.Now()))
			if got := s.Skipped(m); got != tt.skipped {
				t.Errorf("Skipped() = %v, want %v", got, tt.skipped)
			}
		})
	}
}

func TestRegistryInformationalKeepsPosition(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := newTestRegistry(clock)
	tv := localPlayer("tv", KindStandard)

	r.Upsert(update("S", "X", tv, 60, StatePlaying, clock.Now()))
	u := update("S", "X", tv, 57, StatePlaying, clock.Now())
	u.Informational = true
	s, _ := r.Upsert(u)
	if s.Position != sec(60) {
		t.Errorf("Position = %v, want 60s", s.Position)
	}
}

func TestRegistryExtrapolatedDoesNotRefreshLiveness(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := newTestRegistry(clock)
	tv := localPlayer("tv", KindStandard)

	first := clock.Now()
	r.Upsert(update("S", "X", tv, 10, StatePlaying, first))
	clock.Advance(time.Second)
	u := update("S", "X", tv, 11, StatePlaying, clock.Now())
	u.Extrapolated = true
	s, _ := r.Upsert(u)
	if s.Position != sec(11) {
		t.Errorf("Position = %v, want 11s", s.Position)
	}
	if !s.LastSeen.Equal(first) {
		t.Errorf("LastSeen moved to %v", s.LastSeen)
	}
}

func TestRegistryExtrapolatedNeverRewinds(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := newTestRegistry(clock)
	tv := localPlayer("tv", KindStandard)

	r.Upsert(update("S", "X", tv, 20, StatePlaying, clock.Now()))
	u := update("S", "X", tv, 18, StatePlaying, clock.Now())
	u.Extrapolated = true
	s, err := r.UpdateExisting(u)
	if err != nil {
		t.Fatalf("UpdateExisting() error = %v", err)
	}
	if s.Position != sec(20) {
		t.Errorf("Position = %v, want 20s", s.Position)
	}
}

func TestRegistryUpdateExistingDoesNotResurrect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		gone func(r *Registry, clock *fakeClock)
	}{
		{"removed", func(r *Registry, _ *fakeClock) { r.Remove("S") }},
		{"expired", func(r *Registry, clock *fakeClock) { r.Expire(clock.Now().Add(time.Minute)) }},
		{"never tracked", func(r *Registry, _ *fakeClock) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := newFakeClock()
			r := newTestRegistry(clock)
			tv := localPlayer("tv", KindStandard)
			if tt.name != "never tracked" {
				r.Upsert(update("S", "X", tv, 10, StatePlaying, clock.Now()))
			}
			tt.gone(r, clock)

			u := update("S", "X", tv, 11, StatePlaying, clock.Now())
			u.Extrapolated = true
			if _, err := r.UpdateExisting(u); !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("UpdateExisting() error = %v, want ErrSessionNotFound", err)
			}
			if r.Len() != 0 {
				t.Error("UpdateExisting() recreated the session")
			}
		})
	}
}

func TestRegistryMarkSkipped(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := newTestRegistry(clock)
	tv := localPlayer("tv", KindStandard)
	m := intro("X", 30, 60)

	s, _ := r.Upsert(update("S", "X", tv, 35, StatePlaying, clock.Now()))
	s, err := r.MarkSkipped("S", s.Generation, m, true)
	if err != nil {
		t.Fatalf("MarkSkipped() error = %v", err)
	}
	if !s.Skipped(m) || s.Position != sec(60) || s.DispatchedCount() != 1 {
		t.Errorf("unexpected session after skip: %+v", s)
	}
	at, _ := s.SkippedAt(m)

	clock.Advance(time.Second)
	s, err = r.MarkSkipped("S", s.Generation, m, true)
	if err != nil {
		t.Fatalf("second MarkSkipped() error = %v", err)
	}
	if again, _ := s.SkippedAt(m); !again.Equal(at) {
		t.Error("second MarkSkipped should not overwrite the first mark")
	}

	if _, err := r.MarkSkipped("S", s.Generation, intro("Y", 30, 60), true); !errors.Is(err, ErrWindowChanged) {
		t.Errorf("MarkSkipped(other item) error = %v, want ErrWindowChanged", err)
	}
}

func TestRegistryMarkSkippedDoesNotResurrect(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := newTestRegistry(clock)
	tv := localPlayer("tv", KindStandard)
	m := intro("X", 30, 60)

	old, _ := r.Upsert(update("S", "X", tv, 35, StatePlaying, clock.Now()))
	if _, ok := r.Remove("S"); !ok {
		t.Fatal("Remove() reported missing session")
	}
	if _, err := r.MarkSkipped("S", old.Generation, m, true); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("MarkSkipped(removed) error = %v, want ErrSessionNotFound", err)
	}
	if r.Len() != 0 {
		t.Fatalf("removed session was resurrected")
	}

	fresh, created := r.Upsert(update("S", "X", tv, 35, StatePlaying, clock.Now()))
	if !created || fresh.Generation == old.Generation {
		t.Fatalf("expected a new record, got %+v", fresh)
	}
	if _, err := r.MarkSkipped("S", old.Generation, m, true); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("stale generation error = %v, want ErrSessionNotFound", err)
	}
	if s, _ := r.Get("S"); s.Skipped(m) {
		t.Error("stale dispatch result leaked into new record")
	}
}

func TestRegistryExpire(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := newTestRegistry(clock)
	tv := localPlayer("tv", KindStandard)

	r.Upsert(update("old", "X", tv, 10, StatePlaying, clock.Now()))
	clock.Advance(10 * time.Minute)
	r.Upsert(update("new", "X", tv, 10, StatePlaying, clock.Now()))

	expired := r.Expire(clock.Now().Add(-5 * time.Minute))
	if len(expired) != 1 || expired[0].SessionID != "old" {
		t.Fatalf("Expire() = %+v, want only old", expired)
	}
	active := r.ListActive()
	if len(active) != 1 || active[0].SessionID != "new" {
		t.Errorf("ListActive() = %+v", active)
	}
}

func TestRegistryTouch(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := newTestRegistry(clock)
	r.Upsert(update("S", "X", localPlayer("tv", KindStandard), 10, StatePlaying, clock.Now()))

	clock.Advance(time.Minute)
	if !r.Touch("S", clock.Now()) {
		t.Fatal("Touch() = false for active session")
	}
	s, _ := r.Get("S")
	if !s.LastSeen.Equal(clock.Now()) {
		t.Errorf("LastSeen = %v, want %v", s.LastSeen, clock.Now())
	}
	if r.Touch("missing", clock.Now()) {
		t.Error("Touch() = true for unknown session")
	}
}

func TestRegistryListActiveSorted(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := newTestRegistry(clock)
	tv := localPlayer("tv", KindStandard)
	for _, id := range []string{"c", "a", "b"} {
		r.Upsert(update(id, "X", tv, 1, StatePlaying, clock.Now()))
	}
	active := r.ListActive()
	if len(active) != 3 || active[0].SessionID != "a" || active[2].SessionID != "c" {
		t.Errorf("ListActive() order = %v", active)
	}
}

func TestRegistryConcurrentSessions(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	r := newTestRegistry(clock)
	tv := localPlayer("tv", KindStandard)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("S%d", i)
			for pos := 0; pos < 20; pos++ {
				s, _ := r.Upsert(update(id, "X", tv, pos, StatePlaying, clock.Now()))
				if pos == 10 {
					_, _ = r.MarkSkipped(id, s.Generation, intro("X", 30, 60), false)
				}
				_, _ = r.Get(id)
			}
			if i%2 == 0 {
				r.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	if got := r.Len(); got != 25 {
		t.Errorf("Len() = %d, want 25", got)
	}
	for _, s := range r.ListActive() {
		if s.Position != sec(19) || len(s.SkippedWindows()) != 1 {
			t.Errorf("session %s: position %v windows %d", s.SessionID, s.Position, len(s.SkippedWindows()))
		}
	}
}
