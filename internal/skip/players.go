// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package skip

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/tomtom215/autoskip/internal/cache"
	"github.com/tomtom215/autoskip/internal/logging"
	"github.com/tomtom215/autoskip/internal/metrics"
)

// PlayerLister lists the players currently advertising remote control.
type PlayerLister interface {
	ListPlayers(ctx context.Context) ([]Player, error)
}

// PlayerDirectoryConfig configures a PlayerDirectory.
type PlayerDirectoryConfig struct {
	// TTL bounds how long a listed player is trusted without a refresh.
	TTL time.Duration
	// RefreshInterval is the minimum spacing between refreshes triggered by
	// misses. Zero disables throttling.
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
}

const playersFlightKey = "players"

// PlayerDirectory resolves player IDs to advertised players. Misses trigger a
// rate-limited refresh of the whole listing; when the lister fails, the last
// successful listing is used.
type PlayerDirectory struct {
	lister  PlayerLister
	fresh   *cache.LRU[string, Player]
	limiter *rate.Limiter
	group   singleflight.Group
	timeout time.Duration

	mu    sync.RWMutex
	known map[string]Player
}

// NewPlayerDirectory creates a directory backed by lister.
func NewPlayerDirectory(lister PlayerLister, cfg PlayerDirectoryConfig) *PlayerDirectory {
	limit := rate.Inf
	if cfg.RefreshInterval > 0 {
		limit = rate.Every(cfg.RefreshInterval)
	}
	return &PlayerDirectory{
		lister:  lister,
		fresh:   cache.NewLRU[string, Player](256, cfg.TTL),
		limiter: rate.NewLimiter(limit, 1),
		timeout: cfg.FetchTimeout,
		known:   make(map[string]Player),
	}
}

// Lookup returns the player with the given ID. It returns ErrUnknownPlayer
// when no listing contains it and a *FetchError when the listing could not be
// fetched and the player was never seen.
func (d *PlayerDirectory) Lookup(ctx context.Context, id string) (Player, error) {
	if p, ok := d.fresh.Get(id); ok {
		metrics.RecordCacheLookup("players", true)
		return p, nil
	}
	metrics.RecordCacheLookup("players", false)

	if !d.limiter.Allow() {
		if p, ok := d.lastKnown(id); ok {
			return p, nil
		}
		return Player{}, ErrUnknownPlayer
	}

	if err := d.Refresh(ctx); err != nil {
		if p, ok := d.lastKnown(id); ok {
			logging.Warn().Err(err).Str("player", id).Msg("Player refresh failed, using last known listing")
			return p, nil
		}
		return Player{}, err
	}
	if p, ok := d.lastKnown(id); ok {
		return p, nil
	}
	return Player{}, ErrUnknownPlayer
}

// Refresh re-reads the player listing. Concurrent calls share one request.
func (d *PlayerDirectory) Refresh(ctx context.Context) error {
	ch := d.group.DoChan(playersFlightKey, func() (interface{}, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if d.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, d.timeout)
			defer cancel()
		}

		start := time.Now()
		players, err := d.lister.ListPlayers(fetchCtx)
		metrics.RecordFetch("players", time.Since(start), err)
		if err != nil {
			return nil, &FetchError{Op: "players", Key: playersFlightKey, Err: err}
		}

		known := make(map[string]Player, len(players))
		for _, p := range players {
			if p.ID == "" {
				continue
			}
			known[p.ID] = p
			d.fresh.Set(p.ID, p)
		}
		d.mu.Lock()
		d.known = known
		d.mu.Unlock()
		logging.Debug().Int("players", len(known)).Msg("Refreshed player directory")
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return &FetchError{Op: "players", Key: playersFlightKey, Err: ctx.Err()}
	case res := <-ch:
		return res.Err
	}
}

func (d *PlayerDirectory) lastKnown(id string) (Player, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.known[id]
	return p, ok
}

// Players returns the last successful listing.
func (d *PlayerDirectory) Players() []Player {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Player, 0, len(d.known))
	for _, p := range d.known {
		out = append(out, p)
	}
	return out
}
