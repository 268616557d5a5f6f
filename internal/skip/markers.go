// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package skip

import (
	"cmp"
	"context"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/autoskip/internal/cache"
	"github.com/tomtom215/autoskip/internal/logging"
	"github.com/tomtom215/autoskip/internal/metrics"
)

// MarkerProvider fetches interruption markers for an item.
type MarkerProvider interface {
	FetchMarkers(ctx context.Context, itemID string) ([]IntroMarker, error)
}

// MarkerCacheConfig configures a MarkerCache.
type MarkerCacheConfig struct {
	TTL          time.Duration
	Capacity     int
	FetchTimeout time.Duration
	// Kinds lists the marker kinds treated as skippable windows.
	// Empty means intro only. MarkerEnding turns the final credits window
	// into a skip-to-next window.
	Kinds []MarkerKind
}

// MarkerCache maps item IDs to their ordered, non-overlapping interruption
// windows. Concurrent misses for one item share a single provider call;
// failures are not cached.
type MarkerCache struct {
	provider MarkerProvider
	entries  *cache.LRU[string, []IntroMarker]
	group    singleflight.Group
	timeout  time.Duration
	kinds    map[MarkerKind]bool
}

// NewMarkerCache creates a marker cache backed by provider.
func NewMarkerCache(provider MarkerProvider, cfg MarkerCacheConfig) *MarkerCache {
	kinds := make(map[MarkerKind]bool)
	for _, k := range cfg.Kinds {
		kinds[k] = true
	}
	if len(kinds) == 0 {
		kinds[MarkerIntro] = true
	}
	return &MarkerCache{
		provider: provider,
		entries:  cache.NewLRU[string, []IntroMarker](cfg.Capacity, cfg.TTL),
		timeout:  cfg.FetchTimeout,
		kinds:    kinds,
	}
}

// Markers returns the windows for itemID, fetching them on a miss. A failed
// fetch returns a *FetchError and leaves the cache untouched so the next call
// retries.
func (c *MarkerCache) Markers(ctx context.Context, itemID string) ([]IntroMarker, error) {
	if markers, ok := c.entries.Get(itemID); ok {
		metrics.RecordCacheLookup("markers", true)
		return slices.Clone(markers), nil
	}
	metrics.RecordCacheLookup("markers", false)

	// The shared fetch is detached from the first caller so that a caller
	// giving up does not fail the others waiting on the same key.
	ch := c.group.DoChan(itemID, func() (interface{}, error) {
		if markers, ok := c.entries.Get(itemID); ok {
			return markers, nil
		}
		fetchCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.timeout)
			defer cancel()
		}

		start := time.Now()
		raw, err := c.provider.FetchMarkers(fetchCtx, itemID)
		metrics.RecordFetch("markers", time.Since(start), err)
		if err != nil {
			return nil, &FetchError{Op: "markers", Key: itemID, Err: err}
		}

		markers := c.sanitize(itemID, raw)
		c.entries.Set(itemID, markers)
		logging.Debug().
			Str("item", itemID).
			Int("markers", len(markers)).
			Int("raw", len(raw)).
			Msg("Cached interruption markers")
		return markers, nil
	})

	select {
	case <-ctx.Done():
		return nil, &FetchError{Op: "markers", Key: itemID, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		markers, _ := res.Val.([]IntroMarker)
		return slices.Clone(markers), nil
	}
}

// sanitize keeps configured kinds, drops empty windows, orders by start and
// drops windows overlapping an earlier one.
func (c *MarkerCache) sanitize(itemID string, raw []IntroMarker) []IntroMarker {
	markers := make([]IntroMarker, 0, len(raw))
	for _, m := range raw {
		if m.Kind == MarkerCredits && m.Final && c.kinds[MarkerEnding] {
			m.Kind = MarkerEnding
		}
		if !c.kinds[m.Kind] || m.End <= m.Start || m.Start < 0 {
			continue
		}
		m.ItemID = itemID
		markers = append(markers, m)
	}
	slices.SortStableFunc(markers, func(a, b IntroMarker) int {
		return cmp.Compare(a.Start, b.Start)
	})

	out := markers[:0]
	for _, m := range markers {
		if n := len(out); n > 0 && m.Start < out[n-1].End {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Invalidate drops the cached windows for itemID.
func (c *MarkerCache) Invalidate(itemID string) {
	c.entries.Delete(itemID)
}

// Len returns the number of cached items.
func (c *MarkerCache) Len() int {
	return c.entries.Len()
}

// CleanupExpired evicts expired entries and returns how many were removed.
func (c *MarkerCache) CleanupExpired() int {
	return c.entries.CleanupExpired()
}
