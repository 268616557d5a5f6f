// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
Package cache provides a generic, thread-safe LRU cache with TTL expiration.

It backs the marker cache (item key -> interruption markers) and the player
directory (player identifier -> advertised player). Entries expire lazily on
access; CleanupExpired can be called from a sweep.

# Usage

	markers := cache.NewLRU[string, []skip.IntroMarker](4096, 30*time.Minute)
	markers.Set("12345", list)
	if got, ok := markers.Get("12345"); ok {
	    // use got
	}

# Thread Safety

All methods are safe for concurrent use. A single mutex guards the list; every
operation is O(1) except CleanupExpired, which walks the list.
*/
package cache
