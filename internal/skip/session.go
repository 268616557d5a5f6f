// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package skip

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// PlayState is the playback state reported for a session.
type PlayState string

// Play states as reported by Plex.
const (
	StatePlaying   PlayState = "playing"
	StatePaused    PlayState = "paused"
	StateStopped   PlayState = "stopped"
	StateBuffering PlayState = "buffering"
)

// ParsePlayState maps a reported state string to a PlayState.
func ParsePlayState(s string) (PlayState, bool) {
	switch PlayState(strings.ToLower(strings.TrimSpace(s))) {
	case StatePlaying:
		return StatePlaying, true
	case StatePaused:
		return StatePaused, true
	case StateStopped:
		return StateStopped, true
	case StateBuffering:
		return StateBuffering, true
	default:
		return "", false
	}
}

// PlayerKind affects command semantics. Cast-class receivers report stale
// positions for several seconds after a seek.
type PlayerKind int

// Player kinds.
const (
	KindStandard PlayerKind = iota
	KindCast
)

func (k PlayerKind) String() string {
	switch k {
	case KindCast:
		return "cast"
	default:
		return "standard"
	}
}

// CapabilityPlayback is the capability a player advertises when it accepts
// remote playback commands ("Advertise as player").
const CapabilityPlayback = "playback"

// Player is a controllable endpoint.
type Player struct {
	ID           string
	Name         string
	Product      string
	Address      string
	Capabilities []string
	IsLocal      bool
	Kind         PlayerKind
}

// HasCapability reports whether the player advertised capability c.
func (p Player) HasCapability(c string) bool {
	for _, have := range p.Capabilities {
		if strings.EqualFold(have, c) {
			return true
		}
	}
	return false
}

// Eligible reports whether skip commands may be sent to the player.
func (p Player) Eligible() bool {
	return p.IsLocal && p.HasCapability(CapabilityPlayback)
}

// MarkerKind distinguishes interruption window types.
type MarkerKind string

// Marker kinds.
const (
	MarkerIntro   MarkerKind = "intro"
	MarkerCredits MarkerKind = "credits"
	// MarkerEnding is the final credits window of an item. Reaching it
	// advances the player to the next item instead of seeking.
	MarkerEnding MarkerKind = "ending"
)

// IntroMarker describes one interruption window of an item.
type IntroMarker struct {
	ItemID string
	Kind   MarkerKind
	Start  time.Duration
	End    time.Duration
	// Final is set on the credits window that runs to the end of the item.
	Final bool
}

// Contains reports whether pos lies in [Start, End).
func (m IntroMarker) Contains(pos time.Duration) bool {
	return pos >= m.Start && pos < m.End
}

func (m IntroMarker) String() string {
	return fmt.Sprintf("%s[%s,%s)", m.Kind, m.Start, m.End)
}

func (m IntroMarker) key() windowKey {
	return windowKey{start: m.Start, end: m.End}
}

type windowKey struct {
	start time.Duration
	end   time.Duration
}

// windowMark records that a window was dealt with, either by a dispatched
// seek or by the position passing its end.
type windowMark struct {
	marker     IntroMarker
	at         time.Time
	dispatched bool
}

// RawEvent is a notification as delivered by the notification source.
type RawEvent struct {
	SessionID  string
	ItemID     string
	PlayerID   string
	Position   time.Duration
	State      string
	ReceivedAt time.Time
}

// Update is a canonical session-state update produced by the Normalizer.
type Update struct {
	SessionID  string
	ItemID     string
	Player     Player
	Position   time.Duration
	State      PlayState
	ObservedAt time.Time

	// Informational marks a regression within the staleness tolerance; the
	// stored position is kept.
	Informational bool
	// Seek marks a regression beyond the tolerance.
	Seek bool
	// Extrapolated marks a synthetic update; it does not count as liveness.
	Extrapolated bool
}

// PlaybackSession is a snapshot of one active playback session.
type PlaybackSession struct {
	SessionID  string
	ItemID     string
	PlayerID   string
	PlayerKind PlayerKind
	Position   time.Duration
	State      PlayState
	FirstSeen  time.Time
	LastSeen   time.Time
	Generation uint64

	windows map[windowKey]windowMark
}

// Skipped reports whether window m has been skipped or passed for the current item.
func (s PlaybackSession) Skipped(m IntroMarker) bool {
	_, ok := s.windows[m.key()]
	return ok
}

// SkippedAt returns when window m was marked.
func (s PlaybackSession) SkippedAt(m IntroMarker) (time.Time, bool) {
	mark, ok := s.windows[m.key()]
	return mark.at, ok
}

// SkippedWindows returns the marked windows ordered by start offset.
func (s PlaybackSession) SkippedWindows() []IntroMarker {
	out := make([]IntroMarker, 0, len(s.windows))
	for _, mark := range s.windows {
		out = append(out, mark.marker)
	}
	slices.SortFunc(out, func(a, b IntroMarker) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return out
}

// DispatchedCount returns how many windows were closed by a seek command.
func (s PlaybackSession) DispatchedCount() int {
	n := 0
	for _, mark := range s.windows {
		if mark.dispatched {
			n++
		}
	}
	return n
}

func (s PlaybackSession) clone() PlaybackSession {
	s.windows = maps.Clone(s.windows)
	return s
}
