// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package skip

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the core components.
var (
	// ErrSessionNotFound is returned when a session is absent from the registry,
	// including when it was removed while an operation was in flight.
	ErrSessionNotFound = errors.New("session not found")

	// ErrIneligiblePlayer is returned for players that are not local or did not
	// advertise remote control.
	ErrIneligiblePlayer = errors.New("player not eligible for remote control")

	// ErrUnknownPlayer is returned when the player directory has no entry for an ID.
	ErrUnknownPlayer = errors.New("player not advertised")

	// ErrMissingField is returned for notifications lacking a required identifier.
	ErrMissingField = errors.New("notification missing required field")

	// ErrUnknownState is returned for an unrecognized play state.
	ErrUnknownState = errors.New("unknown play state")

	// ErrDispatchInFlight is returned when a dispatch for the session is outstanding.
	ErrDispatchInFlight = errors.New("dispatch already in flight for session")

	// ErrWindowChanged is returned when the session moved to another item while
	// a dispatch for the previous item was in flight.
	ErrWindowChanged = errors.New("session item changed")

	// ErrStreamDisrupted is returned by Monitor.Run when the notification source
	// ends. The caller decides whether to reconnect.
	ErrStreamDisrupted = errors.New("notification stream disrupted")
)

// FetchError is a transient failure fetching markers or player state. The
// decision it blocked is deferred to the next event.
type FetchError struct {
	Op  string
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DispatchError is a failed skip command. The window stays armed.
type DispatchError struct {
	SessionID string
	PlayerID  string
	Marker    IntroMarker
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch skip for session %s to player %s (%s): %v",
		e.SessionID, e.PlayerID, e.Marker, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
