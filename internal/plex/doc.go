// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
Package plex binds the skip engine to a Plex Media Server.

# Collaborators

  - Client / BreakerClient: marker metadata (skip.MarkerProvider), advertised
    players (skip.PlayerLister), seek and skip-next commands
    (skip.PlayerController) and
    active sessions (SessionLister).
  - NotificationSource: the /:/websockets/notifications stream as a
    skip.EventSource.
  - PollingSource: /status/sessions polling as a skip.EventSource, for setups
    where the WebSocket is blocked.

# Authentication

Every request carries the X-Plex-Token from configuration. Obtaining a token
is outside this package.

# Usage

	client := plex.NewBreakerClient(plex.NewClient(plex.DefaultClientConfig(url, token)))
	src, err := plex.DialNotifications(ctx, plex.DefaultNotificationConfig(url, token))
	if err != nil {
	    return err
	}
	defer src.Close()
	err = monitor.Run(ctx, src)
*/
package plex
