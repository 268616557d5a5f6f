// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
Package models defines the Plex Media Server wire structures used by autoskip
and the diagnostics API payloads.

Plex serves every endpoint as XML by default and as JSON when the request
carries Accept: application/json. All structures here map the JSON form.

Model Categories:

 1. WebSocket notifications (/:/websockets/notifications):
    - PlexNotificationWrapper / PlexNotificationContainer
    - PlexPlayingNotification: playback state changes, one per session

 2. Session listing (/status/sessions):
    - PlexSessionsResponse / PlexSession / PlexSessionPlayer

 3. Advertised players (/clients):
    - PlexClientsResponse / PlexClient

 4. Item metadata with markers (/library/metadata/{ratingKey}?includeMarkers=1):
    - PlexMetadataResponse / PlexMetadataItem / PlexMarker

 5. Diagnostics API (internal/api):
    - APIResponse / Metadata / APIError envelope
    - HealthStatus, SessionView, PlayerView payloads
    - SkipEvent, pushed over the /api/v1/events WebSocket

Plex is inconsistent about scalar encodings across versions and endpoints
(for example "1" versus 1 versus true), so a few fields use the FlexInt64 and
FlexBool helper types which accept either form.
*/
package models
