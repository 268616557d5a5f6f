// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package plex

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/tomtom215/autoskip/internal/models"
	"github.com/tomtom215/autoskip/internal/skip"
)

// FetchMarkers returns the intro and credits markers of a library item.
//
// Endpoint: GET /library/metadata/{ratingKey}?includeMarkers=1
//
// Markers of other types are ignored. An item the server does not know
// (HTTP 404, e.g. live TV) has no markers. Ordering, overlap and kind
// filtering are left to the marker cache.
func (c *Client) FetchMarkers(ctx context.Context, itemID string) ([]skip.IntroMarker, error) {
	query := url.Values{}
	query.Set("includeMarkers", "1")

	var resp models.PlexMetadataResponse
	err := c.doJSONRequest(ctx, "metadata", "/library/metadata/"+url.PathEscape(itemID), query, &resp)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	var markers []skip.IntroMarker
	for i := range resp.MediaContainer.Metadata {
		item := &resp.MediaContainer.Metadata[i]
		for j := range item.Marker {
			m := &item.Marker[j]
			kind, ok := markerKind(m.Type)
			if !ok || !m.Valid() {
				continue
			}
			markers = append(markers, skip.IntroMarker{
				ItemID: itemID,
				Kind:   kind,
				Start:  millis(m.StartTimeOffset),
				End:    millis(m.EndTimeOffset),
				Final:  kind == skip.MarkerCredits && bool(m.Final),
			})
		}
	}
	return markers, nil
}

func markerKind(t string) (skip.MarkerKind, bool) {
	switch t {
	case models.MarkerTypeIntro:
		return skip.MarkerIntro, true
	case models.MarkerTypeCredits:
		return skip.MarkerCredits, true
	default:
		return "", false
	}
}

func millis(v models.FlexInt64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
