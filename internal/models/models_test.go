// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestPlexNotificationDecode(t *testing.T) {
	t.Parallel()
	payload := `{"NotificationContainer":{"type":"playing","size":1,"PlaySessionStateNotification":[
		{"sessionKey":"12","clientIdentifier":"abc","guid":"","ratingKey":"5001","url":"","key":"/library/metadata/5001","viewOffset":35120,"playQueueItemID":3,"state":"playing"}]}}`

	var w PlexNotificationWrapper
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	c := w.NotificationContainer
	if c.Type != NotificationPlaying || len(c.PlaySessionStateNotification) != 1 {
		t.Fatalf("container = %+v", c)
	}
	n := c.PlaySessionStateNotification[0]
	if n.SessionKey != "12" || n.ClientIdentifier != "abc" || n.RatingKey != "5001" || n.ViewOffset != 35120 {
		t.Errorf("notification = %+v", n)
	}
}

func TestPlexPlayingNotificationState(t *testing.T) {
	t.Parallel()
	tests := []struct {
		state     string
		stopped   bool
		buffering bool
	}{
		{"playing", false, false},
		{"Stopped", true, false},
		{" buffering ", false, true},
		{"paused", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			t.Parallel()
			n := PlexPlayingNotification{State: tt.state}
			if n.IsStopped() != tt.stopped || n.IsBuffering() != tt.buffering {
				t.Errorf("IsStopped=%v IsBuffering=%v", n.IsStopped(), n.IsBuffering())
			}
		})
	}
}

func TestFlexInt64(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    FlexInt64
		wantErr bool
	}{
		{`35120`, 35120, false},
		{`"35120"`, 35120, false},
		{`35120.0`, 35120, false},
		{`null`, 0, false},
		{`""`, 0, false},
		{`"abc"`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			var v struct {
				V FlexInt64 `json:"v"`
			}
			err := json.Unmarshal([]byte(`{"v":`+tt.in+`}`), &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && v.V != tt.want {
				t.Errorf("got %d, want %d", v.V, tt.want)
			}
		})
	}
}

func TestFlexBool(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want FlexBool
	}{
		{`true`, true},
		{`"1"`, true},
		{`1`, true},
		{`false`, false},
		{`"0"`, false},
		{`null`, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			var v struct {
				V FlexBool `json:"v"`
			}
			if err := json.Unmarshal([]byte(`{"v":`+tt.in+`}`), &v); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if v.V != tt.want {
				t.Errorf("got %v, want %v", v.V, tt.want)
			}
		})
	}
}

func TestPlexClientCapabilities(t *testing.T) {
	t.Parallel()
	payload := `{"MediaContainer":{"size":2,"Server":[
		{"name":"Living Room","host":"192.168.1.20","address":"192.168.1.20","port":32500,"machineIdentifier":"tv-1","product":"Plex for Android (TV)","protocolCapabilities":"timeline, playback,navigation,,playqueues"},
		{"name":"Kitchen","address":"192.168.1.30","port":"8009","machineIdentifier":"cc-1","product":"Plex for Chromecast","protocolCapabilities":"timeline,playback"}]}}`

	var resp PlexClientsResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	clients := resp.MediaContainer.Server
	if len(clients) != 2 {
		t.Fatalf("clients = %+v", clients)
	}
	caps := clients[0].Capabilities()
	want := []string{"timeline", "playback", "navigation", "playqueues"}
	if len(caps) != len(want) {
		t.Fatalf("Capabilities() = %v, want %v", caps, want)
	}
	for i := range want {
		if caps[i] != want[i] {
			t.Errorf("capability %d = %q, want %q", i, caps[i], want[i])
		}
	}
	if clients[0].IsCast() {
		t.Error("Android TV client reported as cast")
	}
	if !clients[1].IsCast() || clients[1].Port != 8009 {
		t.Errorf("chromecast client = %+v", clients[1])
	}
}

func TestPlexMetadataMarkers(t *testing.T) {
	t.Parallel()
	payload := `{"MediaContainer":{"size":1,"Metadata":[{"ratingKey":"5001","type":"episode","title":"Pilot","duration":2700000,
		"Marker":[{"id":1,"type":"intro","startTimeOffset":30000,"endTimeOffset":60000},
		          {"id":2,"type":"credits","startTimeOffset":2600000,"endTimeOffset":2700000,"final":true},
		          {"id":3,"type":"intro","startTimeOffset":90000,"endTimeOffset":90000}]}]}}`

	var resp PlexMetadataResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	markers := resp.MediaContainer.Metadata[0].Marker
	if len(markers) != 3 {
		t.Fatalf("markers = %+v", markers)
	}
	if !markers[0].Valid() || markers[0].Type != MarkerTypeIntro {
		t.Errorf("marker 0 = %+v", markers[0])
	}
	if !bool(markers[1].Final) {
		t.Error("credits marker should be final")
	}
	if markers[2].Valid() {
		t.Error("empty window reported valid")
	}
}

func TestPlexSessionHelpers(t *testing.T) {
	t.Parallel()
	s := PlexSession{Type: "track"}
	if !s.IsMusic() || s.PlayerState() != "" {
		t.Errorf("helpers on %+v", s)
	}
	s = PlexSession{Type: "episode", Player: &PlexSessionPlayer{State: "paused"}}
	if s.IsMusic() || s.PlayerState() != "paused" {
		t.Errorf("helpers on %+v", s)
	}
}
