// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/autoskip/internal/models"
	"github.com/tomtom215/autoskip/internal/skip"
)

type fakeStream bool

func (f fakeStream) Connected() bool { return bool(f) }

type fakeBreaker string

func (f fakeBreaker) State() string { return string(f) }

type fakeSessions []skip.PlaybackSession

func (f fakeSessions) ListActive() []skip.PlaybackSession {
	return append([]skip.PlaybackSession(nil), f...)
}

type fakePlayers []skip.Player

func (f fakePlayers) Players() []skip.Player {
	return append([]skip.Player(nil), f...)
}

var base = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

func testSessions() fakeSessions {
	return fakeSessions{
		{SessionID: "s3", ItemID: "300", PlayerID: "tv", State: skip.StatePaused, FirstSeen: base.Add(2 * time.Minute), Position: 90 * time.Second},
		{SessionID: "s1", ItemID: "100", PlayerID: "tv", State: skip.StatePlaying, FirstSeen: base, Position: 30 * time.Second},
		{SessionID: "s2", ItemID: "200", PlayerID: "phone", State: skip.StatePlaying, FirstSeen: base.Add(time.Minute)},
	}
}

func testPlayers() fakePlayers {
	return fakePlayers{
		{ID: "tv", Name: "Living Room", Product: "Plex for Android (TV)", IsLocal: true, Capabilities: []string{skip.CapabilityPlayback}},
		{ID: "cast", Name: "Kitchen", Product: "Chromecast", Kind: skip.KindCast, IsLocal: true, Capabilities: []string{skip.CapabilityPlayback}},
		{ID: "remote", Name: "Away Phone", Product: "Plex for iOS", Capabilities: []string{skip.CapabilityPlayback}},
	}
}

func newTestRouter(deps HandlerDeps) http.Handler {
	if deps.Sessions == nil {
		deps.Sessions = fakeSessions{}
	}
	if deps.Players == nil {
		deps.Players = fakePlayers{}
	}
	return NewRouter(NewHandler(deps), NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true}))
}

// get performs a request and decodes the envelope, leaving Data raw.
func get(t *testing.T, h http.Handler, target string) (int, models.APIResponse, json.RawMessage) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var env struct {
		models.APIResponse
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v (body %q)", target, err, rec.Body.String())
	}
	if env.Metadata.RequestID == "" || env.Metadata.RequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("request ID metadata %q, header %q", env.Metadata.RequestID, rec.Header().Get("X-Request-ID"))
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
	return rec.Code, env.APIResponse, env.Data
}

func TestHealthLive(t *testing.T) {
	t.Parallel()

	code, env, data := get(t, newTestRouter(HandlerDeps{}), "/healthz")
	if code != http.StatusOK || env.Status != "success" {
		t.Errorf("status %d %q", code, env.Status)
	}
	if !strings.Contains(string(data), `"alive":true`) {
		t.Errorf("data = %s", data)
	}
}

func TestHealthReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		stream  StreamStatus
		breaker BreakerStatus
		want    int
	}{
		{"connected without breaker", fakeStream(true), nil, http.StatusOK},
		{"connected breaker closed", fakeStream(true), fakeBreaker("closed"), http.StatusOK},
		{"connected breaker half-open", fakeStream(true), fakeBreaker("half-open"), http.StatusOK},
		{"breaker open", fakeStream(true), fakeBreaker("open"), http.StatusServiceUnavailable},
		{"stream down", fakeStream(false), nil, http.StatusServiceUnavailable},
		{"no stream status", nil, nil, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			router := newTestRouter(HandlerDeps{
				Sessions:     testSessions(),
				Stream:       tt.stream,
				StreamSource: "websocket",
				Breaker:      tt.breaker,
			})
			code, _, data := get(t, router, "/readyz")
			if code != tt.want {
				t.Fatalf("status = %d, want %d", code, tt.want)
			}
			var health models.HealthStatus
			if err := json.Unmarshal(data, &health); err != nil {
				t.Fatal(err)
			}
			if health.ActiveSessions != 3 || health.StreamSource != "websocket" {
				t.Errorf("health = %+v", health)
			}
		})
	}
}

func TestSessions(t *testing.T) {
	t.Parallel()

	router := newTestRouter(HandlerDeps{Sessions: testSessions()})

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"s1", "s2", "s3"}},
		{"?state=playing", []string{"s1", "s2"}},
		{"?state=PAUSED", []string{"s3"}},
		{"?player=tv", []string{"s1", "s3"}},
		{"?limit=1", []string{"s1"}},
		{"?state=buffering", []string{}},
	}
	for _, tt := range tests {
		code, env, data := get(t, router, "/api/v1/sessions"+tt.query)
		if code != http.StatusOK {
			t.Fatalf("%s: status %d", tt.query, code)
		}
		var views []models.SessionView
		if err := json.Unmarshal(data, &views); err != nil {
			t.Fatal(err)
		}
		got := make([]string, 0, len(views))
		for _, v := range views {
			got = append(got, v.SessionID)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("%s: sessions = %v, want %v", tt.query, got, tt.want)
		}
		if env.Metadata.Count == nil || *env.Metadata.Count != len(tt.want) {
			t.Errorf("%s: count = %v", tt.query, env.Metadata.Count)
		}
	}
}

func TestSessionsValidation(t *testing.T) {
	t.Parallel()

	router := newTestRouter(HandlerDeps{Sessions: testSessions()})

	tests := []struct {
		query string
		field string
	}{
		{"?limit=0", "limit"},
		{"?limit=5000", "limit"},
		{"?state=stopped", "state"},
		{"?limit=abc", ""},
	}
	for _, tt := range tests {
		code, env, _ := get(t, router, "/api/v1/sessions"+tt.query)
		if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("%s: status %d error %+v", tt.query, code, env.Error)
			continue
		}
		if tt.field != "" && env.Error.Details[tt.field] == "" {
			t.Errorf("%s: details = %v, missing %s", tt.query, env.Error.Details, tt.field)
		}
	}
}

func TestSessionsSkippedWindows(t *testing.T) {
	t.Parallel()

	registry := skip.NewRegistry(skip.DefaultRegistryConfig())
	s, _ := registry.Upsert(skip.Update{
		SessionID:  "s1",
		ItemID:     "100",
		Player:     skip.Player{ID: "tv", Kind: skip.KindStandard},
		Position:   95 * time.Second,
		State:      skip.StatePlaying,
		ObservedAt: base,
	})
	intro := skip.IntroMarker{ItemID: "100", Kind: skip.MarkerIntro, Start: 10 * time.Second, End: 90 * time.Second}
	if _, err := registry.MarkSkipped("s1", s.Generation, intro, true); err != nil {
		t.Fatal(err)
	}

	_, _, data := get(t, newTestRouter(HandlerDeps{Sessions: registry}), "/api/v1/sessions")
	var views []models.SessionView
	if err := json.Unmarshal(data, &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 {
		t.Fatalf("sessions = %d, want 1", len(views))
	}
	v := views[0]
	if v.Dispatched != 1 || len(v.Skipped) != 1 {
		t.Fatalf("view = %+v", v)
	}
	if w := v.Skipped[0]; w.Kind != "intro" || w.Start != 10 || w.End != 90 {
		t.Errorf("skipped window = %+v", w)
	}
	if v.Position != 95 || v.PlayerKind != skip.KindStandard.String() {
		t.Errorf("view = %+v", v)
	}
}

func TestPlayers(t *testing.T) {
	t.Parallel()

	router := newTestRouter(HandlerDeps{Players: testPlayers()})

	tests := []struct {
		query string
		want  string
	}{
		{"", "Away Phone,Kitchen,Living Room"},
		{"?eligible=true", "Kitchen,Living Room"},
		{"?eligible=false", "Away Phone"},
	}
	for _, tt := range tests {
		code, _, data := get(t, router, "/api/v1/players"+tt.query)
		if code != http.StatusOK {
			t.Fatalf("%s: status %d", tt.query, code)
		}
		var views []models.PlayerView
		if err := json.Unmarshal(data, &views); err != nil {
			t.Fatal(err)
		}
		names := make([]string, 0, len(views))
		for _, v := range views {
			names = append(names, v.Name)
		}
		if strings.Join(names, ",") != tt.want {
			t.Errorf("%s: players = %v, want %s", tt.query, names, tt.want)
		}
	}

	code, _, _ := get(t, router, "/api/v1/players?eligible=maybe")
	if code != http.StatusBadRequest {
		t.Errorf("eligible=maybe status = %d, want 400", code)
	}
}

func TestRouterErrors(t *testing.T) {
	t.Parallel()

	router := newTestRouter(HandlerDeps{})

	code, env, _ := get(t, router, "/api/v1/unknown")
	if code != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("unknown route: %d %+v", code, env.Error)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(HandlerDeps{})
	// Generate at least one instrumented request first.
	get(t, router, "/api/v1/sessions")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "autoskip_api_requests_total") {
		t.Error("metrics output missing autoskip_api_requests_total")
	}
}

func TestEventsRoute(t *testing.T) {
	t.Parallel()

	events := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	newTestRouter(HandlerDeps{Events: events}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("with feed: status = %d, want 418", rec.Code)
	}

	rec = httptest.NewRecorder()
	newTestRouter(HandlerDeps{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("without feed: status = %d, want 404", rec.Code)
	}
}
