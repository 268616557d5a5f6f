// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandlerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		slog slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
		{slog.LevelError + 4, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.slog); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.slog, got, tt.want)
		}
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	t.Parallel()

	h := NewSlogHandlerWithLogger(zerolog.New(nil).Level(zerolog.WarnLevel))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled on a warn logger")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled on a warn logger")
	}
}

func TestSlogHandlerAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))
	logger = logger.WithGroup("svc").With("supervisor", "autoskip")

	logger.Warn("service failed",
		"name", "monitor",
		"restarts", 3,
		"backoff", 15*time.Second,
		"err", errors.New("stream disrupted"),
		slog.Group("cause", "code", 1006),
	)

	out := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"message":"service failed"`,
		`"svc.supervisor":"autoskip"`,
		`"svc.name":"monitor"`,
		`"svc.restarts":3`,
		`"svc.err":"stream disrupted"`,
		`"svc.cause.code":1006`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output = %s, missing %s", out, want)
		}
	}
}

func TestNewSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { Init(DefaultConfig()) })

	NewSlogLogger().Info("bridged", "k", "v")

	if !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("output = %s", buf.String())
	}
}
