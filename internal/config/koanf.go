// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/autoskip/config.yaml",
	"/etc/autoskip/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Plex: PlexConfig{
			URL:             "",
			Token:           "",
			RequestTimeout:  10 * time.Second,
			CommandInterval: 250 * time.Millisecond,
			MaxRetries:      3,
			Source:          SourceWebSocket,
			PollInterval:    time.Second,
			PollMaxFailures: 5,
			PingInterval:    30 * time.Second,
			ReadTimeout:     60 * time.Second,
			Breaker:         true,
		},
		Skip: SkipConfig{
			Tolerance:             10 * time.Second,
			Staleness:             2 * time.Second,
			CastStaleness:         10 * time.Second,
			MarkerTTL:             6 * time.Hour,
			MarkerCacheSize:       1000,
			PlayerTTL:             time.Minute,
			PlayerRefreshInterval: 5 * time.Second,
			FetchTimeout:          5 * time.Second,
			DispatchTimeout:       5 * time.Second,
			LivenessTimeout:       5 * time.Minute,
			SweepInterval:         30 * time.Second,
			ExtrapolationInterval: time.Second,
			MaxExtrapolation:      15 * time.Second,
			SkipCredits:           false,
			SkipToNext:            false,
			MailboxSize:           64,
			WorkerIdleTimeout:     30 * time.Second,
		},
		Server: ServerConfig{
			Enabled:         true,
			Host:            "0.0.0.0",
			Port:            8089,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence: ENV > File > Defaults. The result is validated.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// PLEX_URL -> plex.url, SKIP_TOLERANCE -> skip.tolerance
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	// Plex
	"plex_url":               "plex.url",
	"plex_token":             "plex.token",
	"plex_client_identifier": "plex.client_identifier",
	"plex_request_timeout":   "plex.request_timeout",
	"plex_command_interval":  "plex.command_interval",
	"plex_max_retries":       "plex.max_retries",
	"plex_source":            "plex.source",
	"plex_poll_interval":     "plex.poll_interval",
	"plex_poll_max_failures": "plex.poll_max_failures",
	"plex_ping_interval":     "plex.ping_interval",
	"plex_read_timeout":      "plex.read_timeout",
	"plex_breaker":           "plex.breaker",

	// Skip engine
	"skip_tolerance":               "skip.tolerance",
	"skip_staleness":               "skip.staleness",
	"skip_cast_staleness":          "skip.cast_staleness",
	"skip_marker_ttl":              "skip.marker_ttl",
	"skip_marker_cache_size":       "skip.marker_cache_size",
	"skip_player_ttl":              "skip.player_ttl",
	"skip_player_refresh_interval": "skip.player_refresh_interval",
	"skip_fetch_timeout":           "skip.fetch_timeout",
	"skip_dispatch_timeout":        "skip.dispatch_timeout",
	"skip_liveness_timeout":        "skip.liveness_timeout",
	"skip_sweep_interval":          "skip.sweep_interval",
	"skip_extrapolation_interval":  "skip.extrapolation_interval",
	"skip_max_extrapolation":       "skip.max_extrapolation",
	"skip_credits":                 "skip.skip_credits",
	"skip_to_next":                 "skip.skip_to_next",
	"skip_mailbox_size":            "skip.mailbox_size",
	"skip_worker_idle_timeout":     "skip.worker_idle_timeout",

	// Diagnostics server
	"http_enabled":        "server.enabled",
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",
	"http_cors_origins":   "server.cors_origins",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - PLEX_URL -> plex.url
//   - SKIP_CREDITS -> skip.skip_credits
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
