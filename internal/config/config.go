// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Source values for PlexConfig.Source
const (
	SourceWebSocket = "websocket"
	SourcePoll      = "poll"
)

// Config holds all application configuration
type Config struct {
	Plex       PlexConfig       `koanf:"plex"`
	Skip       SkipConfig       `koanf:"skip"`
	Server     ServerConfig     `koanf:"server"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// PlexConfig holds Plex Media Server connection settings
type PlexConfig struct {
	// URL is the server base URL, e.g. http://192.168.1.10:32400
	URL string `koanf:"url" validate:"required,url"`

	// Token is the X-Plex-Token. Acquiring it is up to the operator.
	Token string `koanf:"token" validate:"required"`

	// ClientIdentifier is sent as X-Plex-Client-Identifier. Generated when empty.
	ClientIdentifier string `koanf:"client_identifier"`

	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`

	// CommandInterval is the minimum spacing between player commands.
	CommandInterval time.Duration `koanf:"command_interval" validate:"gte=0"`

	MaxRetries int `koanf:"max_retries" validate:"gte=0,lte=10"`

	// Source selects the notification source: websocket (default) or poll.
	Source string `koanf:"source" validate:"oneof=websocket poll"`

	PollInterval    time.Duration `koanf:"poll_interval" validate:"gt=0"`
	PollMaxFailures int           `koanf:"poll_max_failures" validate:"gte=1"`

	PingInterval time.Duration `koanf:"ping_interval" validate:"gt=0"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"gt=0"`

	// Breaker wraps Plex calls in a circuit breaker.
	Breaker bool `koanf:"breaker"`
}

// SkipConfig holds skip engine settings
type SkipConfig struct {
	// Tolerance is the largest backwards position jump treated as a stale
	// report rather than a user seek.
	Tolerance time.Duration `koanf:"tolerance" validate:"gte=0"`

	// Staleness is how long after a skip a standard player's rewind is still
	// attributed to stale reports. CastStaleness applies to cast receivers.
	Staleness     time.Duration `koanf:"staleness" validate:"gte=0"`
	CastStaleness time.Duration `koanf:"cast_staleness" validate:"gte=0"`

	MarkerTTL       time.Duration `koanf:"marker_ttl" validate:"gt=0"`
	MarkerCacheSize int           `koanf:"marker_cache_size" validate:"gte=1"`

	PlayerTTL             time.Duration `koanf:"player_ttl" validate:"gt=0"`
	PlayerRefreshInterval time.Duration `koanf:"player_refresh_interval" validate:"gte=0"`

	FetchTimeout    time.Duration `koanf:"fetch_timeout" validate:"gt=0"`
	DispatchTimeout time.Duration `koanf:"dispatch_timeout" validate:"gt=0"`

	LivenessTimeout time.Duration `koanf:"liveness_timeout" validate:"gt=0"`
	SweepInterval   time.Duration `koanf:"sweep_interval" validate:"gte=0"`

	// ExtrapolationInterval of 0 disables position extrapolation.
	ExtrapolationInterval time.Duration `koanf:"extrapolation_interval" validate:"gte=0"`
	MaxExtrapolation      time.Duration `koanf:"max_extrapolation" validate:"gte=0"`

	// SkipCredits adds credits markers as skip windows.
	SkipCredits bool `koanf:"skip_credits"`
	// SkipToNext sends the player to the next item when it reaches the
	// final credits marker.
	SkipToNext bool `koanf:"skip_to_next"`

	MailboxSize       int           `koanf:"mailbox_size" validate:"gte=1"`
	WorkerIdleTimeout time.Duration `koanf:"worker_idle_timeout" validate:"gt=0"`
}

// ServerConfig holds diagnostics HTTP server settings
type ServerConfig struct {
	Enabled bool          `koanf:"enabled"`
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// CORSOrigins lists browser origins allowed to read the API. Empty
	// disables cross-origin access.
	CORSOrigins []string `koanf:"cors_origins" validate:"dive,url"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SupervisorConfig holds suture supervision tree settings
type SupervisorConfig struct {
	// FailureThreshold is the number of failures (after decay) that puts the
	// supervisor into backoff.
	FailureThreshold float64 `koanf:"failure_threshold" validate:"gt=0"`

	// FailureDecay is the decay rate of failures, in seconds.
	FailureDecay float64 `koanf:"failure_decay" validate:"gt=0"`

	FailureBackoff  time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// String summarizes the configuration for startup logs with the token redacted.
func (c *Config) String() string {
	return fmt.Sprintf("plex=%s source=%s tolerance=%s staleness=%s/%s credits=%t next=%t diagnostics=%t",
		c.Plex.URL, c.Plex.Source, c.Skip.Tolerance, c.Skip.Staleness, c.Skip.CastStaleness,
		c.Skip.SkipCredits, c.Skip.SkipToNext, c.Server.Enabled)
}
