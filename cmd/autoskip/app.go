// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/autoskip/internal/api"
	"github.com/tomtom215/autoskip/internal/config"
	"github.com/tomtom215/autoskip/internal/logging"
	"github.com/tomtom215/autoskip/internal/models"
	"github.com/tomtom215/autoskip/internal/plex"
	"github.com/tomtom215/autoskip/internal/skip"
	"github.com/tomtom215/autoskip/internal/supervisor/services"
	"github.com/tomtom215/autoskip/internal/websocket"
)

// plexAPI is the Plex surface the skip components use. Satisfied by
// *plex.Client and *plex.BreakerClient.
type plexAPI interface {
	FetchMarkers(ctx context.Context, itemID string) ([]skip.IntroMarker, error)
	ListPlayers(ctx context.Context) ([]skip.Player, error)
	Sessions(ctx context.Context) ([]models.PlexSession, error)
	Seek(ctx context.Context, playerID string, position time.Duration) error
	SkipNext(ctx context.Context, playerID string) error
}

// app holds the wired components.
type app struct {
	cfg *config.Config

	plex    plexAPI
	breaker *plex.BreakerClient // nil when PLEX_BREAKER=false

	markers  *skip.MarkerCache
	players  *skip.PlayerDirectory
	registry *skip.Registry
	monitor  *skip.Monitor

	monitorService *services.MonitorService
	events         *websocket.Hub // nil when the diagnostics server is disabled
}

func newApp(cfg *config.Config) *app {
	a := &app{cfg: cfg}

	clientCfg := plex.DefaultClientConfig(cfg.Plex.URL, cfg.Plex.Token)
	clientCfg.ClientIdentifier = cfg.Plex.ClientIdentifier
	clientCfg.Timeout = cfg.Plex.RequestTimeout
	clientCfg.CommandInterval = cfg.Plex.CommandInterval
	clientCfg.MaxRetries = cfg.Plex.MaxRetries
	client := plex.NewClient(clientCfg)
	logging.Info().Str("client_identifier", client.ClientIdentifier()).Msg("Plex client configured")

	a.plex = client
	if cfg.Plex.Breaker {
		a.breaker = plex.NewBreakerClient(client)
		a.plex = a.breaker
	}

	kinds := []skip.MarkerKind{skip.MarkerIntro}
	if cfg.Skip.SkipCredits {
		kinds = append(kinds, skip.MarkerCredits)
	}
	if cfg.Skip.SkipToNext {
		kinds = append(kinds, skip.MarkerEnding)
	}
	a.markers = skip.NewMarkerCache(a.plex, skip.MarkerCacheConfig{
		TTL:          cfg.Skip.MarkerTTL,
		Capacity:     cfg.Skip.MarkerCacheSize,
		FetchTimeout: cfg.Skip.FetchTimeout,
		Kinds:        kinds,
	})

	a.players = skip.NewPlayerDirectory(a.plex, skip.PlayerDirectoryConfig{
		TTL:             cfg.Skip.PlayerTTL,
		RefreshInterval: cfg.Skip.PlayerRefreshInterval,
		FetchTimeout:    cfg.Skip.FetchTimeout,
	})

	a.registry = skip.NewRegistry(skip.RegistryConfig{
		Tolerance: cfg.Skip.Tolerance,
		Staleness: skip.StalenessPolicy{
			Default: cfg.Skip.Staleness,
			Cast:    cfg.Skip.CastStaleness,
		},
	})

	normalizer := skip.NewNormalizer(a.players, a.registry, cfg.Skip.Tolerance)
	dispatcher := skip.NewDispatcher(a.plex, a.registry, cfg.Skip.DispatchTimeout)
	if cfg.Server.Enabled {
		a.events = websocket.NewHub()
		dispatcher.SetListener(a.events)
	}
	engine := skip.NewEngine(a.registry, a.markers, dispatcher)

	a.monitor = skip.NewMonitor(skip.MonitorConfig{
		LivenessTimeout:       cfg.Skip.LivenessTimeout,
		SweepInterval:         cfg.Skip.SweepInterval,
		ExtrapolationInterval: cfg.Skip.ExtrapolationInterval,
		MaxExtrapolation:      cfg.Skip.MaxExtrapolation,
		MailboxSize:           cfg.Skip.MailboxSize,
		WorkerIdleTimeout:     cfg.Skip.WorkerIdleTimeout,
	}, a.registry, normalizer, engine)

	a.monitorService = services.NewMonitorService("plex-"+cfg.Plex.Source, a.openSource, a.monitor)
	return a
}

// openSource opens one notification source connection. The monitor service
// calls it again after every disruption.
func (a *app) openSource(ctx context.Context) (skip.EventSource, error) {
	if a.cfg.Plex.Source == config.SourcePoll {
		return plex.NewPollingSource(a.plex, plex.PollerConfig{
			Interval:    a.cfg.Plex.PollInterval,
			MaxFailures: a.cfg.Plex.PollMaxFailures,
		}), nil
	}

	notifyCfg := plex.DefaultNotificationConfig(a.cfg.Plex.URL, a.cfg.Plex.Token)
	notifyCfg.HandshakeTimeout = a.cfg.Plex.RequestTimeout
	notifyCfg.PingInterval = a.cfg.Plex.PingInterval
	notifyCfg.ReadTimeout = a.cfg.Plex.ReadTimeout
	notifyCfg.Buffer = a.cfg.Skip.MailboxSize
	return plex.DialNotifications(ctx, notifyCfg)
}

// maintenanceServices returns the periodic upkeep jobs.
func (a *app) maintenanceServices() []suture.Service {
	svcs := []suture.Service{
		services.NewPeriodicService("marker-cache-cleanup", a.cfg.Skip.MarkerTTL/4, func(context.Context) error {
			if n := a.markers.CleanupExpired(); n > 0 {
				logging.Debug().Int("removed", n).Int("remaining", a.markers.Len()).Msg("Expired marker entries removed")
			}
			return nil
		}),
	}
	if a.cfg.Skip.PlayerRefreshInterval > 0 {
		svcs = append(svcs, services.NewPeriodicService("player-refresh", a.cfg.Skip.PlayerRefreshInterval, a.players.Refresh))
	}
	return svcs
}

// router builds the diagnostics HTTP handler.
func (a *app) router() http.Handler {
	deps := api.HandlerDeps{
		Sessions:     a.registry,
		Players:      a.players,
		Stream:       a.monitorService,
		StreamSource: a.cfg.Plex.Source,
	}
	if a.breaker != nil {
		deps.Breaker = a.breaker
	}
	if a.events != nil {
		deps.Events = websocket.NewHandler(a.events, a.cfg.Server.CORSOrigins)
	}

	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = a.cfg.Server.CORSOrigins
	mwCfg.RateLimitRequests = a.cfg.Server.RateLimitReqs
	mwCfg.RateLimitWindow = a.cfg.Server.RateLimitWindow
	mwCfg.RateLimitDisabled = a.cfg.Server.RateLimitDisabled

	return api.NewRouter(api.NewHandler(deps), api.NewChiMiddleware(mwCfg))
}
