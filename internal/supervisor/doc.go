// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
Package supervisor provides the suture v4 supervision tree for autoskip.

# Tree Layout

	autoskip (root)
	├── ingest-layer
	│   └── plex-websocket | plex-poll (MonitorService)
	├── maintenance-layer
	│   ├── marker-cache-cleanup (PeriodicService)
	│   └── player-refresh (PeriodicService)
	└── api-layer
	    └── diagnostics-http (HTTPServerService)

Each layer is its own supervisor, so a notification source that keeps
failing backs off without restarting the diagnostics server.

# Failure Handling

A service that returns is restarted. After FailureThreshold failures (decayed
at FailureDecay per second) the supervisor waits FailureBackoff before the
next restart. Supervisor events are logged through sutureslog; main passes
logging.NewSlogLogger() so they share the zerolog stream.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    FailureThreshold: cfg.Supervisor.FailureThreshold,
	    FailureDecay:     cfg.Supervisor.FailureDecay,
	    FailureBackoff:   cfg.Supervisor.FailureBackoff,
	    ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	tree.AddIngestService(services.NewMonitorService("plex-websocket", open, monitor))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))
	err = tree.Serve(ctx)
*/
package supervisor
