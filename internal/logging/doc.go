// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

/*
Package logging provides the process-wide zerolog logger.

Call Init once from main with the LoggingConfig values; before that a JSON
logger at info level writes to stderr.

	logging.Init(logging.Config{Level: "debug", Format: "console", Timestamp: true})
	logger := logging.WithComponent("skip-engine")
	logger.Info().Str("session", id).Dur("target", end).Msg("Skipping intro")

# Components

Long-lived parts of the process hold a child logger from WithComponent and
tag per-session lines with WithSession. HTTP handlers use Ctx, which adds the
request ID stored by the API middleware.

# Redaction

The Plex token travels in headers and in the notification URL. RedactURL,
RedactToken and RedactError mask it before values reach a log line.

# slog Bridge

NewSlogLogger adapts the zerolog logger to *slog.Logger for sutureslog, so
supervisor restarts and backoff land in the same stream.
*/
package logging
