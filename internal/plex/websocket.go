// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package plex

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/autoskip/internal/logging"
	"github.com/tomtom215/autoskip/internal/models"
	"github.com/tomtom215/autoskip/internal/skip"
)

// NotificationConfig configures the WebSocket notification source.
type NotificationConfig struct {
	BaseURL string
	Token   string

	// HandshakeTimeout bounds the WebSocket upgrade.
	HandshakeTimeout time.Duration

	// ReadTimeout is how long the connection may stay silent (no message,
	// no pong) before it is considered dead.
	ReadTimeout time.Duration

	// PingInterval is the keepalive period. Must be shorter than ReadTimeout.
	PingInterval time.Duration

	// Buffer is the number of decoded events held ahead of the consumer.
	Buffer int
}

// DefaultNotificationConfig returns production defaults for the given server.
func DefaultNotificationConfig(baseURL, token string) NotificationConfig {
	return NotificationConfig{
		BaseURL:          baseURL,
		Token:            token,
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		Buffer:           64,
	}
}

// NotificationSource reads playback notifications from Plex's WebSocket
// endpoint (/:/websockets/notifications) and yields them as skip.RawEvent.
//
// A source represents one connection. It does not reconnect: when the
// connection breaks, Next returns an error wrapping skip.ErrStreamDisrupted
// and the owner dials a fresh source.
type NotificationSource struct {
	conn   *websocket.Conn
	logger zerolog.Logger

	events chan skip.RawEvent
	stop   chan struct{}
	done   chan struct{}
	err    error // set before done is closed

	readTimeout  time.Duration
	pingInterval time.Duration

	closeOnce sync.Once
	failOnce  sync.Once
	wg        sync.WaitGroup
}

// DialNotifications connects to the Plex notification WebSocket and starts
// reading. Call Close when done.
func DialNotifications(ctx context.Context, cfg NotificationConfig) (*NotificationSource, error) {
	def := DefaultNotificationConfig(cfg.BaseURL, cfg.Token)
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.ReadTimeout {
		cfg.PingInterval = cfg.ReadTimeout / 2
	}
	if cfg.Buffer < 0 {
		cfg.Buffer = 0
	}

	wsURL, err := buildWebSocketURL(cfg.BaseURL, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("build websocket url: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout:  cfg.HandshakeTimeout,
		EnableCompression: true,
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	s := &NotificationSource{
		conn:         conn,
		logger:       logging.WithComponent("plex-websocket"),
		events:       make(chan skip.RawEvent, cfg.Buffer),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
		readTimeout:  cfg.ReadTimeout,
		pingInterval: cfg.PingInterval,
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	})

	s.wg.Add(2)
	go s.listen()
	go s.pingLoop()

	s.logger.Info().Str("server", logging.RedactURL(cfg.BaseURL)).Msg("Plex WebSocket connected")
	return s, nil
}

// buildWebSocketURL constructs the Plex WebSocket URL with authentication
//
// Format: ws://{host}:{port}/:/websockets/notifications?X-Plex-Token={token}
func buildWebSocketURL(baseURL, token string) (string, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if parsedURL.Host == "" {
		return "", fmt.Errorf("base url %q has no host", baseURL)
	}

	scheme := "ws"
	if parsedURL.Scheme == "https" {
		scheme = "wss"
	}

	wsURL := url.URL{
		Scheme: scheme,
		Host:   parsedURL.Host,
		Path:   "/:/websockets/notifications",
	}
	q := wsURL.Query()
	q.Set("X-Plex-Token", token)
	wsURL.RawQuery = q.Encode()

	return wsURL.String(), nil
}

// Next returns the next playback notification. Events already received are
// delivered before the disconnect error.
func (s *NotificationSource) Next(ctx context.Context) (skip.RawEvent, error) {
	select {
	case ev := <-s.events:
		return ev, nil
	case <-ctx.Done():
		return skip.RawEvent{}, ctx.Err()
	case <-s.done:
		select {
		case ev := <-s.events:
			return ev, nil
		default:
			return skip.RawEvent{}, s.err
		}
	}
}

// Done is closed when the connection ends.
func (s *NotificationSource) Done() <-chan struct{} {
	return s.done
}

// Close sends a close frame, closes the connection and waits for the
// background goroutines. Safe to call more than once.
func (s *NotificationSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		if werr := s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		); werr != nil {
			s.logger.Debug().Err(werr).Msg("Plex WebSocket: failed to send close message")
		}
		err = s.conn.Close()
		s.wg.Wait()
		s.fail(fmt.Errorf("%w: source closed", skip.ErrStreamDisrupted))
		s.logger.Info().Msg("Plex WebSocket connection closed")
	})
	return err
}

func (s *NotificationSource) fail(err error) {
	s.failOnce.Do(func() {
		s.err = err
		close(s.done)
	})
}

// listen reads messages until the connection breaks or Close is called.
func (s *NotificationSource) listen() {
	defer s.wg.Done()

	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			s.logger.Debug().Err(err).Msg("Plex WebSocket: failed to set read deadline")
		}
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stop:
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Info().Msg("Plex WebSocket closed by server")
				} else {
					s.logger.Warn().Err(err).Msg("Plex WebSocket read error")
				}
			}
			s.fail(fmt.Errorf("%w: %w", skip.ErrStreamDisrupted, err))
			return
		}

		for _, ev := range s.decode(message) {
			select {
			case s.events <- ev:
			case <-s.stop:
				return
			}
		}
	}
}

// decode turns a notification message into raw events. Only "playing"
// notifications carry playback state; everything else is ignored.
//
// Message Format:
//
//	{
//	  "NotificationContainer": {
//	    "type": "playing",
//	    "PlaySessionStateNotification": [...]
//	  }
//	}
func (s *NotificationSource) decode(data []byte) []skip.RawEvent {
	var wrapper models.PlexNotificationWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to parse Plex notification")
		return nil
	}

	container := wrapper.NotificationContainer
	if container.Type != models.NotificationPlaying {
		return nil
	}

	now := time.Now()
	events := make([]skip.RawEvent, 0, len(container.PlaySessionStateNotification))
	for i := range container.PlaySessionStateNotification {
		n := &container.PlaySessionStateNotification[i]
		events = append(events, skip.RawEvent{
			SessionID:  n.SessionKey,
			ItemID:     n.RatingKey,
			PlayerID:   n.ClientIdentifier,
			Position:   millis(n.ViewOffset),
			State:      n.GetPlaybackState(),
			ReceivedAt: now,
		})
	}
	return events
}

// pingLoop keeps the connection alive and detects dead peers. A failed ping
// closes the socket, which ends listen with a read error.
func (s *NotificationSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				s.logger.Warn().Err(err).Msg("Plex WebSocket ping failed")
				_ = s.conn.Close()
				return
			}
			s.logger.Trace().Msg("Plex WebSocket ping sent")
		}
	}
}
