// Autoskip - Automatic Intro Skipping for Plex Media Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/autoskip

package plex

import (
	"context"
	"net"
	"net/netip"

	"github.com/tomtom215/autoskip/internal/models"
	"github.com/tomtom215/autoskip/internal/skip"
)

// ListPlayers returns the players currently advertising themselves to the
// server for remote control.
//
// Endpoint: GET /clients
//
// Players only appear here when "Advertise as player" is enabled on the
// device. A player counts as local when Plex flags it or when its address
// is private, loopback or link-local.
func (c *Client) ListPlayers(ctx context.Context) ([]skip.Player, error) {
	var resp models.PlexClientsResponse
	if err := c.doJSONRequest(ctx, "clients", "/clients", nil, &resp); err != nil {
		return nil, err
	}

	players := make([]skip.Player, 0, len(resp.MediaContainer.Server))
	for i := range resp.MediaContainer.Server {
		pc := &resp.MediaContainer.Server[i]
		if pc.MachineIdentifier == "" {
			continue
		}
		players = append(players, toPlayer(pc))
	}
	return players, nil
}

func toPlayer(pc *models.PlexClient) skip.Player {
	addr := pc.Address
	if addr == "" {
		addr = pc.Host
	}
	kind := skip.KindStandard
	if pc.IsCast() {
		kind = skip.KindCast
	}
	return skip.Player{
		ID:           pc.MachineIdentifier,
		Name:         pc.Name,
		Product:      pc.Product,
		Address:      addr,
		Capabilities: pc.Capabilities(),
		IsLocal:      bool(pc.Local) || isLocalAddress(addr),
		Kind:         kind,
	}
}

// isLocalAddress reports whether addr (optionally with a port) is on the
// local network.
func isLocalAddress(addr string) bool {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}
