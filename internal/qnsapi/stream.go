// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package qnsapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// websocketUpgrader wraps gorilla/websocket's Upgrader behind a small
// named type so call sites don't repeat the buffer-size/origin-check
// configuration at every upgrade call.
type websocketUpgrader struct {
	upgrader websocket.Upgrader
}

func newWebsocketUpgrader() websocketUpgrader {
	return websocketUpgrader{upgrader: websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Admin API is bound to loopback/management network in
		// practice; a dashboard running from a different origin during
		// local development is expected.
		CheckOrigin: func(r *http.Request) bool { return true },
	}}
}

const (
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
)

// handleStream upgrades to a websocket and relays every publication
// from the named engine's ResultChannel until the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	key, ok := s.engineKeyFromRequest(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "invalid slot or session")
		return
	}
	e, ok := s.registry.engines[key]
	if !ok {
		WriteError(w, http.StatusNotFound, "no such engine")
		return
	}

	conn, err := s.upgrader.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := e.Subscribe()
	defer e.Unsubscribe(sub)

	if info, published := e.LastNotified(); published {
		if err := writeJSON(conn, info); err != nil {
			return
		}
	}

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case info, ok := <-sub.C():
			if !ok {
				return
			}
			if err := writeJSON(conn, info); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteMessage(websocket.TextMessage, body)
}
