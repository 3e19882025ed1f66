/*
Package handler provides the HTTP gateway in front of the hub.

This file contains the WebSocket bridge: it upgrades an HTTP request and runs
the resulting connection as a hub session speaking the same packet protocol
as the raw TCP side, one packet per text frame. TCP and WebSocket sessions
share one hub, one registry, one message log, and one id space.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"relayhub/internal/app/chat"
	"relayhub/internal/configs"
	"relayhub/internal/pkg/errs"
	"relayhub/internal/pkg/limiter"
	"relayhub/internal/pkg/logx"
)

// HandleWebSocket creates the HandlerFunc bridging WebSocket connections into the hub.
func HandleWebSocket(hub *chat.Hub, cfg *configs.AppConfig, upgrader websocket.Upgrader, connectLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !connectLimiter.Allow(r.RemoteAddr) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "remote_addr", r.RemoteAddr)
			respondError(w, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		logx.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

		transport := newWSConn(conn, cfg.ReadIdleTimeout)
		session := chat.NewSession(hub, transport)

		go session.WritePump()

		hub.Attach(session)

		session.ReadPump()
	}
}
