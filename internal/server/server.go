/*
Package server implements the raw TCP side of the hub: binding the listen
socket, accepting connections, and handing each one to a chat session.

Each accepted connection gets a framed packet transport, a sender goroutine,
and a receive loop; from there the session's lifecycle belongs to the chat
package. Accepts are gated by a per-IP token bucket.
*/
package server

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"relayhub/internal/app/chat"
	"relayhub/internal/configs"
	"relayhub/internal/pkg/limiter"
	"relayhub/internal/pkg/logx"
	"relayhub/internal/protocol"
)

const (
	// acceptRate and acceptBurst bound how fast one IP may open connections.
	acceptRate  = 1.0
	acceptBurst = 5
)

// Server owns the TCP listener feeding sessions into the hub.
type Server struct {
	cfg *configs.AppConfig
	hub *chat.Hub

	acceptLimiter *limiter.IPRateLimiter

	ln net.Listener
	wg sync.WaitGroup

	// structured logger with listener context.
	logger zerolog.Logger
}

// New constructs a Server for the given hub. Call Listen before Serve.
func New(cfg *configs.AppConfig, hub *chat.Hub) *Server {
	serverLogger := logx.Logger().With().Str("component", "tcp_listener").Logger()

	return &Server{
		cfg:           cfg,
		hub:           hub,
		acceptLimiter: limiter.NewIPRateLimiter(rate.Limit(acceptRate), acceptBurst),
		logger:        serverLogger,
	}
}

// Listen binds the configured TCP address. A bind failure is the one error in
// the system that should terminate the process; it is returned to the caller.
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.TCPAddr, s.cfg.TCPPort)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.ln = ln
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("TCP listener bound")
	return nil
}

// Addr returns the bound listen address. Valid only after Listen.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until the listener is closed. Accept errors on a
// live listener are logged and survived; nothing here is fatal to the hub.
func (s *Server) Serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.logger.Info().Msg("TCP listener closed, accept loop exiting")
				return
			}

			s.logger.Warn().Err(err).Msg("Accept failed")
			continue
		}

		remote := conn.RemoteAddr().String()

		if !s.acceptLimiter.Allow(remote) {
			s.logger.Warn().Str("remote_addr", remote).Msg("Connection rejected: rate limit exceeded")
			_ = conn.Close()
			continue
		}

		s.logger.Info().Str("remote_addr", remote).Msg("Connection accepted")

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn runs one connection's lifecycle: session creation, registration
// with the hub, and the blocking receive loop.
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()

	transport := protocol.NewStreamConn(conn, s.cfg.ReadIdleTimeout)
	session := chat.NewSession(s.hub, transport)

	go session.WritePump()

	s.hub.Attach(session)

	session.ReadPump()
}

// Shutdown closes the listener, stops the hub (which closes every live
// session), and waits for in-flight connection handlers to drain.
func (s *Server) Shutdown() {
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn().Err(err).Msg("Listener close error")
		}
	}

	s.hub.Stop()

	s.wg.Wait()
	s.logger.Info().Msg("TCP server shutdown complete")
}
