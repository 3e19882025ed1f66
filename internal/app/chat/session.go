/*
Package chat contains the core logic of the broadcast hub: sessions, the
session registry, validation, and the dispatch of packets to all participants.

This file defines the Session struct, representing one live connection on the
hub side. It owns the connection's lifecycle: the receive loop (ReadPump),
the rate-limited sender loop (WritePump), and the liveness probe used to
confirm a disconnect.
*/
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"relayhub/internal/app/user"
	"relayhub/internal/metrics"
	"relayhub/internal/pkg/errs"
	"relayhub/internal/pkg/logx"
	"relayhub/internal/pkg/randx"
	"relayhub/internal/protocol"
)

// sendQueueSize is the capacity of a session's outbound queue. A recipient
// that falls this far behind starts losing packets.
const sendQueueSize = 256

// Session represents one live connection and, once identified, its user.
type Session struct {
	// id identifies this connection in logs, before and after a user is known.
	id string

	// the hub this session belongs to.
	hub *Hub

	// underlying packet transport (framed TCP or WebSocket).
	conn protocol.Conn

	// usr and registered hold the session's identity; unset until a valid
	// user packet is accepted.
	mu         sync.RWMutex
	usr        user.User
	registered bool

	// send is the bounded outbound queue drained by WritePump.
	send chan protocol.Packet

	// limiter enforces the minimum spacing between transmissions to this peer.
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once

	// structured logger with session context.
	logger zerolog.Logger
}

// NewSession constructs a Session for conn, paced at the hub's send interval.
func NewSession(h *Hub, conn protocol.Conn) *Session {
	sessionID := randx.SessionID()

	sessionLogger := logx.Logger().With().
		Str("session_id", sessionID).
		Str("remote_addr", conn.RemoteAddr().String()).
		Logger()

	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		id:      sessionID,
		hub:     h,
		conn:    conn,
		usr:     user.User{ID: user.UnassignedID},
		send:    make(chan protocol.Packet, sendQueueSize),
		limiter: rate.NewLimiter(intervalLimit(h.sendInterval), 1),
		ctx:     ctx,
		cancel:  cancel,
		logger:  sessionLogger,
	}
}

// intervalLimit converts a minimum send spacing into a token refill rate.
func intervalLimit(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

// ID returns the connection identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// RegisteredUser returns the session's user and whether one is registered.
func (s *Session) RegisteredUser() (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.usr, s.registered
}

// setUser records the accepted identity. Called once, from the hub loop.
func (s *Session) setUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usr = u
	s.registered = true
}

// Enqueue places p on the outbound queue without blocking. When the queue is
// full the packet is dropped and a delivery error returned; one slow receiver
// must never stall a broadcast.
func (s *Session) Enqueue(p protocol.Packet) error {
	select {
	case <-s.ctx.Done():
		return errs.NewError(errs.ErrSessionClosed)
	default:
	}

	select {
	case s.send <- p:
		return nil
	default:
		s.logger.Warn().
			Str("packet_tag", string(p.Tag())).
			Int("queue_len", len(s.send)).
			Msg("Session send queue full, dropping packet")
		return errs.NewError(errs.ErrSendQueueFull)
	}
}

// Probe writes a connection-probe packet directly, bypassing the queue, to
// test whether the peer is still writable. The transport's write lock keeps
// the probe from interleaving with a queued packet mid-frame.
func (s *Session) Probe() error {
	if err := s.conn.WritePacket(protocol.NewProbePacket()); err != nil {
		return errs.NewError(errs.ErrPeerUnreachable)
	}
	return nil
}

// WritePump drains the outbound queue, transmitting one packet at a time with
// the configured minimum spacing between writes. A failed write ends the
// session: the transport is closed, which in turn fails the receive loop and
// triggers the disconnect transition.
func (s *Session) WritePump() {
	defer s.Close()

	for {
		select {
		case <-s.ctx.Done():
			return

		case p := <-s.send:
			if err := s.limiter.Wait(s.ctx); err != nil {
				return
			}

			if err := s.conn.WritePacket(p); err != nil {
				metrics.DeliveryErrors.Inc()
				s.logger.Warn().Err(err).
					Str("packet_tag", string(p.Tag())).
					Msg("Failed to deliver packet")
				return
			}

			metrics.PacketsSent.Inc()
		}
	}
}

// ReadPump receives and dispatches packets until the connection is gone.
// On a failed read or decode it sends a liveness probe: a dead probe confirms
// the peer is unreachable, while a live probe after a malformed packet lets
// the loop skip that frame and keep reading. Either way a transport-level
// read failure is terminal. On exit the session is detached from the hub,
// which broadcasts the departure if the session had registered.
func (s *Session) ReadPump() {
	defer func() {
		s.hub.Detach(s)
		s.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		pkt, err := s.conn.ReadPacket()
		if err != nil {
			if probeErr := s.Probe(); probeErr != nil {
				s.logger.Info().Err(err).Msg("Read failed and liveness probe confirmed peer gone")
				return
			}

			if errs.IsMalformedPacket(err) {
				s.logger.Warn().Err(err).Msg("Discarding malformed packet from live peer")
				continue
			}

			s.logger.Info().Err(err).Msg("Read failed on live peer, closing session")
			return
		}

		switch pkt.(type) {
		case protocol.UserPacket, protocol.MessagePacket:
			s.hub.Dispatch(s, pkt)

		case protocol.ProbePacket:
			// liveness probes expect no reply

		default:
			s.logger.Warn().
				Str("packet_tag", string(pkt.Tag())).
				Msg("Peer sent a hub-bound stream an outbound-only packet")
		}
	}
}

// Close shuts the session down: the sender loop stops and the transport closes.
// Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Session connection close error")
		}
	})
}
