/*
Package chat contains the core logic of the broadcast hub: sessions, the
session registry, validation, and the dispatch of packets to all participants.

This file defines the Hub struct, the single owner of all shared state: the
registry, the message log, and the id generator. Every registration, message,
and departure flows through the Hub's Run loop, so state mutation and the
order of broadcasts are serialized in one place.
*/
package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"relayhub/internal/app/user"
	"relayhub/internal/metrics"
	"relayhub/internal/pkg/logx"
	"relayhub/internal/pkg/randx"
	"relayhub/internal/protocol"
)

// inboundQueueSize buffers decoded packets between receive loops and the Run loop.
const inboundQueueSize = 1024

// Config carries the hub's constructor-time settings.
type Config struct {
	// NameLimit and ContentLimit are the exclusive validation thresholds.
	NameLimit    int
	ContentLimit int

	// SendInterval is the minimum spacing between transmissions to one recipient.
	SendInterval time.Duration
}

// inboundPacket pairs a decoded packet with the session that produced it.
type inboundPacket struct {
	session *Session
	packet  protocol.Packet
}

// Hub relays every accepted packet to the right audience. It owns the message
// log (append-only, insertion-ordered, process-lifetime) and decides broadcast
// order; sessions own their sockets and queues.
type Hub struct {
	registry  *Registry
	validator Validator
	ids       *randx.IDGenerator

	// messageLog holds every validated message in validation order, replayed
	// to late joiners. Touched only by the Run goroutine.
	messageLog []protocol.Message

	sendInterval time.Duration

	register   chan *Session
	unregister chan *Session
	inbound    chan inboundPacket

	quit     chan struct{}
	stopOnce sync.Once

	// done is closed when the Run loop has exited.
	done chan struct{}

	// structured logger with hub context.
	logger zerolog.Logger
}

// NewHub constructs a Hub with the given settings. Call Run to start it.
func NewHub(cfg Config) *Hub {
	hubLogger := logx.Logger().With().Str("component", "hub").Logger()

	return &Hub{
		registry:     NewRegistry(),
		validator:    NewValidator(cfg.NameLimit, cfg.ContentLimit),
		ids:          randx.NewIDGenerator(),
		sendInterval: cfg.SendInterval,
		register:     make(chan *Session),
		unregister:   make(chan *Session),
		inbound:      make(chan inboundPacket, inboundQueueSize),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		logger:       hubLogger,
	}
}

// Registry exposes the session registry for read-side consumers such as the
// gateway's user lookup endpoints.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Attach hands a freshly accepted session to the hub. The session stays
// unidentified until its first valid user packet.
func (h *Hub) Attach(s *Session) {
	select {
	case h.register <- s:
	case <-h.done:
		s.Close()
	}
}

// Detach reports that a session's receive loop has exited.
func (h *Hub) Detach(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
		s.Close()
	}
}

// Dispatch queues a decoded hub-bound packet for validation and fan-out.
func (h *Hub) Dispatch(s *Session, p protocol.Packet) {
	select {
	case h.inbound <- inboundPacket{session: s, packet: p}:
	case <-h.done:
	}
}

// Stop terminates the Run loop, closing every live session, and waits for it
// to finish.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
	<-h.done
}

// Run is the hub's event loop. It must run in exactly one goroutine.
func (h *Hub) Run() {
	defer close(h.done)

	h.logger.Info().Msg("Hub event loop started")

	for {
		select {
		case s := <-h.register:
			h.registry.Add(s)
			metrics.ActiveSessions.Inc()

			h.logger.Info().
				Str("session_id", s.ID()).
				Int("total_sessions", h.registry.Len()).
				Msg("Session attached")

		case s := <-h.unregister:
			h.handleDetach(s)

		case in := <-h.inbound:
			switch p := in.packet.(type) {
			case protocol.UserPacket:
				h.handleJoin(in.session, p)

			case protocol.MessagePacket:
				h.handleMessage(in.session, p)

			default:
				h.logger.Warn().
					Str("packet_tag", string(in.packet.Tag())).
					Msg("Unexpected packet type reached the hub loop")
			}

		case <-h.quit:
			h.logger.Info().Msg("Hub stopping, closing all sessions")

			for _, s := range h.registry.Snapshot() {
				h.registry.Remove(s)
				metrics.ActiveSessions.Dec()

				if _, registered := s.RegisteredUser(); registered {
					metrics.RegisteredUsers.Dec()
				}

				s.Close()
			}
			return
		}
	}
}

// handleDetach removes a session whose receive loop ended and, if it had
// registered, tells the remaining participants.
func (h *Hub) handleDetach(s *Session) {
	if !h.registry.Remove(s) {
		s.Close()
		return
	}

	metrics.ActiveSessions.Dec()
	s.Close()

	u, registered := s.RegisteredUser()

	h.logger.Info().
		Str("session_id", s.ID()).
		Int("total_sessions", h.registry.Len()).
		Msg("Session detached")

	if !registered {
		return
	}

	metrics.RegisteredUsers.Dec()

	h.broadcast(func(target *Session, _ user.User) protocol.Packet {
		return protocol.NewUserLeavePacket(u)
	})
	h.announce(fmt.Sprintf("%s Has Left", u.Name))
}

// handleJoin validates a join request and, on acceptance, assigns the user a
// permanent id, notifies everyone, and replays the backlog to the new session.
// A rejected request is silently dropped. A second user packet on an already
// identified session is ignored; identity is immutable once assigned.
func (h *Hub) handleJoin(s *Session, p protocol.UserPacket) {
	if _, registered := s.RegisteredUser(); registered {
		h.logger.Warn().
			Str("session_id", s.ID()).
			Msg("Ignoring user packet from already identified session")
		return
	}

	candidate := user.New(p.Name)

	if !h.validator.AcceptUser(candidate) {
		metrics.ValidationRejects.WithLabelValues("user").Inc()
		h.logger.Warn().
			Str("session_id", s.ID()).
			Int("name_len", len(p.Name)).
			Msg("Rejected join request, dropping")
		return
	}

	id, err := h.ids.NextID()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to issue user id")
		return
	}

	candidate.ID = id
	s.setUser(candidate)
	metrics.RegisteredUsers.Inc()

	h.logger.Info().
		Str("session_id", s.ID()).
		Int64("user_id", candidate.ID).
		Str("user_name", candidate.Name).
		Msg("User registered")

	// The join broadcast goes out before the backlog, so the new session's
	// queue starts with its own is-me confirmation.
	h.broadcast(func(target *Session, targetUser user.User) protocol.Packet {
		return protocol.NewUserPacket(candidate, targetUser.ID == candidate.ID)
	})
	h.announce(fmt.Sprintf("%s Has Joined", candidate.Name))

	h.sendBacklog(s)
}

// handleMessage validates a message and, on acceptance, assigns it an id,
// appends it to the log, and broadcasts it to every registered session,
// sender included; the echo is the sender's delivery confirmation.
func (h *Hub) handleMessage(s *Session, p protocol.MessagePacket) {
	sender, registered := s.RegisteredUser()

	msg := protocol.Message{
		ID:      user.UnassignedID,
		Content: p.Content,
		Sender:  sender,
	}

	if !h.validator.AcceptMessage(msg, registered) {
		metrics.ValidationRejects.WithLabelValues("message").Inc()
		h.logger.Warn().
			Str("session_id", s.ID()).
			Bool("registered", registered).
			Int("content_len", len(p.Content)).
			Msg("Rejected message, dropping")
		return
	}

	id, err := h.ids.NextID()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to issue message id")
		return
	}

	msg.ID = id
	h.messageLog = append(h.messageLog, msg)
	metrics.MessagesRelayed.Inc()

	packet := protocol.NewMessagePacket(msg)
	h.broadcast(func(*Session, user.User) protocol.Packet {
		return packet
	})
}

// broadcast fans one packet out to every registered session. The build
// callback lets a variant differ per target (the is-me marking). A failed
// enqueue to one target never aborts delivery to the rest.
func (h *Hub) broadcast(build func(target *Session, targetUser user.User) protocol.Packet) {
	for _, target := range h.registry.Snapshot() {
		targetUser, registered := target.RegisteredUser()
		if !registered {
			continue
		}

		if err := target.Enqueue(build(target, targetUser)); err != nil {
			metrics.DeliveryErrors.Inc()
			h.logger.Warn().Err(err).
				Str("session_id", target.ID()).
				Msg("Broadcast delivery to one session failed")
		}
	}
}

// announce sends an ephemeral notice to every registered session.
func (h *Hub) announce(content string) {
	packet := protocol.NewAnnouncementPacket(content)
	h.broadcast(func(*Session, user.User) protocol.Packet {
		return packet
	})
}

// sendBacklog brings a just-registered session up to date: the other
// registered users (never the session's own user) and the full message log.
func (h *Hub) sendBacklog(s *Session) {
	own, _ := s.RegisteredUser()

	others := make([]user.User, 0, h.registry.Len())
	for _, target := range h.registry.Snapshot() {
		if target == s {
			continue
		}
		if u, registered := target.RegisteredUser(); registered {
			others = append(others, u)
		}
	}

	if len(others) > 0 {
		if err := s.Enqueue(protocol.NewUserListPacket(others)); err != nil {
			h.logger.Warn().Err(err).
				Str("session_id", s.ID()).
				Msg("Failed to deliver users backlog")
		}
	}

	if len(h.messageLog) > 0 {
		replay := make([]protocol.Message, len(h.messageLog))
		copy(replay, h.messageLog)

		if err := s.Enqueue(protocol.NewMessageListPacket(replay)); err != nil {
			h.logger.Warn().Err(err).
				Str("session_id", s.ID()).
				Msg("Failed to deliver messages backlog")
		}
	}

	h.logger.Debug().
		Int64("user_id", own.ID).
		Int("known_users", len(others)).
		Int("log_size", len(h.messageLog)).
		Msg("Backlog sent")
}
