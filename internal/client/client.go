/*
Package client implements the dialing end of the link.

A Client owns the connection and forwards every decoded packet to a Handler
supplied by the caller; the rendering layer is composed by reference, never
fused with the socket. Interactive bootstrap (prompting for a name, CLI
parsing) stays outside this package.
*/
package client

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"relayhub/internal/app/user"
	"relayhub/internal/pkg/logx"
	"relayhub/internal/protocol"
)

// Handler receives the events a connected participant can observe. Calls
// arrive from the client's single read goroutine, in receive order.
type Handler interface {
	// HandleJoin is called when a user is accepted by the hub. isMe marks the
	// client's own acceptance; the embedded id is now permanent.
	HandleJoin(u user.User, isMe bool)

	// HandleMessage delivers one relayed chat message, own messages included.
	HandleMessage(m protocol.Message)

	// HandleAnnouncement delivers an ephemeral hub notice.
	HandleAnnouncement(content string)

	// HandleUserList delivers the backlog of already-connected users.
	HandleUserList(users []user.User)

	// HandleMessageList delivers the backlog of past messages.
	HandleMessageList(messages []protocol.Message)

	// HandleLeave is called when another participant disconnects.
	HandleLeave(u user.User)

	// HandleDisconnect is called once when the connection is gone. err is nil
	// after a local Close.
	HandleDisconnect(err error)
}

// Client is one live connection to the hub.
type Client struct {
	conn    protocol.Conn
	handler Handler

	// self holds the client's own user, id-less until the hub's is-me packet.
	mu   sync.RWMutex
	self user.User

	closed    atomic.Bool
	closeOnce sync.Once

	// structured logger with client context.
	logger zerolog.Logger
}

// Dial connects to a hub at addr, requests to join under the given display
// name, and starts delivering events to h. The join is not confirmed until h
// sees HandleJoin with isMe set; a hub that rejects the name simply never
// confirms.
func Dial(addr string, name string, h Handler) (*Client, error) {
	netConn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	clientLogger := logx.Logger().With().
		Str("component", "client").
		Str("hub_addr", addr).
		Logger()

	c := &Client{
		conn:    protocol.NewStreamConn(netConn, 0),
		handler: h,
		self:    user.New(name),
		logger:  clientLogger,
	}

	if err := c.conn.WritePacket(protocol.NewUserPacket(c.self, false)); err != nil {
		_ = c.conn.Close()
		return nil, err
	}

	go c.readLoop()

	return c, nil
}

// Self returns the client's own user, including the hub-assigned id once the
// join has been confirmed.
func (c *Client) Self() user.User {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.self
}

// Send transmits one chat message. The hub assigns the id and echoes the
// message back; the echo is the delivery confirmation.
func (c *Client) Send(content string) error {
	msg := protocol.Message{
		ID:      user.UnassignedID,
		Content: content,
		Sender:  c.Self(),
	}

	return c.conn.WritePacket(protocol.NewMessagePacket(msg))
}

// Close disconnects from the hub. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error")
		}
	})
}

// readLoop receives packets until the connection fails or Close is called,
// dispatching each one to the handler.
func (c *Client) readLoop() {
	for {
		pkt, err := c.conn.ReadPacket()
		if err != nil {
			if c.closed.Load() {
				c.handler.HandleDisconnect(nil)
			} else {
				c.logger.Info().Err(err).Msg("Connection to hub lost")
				c.handler.HandleDisconnect(err)
			}
			return
		}

		switch p := pkt.(type) {
		case protocol.UserPacket:
			if p.IsMe {
				c.mu.Lock()
				c.self = p.User
				c.mu.Unlock()
			}
			c.handler.HandleJoin(p.User, p.IsMe)

		case protocol.MessagePacket:
			c.handler.HandleMessage(p.Message)

		case protocol.AnnouncementPacket:
			c.handler.HandleAnnouncement(p.Content)

		case protocol.UserListPacket:
			c.handler.HandleUserList(p.Users)

		case protocol.MessageListPacket:
			c.handler.HandleMessageList(p.Messages)

		case protocol.UserLeavePacket:
			c.handler.HandleLeave(p.User)

		case protocol.ProbePacket:
			// liveness probes expect no reply

		default:
			c.logger.Warn().
				Str("packet_tag", string(pkt.Tag())).
				Msg("Hub sent an unexpected packet variant")
		}
	}
}
