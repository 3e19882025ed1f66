/*
Package handler provides the HTTP gateway in front of the hub.

This file adapts a gorilla WebSocket connection to the protocol.Conn
interface. WebSocket frames already delimit packets, so no length prefix is
involved; each packet travels as one text message.
*/
package handler

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"relayhub/internal/protocol"
)

// wsWriteWait bounds how long a single packet write may block on a slow peer.
const wsWriteWait = 10 * time.Second

// wsConn is a packet transport over one WebSocket connection.
type wsConn struct {
	conn        *websocket.Conn
	idleTimeout time.Duration

	// writeMu serializes writes; gorilla connections allow one writer at a time.
	writeMu sync.Mutex
}

func newWSConn(conn *websocket.Conn, idleTimeout time.Duration) *wsConn {
	// same payload cap as the framed TCP transport
	conn.SetReadLimit(protocol.MaxFrameSize)

	return &wsConn{
		conn:        conn,
		idleTimeout: idleTimeout,
	}
}

// ReadPacket reads one text frame and decodes it.
func (c *wsConn) ReadPacket() (protocol.Packet, error) {
	if c.idleTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout)); err != nil {
			return nil, err
		}
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	return protocol.Decode(data)
}

// WritePacket encodes p and writes it as one text frame.
func (c *wsConn) WritePacket(p protocol.Packet) error {
	data, err := protocol.Encode(p)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying WebSocket connection.
func (c *wsConn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the peer's network address.
func (c *wsConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
