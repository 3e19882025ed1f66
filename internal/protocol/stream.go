/*
Package protocol defines the wire protocol shared by both ends of the link.

This file defines the Conn abstraction over one packet-capable transport and
its implementation for raw TCP streams. The hub's sessions and the client both
speak to a Conn, so the framed-TCP and WebSocket transports are interchangeable.
*/
package protocol

import (
	"bufio"
	"net"
	"sync"
	"time"
)

// writeWait bounds how long a single packet write may block on a slow peer.
const writeWait = 10 * time.Second

// Conn is one packet-oriented connection. ReadPacket blocks until a full
// packet arrives or the transport fails; WritePacket transmits exactly one
// packet and is safe for concurrent use.
type Conn interface {
	ReadPacket() (Packet, error)
	WritePacket(Packet) error
	Close() error
	RemoteAddr() net.Addr
}

// StreamConn adapts a raw byte stream (net.Conn) to packet granularity using
// the length-prefixed frame layer. The write mutex is the session's outbound
// serialization lock: concurrent writers take turns and frames never interleave.
type StreamConn struct {
	conn        net.Conn
	reader      *bufio.Reader
	idleTimeout time.Duration

	// writeMu serializes WritePacket calls on this connection.
	writeMu sync.Mutex
}

// NewStreamConn wraps conn. When idleTimeout is positive, every read arms a
// deadline; a peer silent for that long fails the read, which the receive
// loop treats like any other read failure.
func NewStreamConn(conn net.Conn, idleTimeout time.Duration) *StreamConn {
	return &StreamConn{
		conn:        conn,
		reader:      bufio.NewReader(conn),
		idleTimeout: idleTimeout,
	}
}

// ReadPacket reads one frame and decodes it.
func (c *StreamConn) ReadPacket() (Packet, error) {
	if c.idleTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout)); err != nil {
			return nil, err
		}
	}

	payload, err := ReadFrame(c.reader)
	if err != nil {
		return nil, err
	}

	return Decode(payload)
}

// WritePacket encodes p and writes it as one frame.
func (c *StreamConn) WritePacket(p Packet) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return WriteFrame(c.conn, data)
}

// Close closes the underlying stream.
func (c *StreamConn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the peer's network address.
func (c *StreamConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
