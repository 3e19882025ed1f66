/*
Package protocol defines the wire protocol shared by both ends of the link.

This file implements the frame layer for raw byte streams: each packet is
preceded by a 4-byte big-endian length prefix so message boundaries survive
arbitrary TCP segmentation. The frame layer is deliberately below the codec;
a frame is handed to Decode only once it has been read in full.
*/
package protocol

import (
	"encoding/binary"
	"errors"
	"io"

	"relayhub/internal/pkg/errs"
)

// MaxFrameSize caps a single packet's payload. Anything larger is treated as
// stream corruption since no legitimate packet approaches this size.
const MaxFrameSize = 64 * 1024

// frameHeaderSize is the byte width of the length prefix.
const frameHeaderSize = 4

// WriteFrame writes payload to w as one length-prefixed frame. The prefix and
// payload go out in a single Write call so a frame is never split across
// writers sharing the connection.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return errs.NewError(errs.ErrFrameTooLarge)
	}

	buf := make([]byte, frameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[frameHeaderSize:], payload)

	_, err := w.Write(buf)
	return err
}

// ReadFrame reads exactly one frame's payload from r. A length prefix of zero
// or above MaxFrameSize fails with a frame error; the stream cannot be
// resynchronized after that. An EOF inside a frame is reported as truncation.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[:])
	if length == 0 {
		return nil, errs.NewError(errs.ErrFrameEmpty)
	}
	if length > MaxFrameSize {
		return nil, errs.NewError(errs.ErrFrameTooLarge)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errs.NewError(errs.ErrFrameTruncated)
		}
		return nil, err
	}

	return payload, nil
}
