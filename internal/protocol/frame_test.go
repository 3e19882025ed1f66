package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relayhub/internal/pkg/errs"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	payload := []byte(`{"header":"announcement","content":"hello"}`)
	require.NoError(t, WriteFrame(&buf, payload))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFrameSequencePreservesBoundaries(t *testing.T) {
	var buf bytes.Buffer

	payloads := [][]byte{
		[]byte("first"),
		[]byte("second frame with more bytes"),
		[]byte("third"),
	}

	for _, p := range payloads {
		require.NoError(t, WriteFrame(&buf, p))
	}

	for _, want := range payloads {
		got, err := ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer

	err := WriteFrame(&buf, make([]byte, MaxFrameSize+1))
	require.Error(t, err)
	assert.Equal(t, errs.ErrFrameTooLarge, errs.CodeOf(err))
	assert.Zero(t, buf.Len())
}

func TestReadFrameRejectsBadLengthPrefix(t *testing.T) {
	var buf bytes.Buffer

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], MaxFrameSize+1)
	buf.Write(header[:])

	_, err := ReadFrame(&buf)
	require.Error(t, err)
	assert.Equal(t, errs.ErrFrameTooLarge, errs.CodeOf(err))
}

func TestReadFrameRejectsEmptyFrame(t *testing.T) {
	var buf bytes.Buffer

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], 0)
	buf.Write(header[:])

	_, err := ReadFrame(&buf)
	require.Error(t, err)
	assert.Equal(t, errs.ErrFrameEmpty, errs.CodeOf(err))
}

func TestReadFrameReportsTruncation(t *testing.T) {
	var buf bytes.Buffer

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], 100)
	buf.Write(header[:])
	buf.WriteString("only a few bytes")

	_, err := ReadFrame(&buf)
	require.Error(t, err)
	assert.Equal(t, errs.ErrFrameTruncated, errs.CodeOf(err))
}
