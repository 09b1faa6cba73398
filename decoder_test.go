package ogg

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderDiscoversSingleStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.PacketIn(1, []byte("hello"), 0, false))
	require.NoError(t, enc.PacketIn(1, []byte("world"), 10, true))

	dec, err := NewDecoder(&buf)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, dec.Serials())

	stream, err := dec.Open(1)
	require.NoError(t, err)

	pkt1, ok, err := stream.ReadPacket()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), pkt1.Body)
	assert.True(t, pkt1.BOS)

	pkt2, ok, err := stream.ReadPacket()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("world"), pkt2.Body)
	assert.True(t, pkt2.EOS)

	_, ok, err = stream.ReadPacket()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecoderInterleavedStreams(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.PacketIn(1, []byte("a1"), 1, false))
	require.NoError(t, enc.PacketIn(2, []byte("b1"), 1, false))
	require.NoError(t, enc.PacketIn(1, []byte("a2"), 2, true))
	require.NoError(t, enc.PacketIn(2, []byte("b2"), 2, true))

	dec, err := NewDecoder(&buf)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint32{1, 2}, dec.Serials())

	s1, err := dec.Open(1)
	require.NoError(t, err)
	s2, err := dec.Open(2)
	require.NoError(t, err)

	p1a, _, err := s1.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte("a1"), p1a.Body)

	p2a, _, err := s2.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte("b1"), p2a.Body)

	p1b, _, err := s1.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte("a2"), p1b.Body)

	p2b, _, err := s2.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte("b2"), p2b.Body)
}

func TestDecoderOpenUnknownSerial(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.PacketIn(1, []byte("x"), 0, true))

	dec, err := NewDecoder(&buf)
	require.NoError(t, err)

	_, err = dec.Open(99)
	assert.ErrorIs(t, err, ErrUnknownSerialOnOpen)
}

func TestDecoderDoubleOpen(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.PacketIn(1, []byte("x"), 0, true))

	dec, err := NewDecoder(&buf)
	require.NoError(t, err)

	_, err = dec.Open(1)
	require.NoError(t, err)
	_, err = dec.Open(1)
	assert.ErrorIs(t, err, ErrDoubleOpen)
}

func TestDecoderSeekUnsupportedWithoutSeeker(t *testing.T) {
	dec, err := NewDecoder(bytes.NewReader(nil))
	require.NoError(t, err)

	// bytes.Reader does implement io.Seeker, so use a plain io.Reader
	// wrapper to exercise the unsupported path.
	pr, pw := io.Pipe()
	go func() { pw.Close() }()
	dec2, err := NewDecoder(pr)
	require.NoError(t, err)

	err = dec2.Seek(0)
	assert.ErrorIs(t, err, ErrSeekUnsupported)

	_ = dec
}

func TestDecoderEmptySourceIsCleanEOF(t *testing.T) {
	dec, err := NewDecoder(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, dec.Serials())
}
