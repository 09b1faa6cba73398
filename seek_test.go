package ogg

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSeekableStream encodes a single stream of nPackets packets, each
// carrying 100 little-endian int64 samples, with two header packets
// (granule 0) followed by data packets whose granule increases by step
// per packet, matching the package's seek-round-trip testable property.
func buildSeekableStream(t *testing.T, nPackets int, step int64) ([]byte, []int64) {
	t.Helper()
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	granules := make([]int64, nPackets)
	for i := 0; i < nPackets; i++ {
		var granule int64
		var body []byte
		if i < 2 {
			granule = 0
			body = make([]byte, 8)
		} else {
			granule = int64(i-1) * step
			body = make([]byte, 100*8)
			for s := 0; s < 100; s++ {
				binary.LittleEndian.PutUint64(body[s*8:], uint64(granule))
			}
		}
		granules[i] = granule
		last := i == nPackets-1
		require.NoError(t, enc.PacketIn(42, body, granule, last))
	}
	return buf.Bytes(), granules
}

func TestSeekToGranuleLandsBeforeTarget(t *testing.T) {
	const nPackets = 60
	const step = int64(100)
	wire, granules := buildSeekableStream(t, nPackets, step)

	maxGranule := granules[len(granules)-1]

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 25; trial++ {
		target := int64(rng.Intn(int(maxGranule)))

		dec, err := NewDecoder(bytes.NewReader(wire))
		require.NoError(t, err)
		_, err = dec.Open(42)
		require.NoError(t, err)

		require.NoError(t, dec.SeekToGranule(42, target))

		granule, ok, err := dec.SyncToGranule(42)
		require.NoError(t, err)
		require.True(t, ok)

		assert.LessOrEqual(t, granule, target, "the located page's granule must not exceed the target")
	}
}

func TestSeekToGranuleForwardReadReachesTarget(t *testing.T) {
	const nPackets = 40
	const step = int64(100)
	wire, granules := buildSeekableStream(t, nPackets, step)
	maxGranule := granules[len(granules)-1]

	rng := rand.New(rand.NewSource(2))
	for trial := 0; trial < 25; trial++ {
		target := int64(rng.Intn(int(maxGranule)))

		dec, err := NewDecoder(bytes.NewReader(wire))
		require.NoError(t, err)
		stream, err := dec.Open(42)
		require.NoError(t, err)

		require.NoError(t, dec.SeekToGranule(42, target))
		_, ok, err := dec.SyncToGranule(42)
		require.NoError(t, err)
		require.True(t, ok)

		var reached int64 = -1
		for {
			pkt, ok, err := stream.ReadPacket()
			require.NoError(t, err)
			if !ok {
				break
			}
			if pkt.Granule >= target {
				reached = pkt.Granule
				break
			}
		}
		assert.GreaterOrEqual(t, reached, target, "forward read from the seek point must reach the target granule")
	}
}
