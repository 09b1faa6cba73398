package ogg

import (
	"fmt"
	"time"
)

// Packet is one reassembled Ogg packet: a codec-level unit that may have
// been split across several pages' lacing tables during transmission.
type Packet struct {
	Body []byte
	// Granule is the granule position of the page this packet completed
	// on when it is the last packet completed on that page, or -1 when
	// another packet ends after it on the same page.
	Granule  int64
	PacketNo uint64
	BOS      bool
	EOS      bool
}

// GetPacketDuration parses the frame duration from an Opus packet.
// Assumes the packet has a valid TOC byte.
func (p Packet) GetPacketDuration() (time.Duration, error) {
	if len(p.Body) == 0 {
		return 0, fmt.Errorf("empty opus packet")
	}

	toc := p.Body[0]

	config := toc >> 3          // Bits 0-4 (upper 5 bits)
	frameCountCode := toc & 0x03 // Bits 6-7 (lower 2 bits)

	// Mapping for frame size based on config
	var frameSizeMs int

	switch config {
	case 0, 1, 2, 3:
		frameSizeMs = 10
	case 4, 5, 6, 7:
		frameSizeMs = 20
	case 8, 9, 10, 11:
		frameSizeMs = 40
	case 12, 13, 14, 15:
		frameSizeMs = 60
	default:
		frameSizeMs = 20 // default/fallback (common for Opus packets)
	}

	// Determine frame count
	frameCount := 1
	switch frameCountCode {
	case 0:
		frameCount = 1
	case 1:
		frameCount = 2
	case 2:
		frameCount = 2 // CELT only packets with padding (rare)
	case 3:
		if len(p.Body) < 2 {
			return 0, fmt.Errorf("invalid opus packet: frame count code 3 but packet is too short")
		}
		frameCount = int(p.Body[1]) + 1
		if frameCount < 1 {
			return 0, fmt.Errorf("invalid opus packet: frame count code 3 but frame count is less than 1")
		}
	}

	totalDurationMs := frameSizeMs * frameCount
	return time.Duration(totalDurationMs) * time.Millisecond, nil
}
