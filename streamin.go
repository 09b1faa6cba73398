package ogg

import (
	"errors"
	"fmt"
)

// ErrPageSequenceGap is a non-fatal signal that a page arrived out of
// sequence for its logical stream. The demultiplexer recovers by
// discarding whatever partial packet it was accumulating and resuming
// from the new page, per spec section 7's "quiet data loss" policy.
var ErrPageSequenceGap = errors.New("ogg: page sequence gap")

// streamIn reassembles the packets of one logical stream from the pages
// that carry it.
type streamIn struct {
	serial uint32

	haveSeq bool
	nextSeq uint32

	packetNo uint64
	body     []byte

	expectContinuation bool
	sawFirstPacket     bool

	queue []Packet
}

func newStreamIn(serial uint32) *streamIn {
	return &streamIn{serial: serial}
}

// pagein feeds one page belonging to this stream, appending any packets
// it completes to the internal queue for later retrieval via packetout.
func (s *streamIn) pagein(p RawPage) error {
	if p.Serial != s.serial {
		return fmt.Errorf("ogg: page serial %d does not match stream serial %d", p.Serial, s.serial)
	}

	gap := s.haveSeq && p.Sequence != s.nextSeq
	expected := s.nextSeq
	if gap {
		// A gap means whatever partial packet we were building is lost;
		// resume cleanly from this page instead of producing garbage.
		s.body = s.body[:0]
		s.expectContinuation = false
	}
	s.haveSeq = true
	s.nextSeq = p.Sequence + 1

	if p.BOS() && s.expectContinuation {
		return errors.New("ogg: BOS page arrived mid-packet")
	}

	off := 0
	lastCompletedIdx := -1
	for i, l := range p.Lacing {
		seg := p.Body[off : off+int(l)]
		off += int(l)
		s.body = append(s.body, seg...)

		if int(l) == maxSegmentBytes {
			// A maximal segment continues the packet into the next
			// segment, which may follow on this page or on the next.
			s.expectContinuation = true
			continue
		}

		s.expectContinuation = false
		pkt := Packet{
			Body:     append([]byte(nil), s.body...),
			PacketNo: s.packetNo,
			BOS:      !s.sawFirstPacket,
		}
		if i == len(p.Lacing)-1 {
			pkt.Granule = p.Granule
		} else {
			pkt.Granule = -1
		}
		s.sawFirstPacket = true
		s.packetNo++
		s.body = s.body[:0]
		s.queue = append(s.queue, pkt)
		lastCompletedIdx = len(s.queue) - 1
	}

	// The EOS flag belongs to the last packet actually completed from
	// this page, not necessarily the last lacing entry: a trailing
	// continuation segment (255) completes no packet here at all.
	if p.EOS() && lastCompletedIdx >= 0 {
		s.queue[lastCompletedIdx].EOS = true
	}

	if gap {
		return fmt.Errorf("%w: serial %d expected sequence %d, got %d", ErrPageSequenceGap, s.serial, expected, p.Sequence)
	}
	return nil
}

// packetout pops the next reassembled packet, if any is ready.
func (s *streamIn) packetout() (Packet, bool) {
	if len(s.queue) == 0 {
		return Packet{}, false
	}
	pkt := s.queue[0]
	s.queue = s.queue[1:]
	return pkt, true
}

func (s *streamIn) hasQueued() bool { return len(s.queue) > 0 }

// reset clears all in-flight reassembly state, as after a seek. The
// packet counter also resets to zero: a seek lands on a new, disconnected
// point in the stream, so the next packet produced is treated as a fresh
// stream start (BOS re-triggers at packetno 0).
func (s *streamIn) reset() {
	s.body = s.body[:0]
	s.queue = nil
	s.expectContinuation = false
	s.haveSeq = false
	s.sawFirstPacket = false
	s.packetNo = 0
}
