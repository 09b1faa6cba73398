package ogg

// pageEmitThreshold is the pending-body size, in bytes, at which the
// multiplexer prefers to cut a page rather than keep accumulating, per
// the reference emission policy.
const pageEmitThreshold = 4096

// streamOut accumulates packets for one logical stream and cuts them into
// pages on demand.
type streamOut struct {
	serial uint32

	body    []byte
	lacing  []byte
	// granules[i] is the granule position to stamp on the page when the
	// segment at lacing[i] terminates a packet, or -1 for a segment that
	// continues a packet into a later one.
	granules []int64

	sequence uint32

	bosWritten bool
	eosPending bool

	// continuing records whether the most recently emitted page ended
	// with a full 255-byte continuation segment, so the next page can be
	// flagged FlagContinued.
	continuing bool
}

func newStreamOut(serial uint32) *streamOut {
	return &streamOut{serial: serial}
}

// packetin appends one packet's bytes to the pending lacing/body queue.
// granule is the granule position to associate with the packet once it
// terminates; last marks the final packet of the stream, so the next
// emitted page (once drained) carries FlagEOS.
func (s *streamOut) packetin(body []byte, granule int64, last bool) {
	n := len(body)
	off := 0
	for {
		chunk := n - off
		if chunk > maxSegmentBytes {
			chunk = maxSegmentBytes
		}
		s.body = append(s.body, body[off:off+chunk]...)
		off += chunk

		if chunk == maxSegmentBytes {
			s.lacing = append(s.lacing, maxSegmentBytes)
			s.granules = append(s.granules, -1)
			if off == n {
				// Packet length is an exact multiple of 255: a
				// trailing zero-length segment is required to mark
				// the terminator, per the lacing rules.
				s.lacing = append(s.lacing, 0)
				s.granules = append(s.granules, granule)
				break
			}
			continue
		}

		s.lacing = append(s.lacing, byte(chunk))
		s.granules = append(s.granules, granule)
		break
	}

	if last {
		s.eosPending = true
	}
}

// pageout emits the next page only if enough has accumulated to meet the
// reference emission policy; it returns ok=false otherwise.
func (s *streamOut) pageout() (Page, bool) {
	if len(s.body) < pageEmitThreshold && len(s.lacing) <= maxSegments {
		return Page{}, false
	}
	return s.emit(), true
}

// flush force-emits the next page from whatever is pending (up to 255
// lacing entries), regardless of the emission threshold; it returns
// ok=false once nothing is pending.
func (s *streamOut) flush() (Page, bool) {
	if len(s.lacing) == 0 {
		return Page{}, false
	}
	return s.emit(), true
}

func (s *streamOut) emit() Page {
	n := len(s.lacing)
	if n > maxSegments {
		n = maxSegments
	}

	bodyLen := 0
	for _, l := range s.lacing[:n] {
		bodyLen += int(l)
	}

	// The page's granule is the granulepos of the last packet that
	// terminates within it, not simply the last lacing entry: if the page
	// ends mid-packet (a trailing continuation segment), that segment
	// carries no granule of its own, so look back past it to the last
	// segment that actually closed a packet.
	granule := int64(-1)
	for i := n - 1; i >= 0; i-- {
		if s.lacing[i] != maxSegmentBytes {
			granule = s.granules[i]
			break
		}
	}

	flags := byte(0)
	if s.continuing {
		flags |= FlagContinued
	}
	if !s.bosWritten {
		flags |= FlagBOS
		s.bosWritten = true
	}
	draining := n == len(s.lacing)
	if s.eosPending && draining {
		flags |= FlagEOS
	}

	page := Page{
		Flags:    flags,
		Granule:  granule,
		Serial:   s.serial,
		Sequence: s.sequence,
		Lacing:   append([]byte(nil), s.lacing[:n]...),
		Body:     append([]byte(nil), s.body[:bodyLen]...),
	}
	s.sequence++

	s.continuing = n > 0 && s.lacing[n-1] == maxSegmentBytes
	s.lacing = s.lacing[n:]
	s.granules = s.granules[n:]
	s.body = s.body[bodyLen:]

	return page
}
