package ogg

import "errors"

// Stream is a handle onto one logical stream within a Decoder, obtained
// via Decoder.Open. It does not own the Decoder; multiple Streams share
// the same underlying byte source.
type Stream struct {
	decoder *Decoder
	serial  uint32
}

// Serial returns the logical stream's serial number.
func (s *Stream) Serial() uint32 { return s.serial }

// ReadPage returns the next page belonging to this stream.
func (s *Stream) ReadPage() (Page, bool, error) {
	return s.decoder.ReadPageFor(s.serial)
}

// ReadPacket returns the next reassembled packet for this stream, reading
// and feeding in as many pages as needed to complete it.
func (s *Stream) ReadPacket() (Packet, bool, error) {
	st, ok := s.decoder.streams[s.serial]
	if !ok {
		return Packet{}, false, ErrUnknownSerialOnOpen
	}

	for {
		if pkt, ok := st.in.packetout(); ok {
			return pkt, true, nil
		}

		p, ok, err := s.ReadPage()
		if err != nil {
			return Packet{}, false, err
		}
		if !ok {
			return Packet{}, false, nil
		}
		if err := st.in.pagein(p.Raw()); err != nil && !errors.Is(err, ErrPageSequenceGap) {
			return Packet{}, false, err
		}
	}
}

// EachPage returns an iterator closure yielding successive pages for this
// stream until the source is exhausted.
func (s *Stream) EachPage() func() (Page, bool) {
	return func() (Page, bool) {
		p, ok, err := s.ReadPage()
		if err != nil || !ok {
			return Page{}, false
		}
		return p, true
	}
}

// EachPacket returns an iterator closure yielding successive packets for
// this stream until the source is exhausted.
func (s *Stream) EachPacket() func() (Packet, bool) {
	return func() (Packet, bool) {
		pkt, ok, err := s.ReadPacket()
		if err != nil || !ok {
			return Packet{}, false
		}
		return pkt, true
	}
}

// Close closes the underlying logical stream.
func (s *Stream) Close() error {
	return s.decoder.Close(s.serial)
}
