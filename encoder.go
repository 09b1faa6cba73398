package ogg

import "io"

// Encoder multiplexes packets from one or more logical streams into
// well-formed Ogg pages and writes them to a sink.
type Encoder struct {
	sink io.Writer

	streams map[uint32]*streamOut
	order   []uint32
}

// NewEncoder returns an Encoder writing to sink.
func NewEncoder(sink io.Writer) *Encoder {
	return &Encoder{sink: sink, streams: make(map[uint32]*streamOut)}
}

func (e *Encoder) streamFor(serial uint32) *streamOut {
	if s, ok := e.streams[serial]; ok {
		return s
	}
	s := newStreamOut(serial)
	e.streams[serial] = s
	e.order = append(e.order, serial)
	return s
}

// PacketIn feeds one packet for serial. Pages are written to the sink as
// soon as the emission policy calls for a cut; pass last=true for the
// final packet of the stream to force a flush and mark its page EOS.
func (e *Encoder) PacketIn(serial uint32, body []byte, granule int64, last bool) error {
	s := e.streamFor(serial)
	s.packetin(body, granule, last)
	// Header packets (granule == 0) must each land on their own page, so
	// the pending buffer is force-flushed right after one is appended
	// rather than left to accumulate toward the threshold.
	if last || granule == 0 {
		return e.flushSerial(s)
	}
	return e.drainSerial(s)
}

func (e *Encoder) drainSerial(s *streamOut) error {
	for {
		p, ok := s.pageout()
		if !ok {
			return nil
		}
		if err := e.writePage(p); err != nil {
			return err
		}
	}
}

func (e *Encoder) flushSerial(s *streamOut) error {
	for {
		p, ok := s.flush()
		if !ok {
			return nil
		}
		if err := e.writePage(p); err != nil {
			return err
		}
	}
}

func (e *Encoder) writePage(p Page) error {
	_, err := e.sink.Write(p.Serialize())
	return err
}

// Write encodes every stream's packets to completion. Each serial's
// packets are fed in order and the stream is closed out with a final
// forced flush; streams are processed one at a time rather than
// interleaved, in map iteration order, so call WriteOrdered if the order
// of serials matters.
func (e *Encoder) Write(packets map[uint32][][]byte, granules map[uint32][]int64) error {
	serials := make([]uint32, 0, len(packets))
	for serial := range packets {
		serials = append(serials, serial)
	}
	return e.WriteOrdered(serials, packets, granules)
}

// WriteOrdered is like Write but processes serials in the given order,
// writing each one's packets to completion (with a forced final flush)
// before moving to the next.
func (e *Encoder) WriteOrdered(serials []uint32, packets map[uint32][][]byte, granules map[uint32][]int64) error {
	for _, serial := range serials {
		pkts := packets[serial]
		grs := granules[serial]
		for i, body := range pkts {
			granule := int64(-1)
			if i < len(grs) {
				granule = grs[i]
			}
			last := i == len(pkts)-1
			if err := e.PacketIn(serial, body, granule, last); err != nil {
				return err
			}
		}
	}
	return nil
}
