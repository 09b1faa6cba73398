package ogg

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Page type bitmask values for the legacy page-oriented surface.
const (
	COP = FlagContinued
	BOS = FlagBOS
	EOS = FlagEOS
)

// DecodedPage represents one logical ogg page as decoded by PageDecoder.
type DecodedPage struct {
	// Type is a bitmask of COP, BOS, and/or EOS.
	Type byte
	// Serial is the bitstream serial number.
	Serial uint32
	// Granule is the granule position, whose meaning depends on the
	// encapsulated codec.
	Granule int64
	// Packets are the raw packet data. If Type & COP != 0, the first
	// element is a continuation of the previous page's last packet.
	Packets [][]byte
}

// PageDecoder decodes an ogg stream page-by-page with its Decode method.
// Unlike Decoder, it does not reassemble packets across page boundaries
// or demultiplex by serial; callers get exactly what each page carried.
type PageDecoder struct {
	// lenbuf buffers packet lengths, to avoid allocating (maxSegments is
	// also the max number of packets per page).
	lenbuf [maxSegments]int
	r      io.Reader
	buf    [maxPageSize]byte
}

// NewPageDecoder creates a PageDecoder reading from r.
func NewPageDecoder(r io.Reader) *PageDecoder {
	return &PageDecoder{r: r}
}

// Decode reads from d's Reader to the next ogg page, then returns the
// decoded page or an error. The error may be io.EOF if that's what the
// Reader returned, or io.ErrUnexpectedEOF if a page was only partially
// present.
//
// The buffer underlying the returned page's Packets' bytes is owned by
// the PageDecoder. It may be overwritten by subsequent calls to Decode.
//
// It is safe to call Decode concurrently on distinct PageDecoders if
// their Readers are distinct. Otherwise, the behavior is undefined.
func (d *PageDecoder) Decode() (DecodedPage, int, error) {
	nread := 0
	hbuf := d.buf[0:headerSize]
	b := 0
	for {
		n, err := io.ReadFull(d.r, hbuf[b:])
		nread += n
		if err != nil {
			return DecodedPage{}, nread, err
		}

		i := bytes.Index(hbuf, capturePattern[:])
		if i == 0 {
			break
		}

		if i < 0 {
			const n = headerSize
			if hbuf[n-1] == 'O' {
				i = n - 1
			} else if hbuf[n-2] == 'O' && hbuf[n-1] == 'g' {
				i = n - 2
			} else if hbuf[n-3] == 'O' && hbuf[n-2] == 'g' && hbuf[n-1] == 'g' {
				i = n - 3
			}
		}

		if i > 0 {
			b = copy(hbuf, hbuf[i:])
		}
	}

	version := hbuf[4]
	headerType := hbuf[5]
	granule := int64(binary.LittleEndian.Uint64(hbuf[6:14]))
	serial := binary.LittleEndian.Uint32(hbuf[14:18])
	crcField := binary.LittleEndian.Uint32(hbuf[22:26])
	nsegs := int(hbuf[26])

	if version != streamVersion {
		return DecodedPage{}, nread, ErrBadVersion
	}
	if nsegs < 1 {
		return DecodedPage{}, nread, ErrBadSegs
	}

	segtbl := d.buf[headerSize : headerSize+nsegs]
	n, err := io.ReadFull(d.r, segtbl)
	nread += n
	if err != nil {
		return DecodedPage{}, nread, err
	}

	// A page can contain multiple packets; record their lengths from the
	// table now and slice up the payload after reading it.
	packetlens := d.lenbuf[0:0]
	payloadlen := 0
	more := false
	for _, l := range segtbl {
		if more {
			packetlens[len(packetlens)-1] += int(l)
		} else {
			packetlens = append(packetlens, int(l))
		}

		more = l == maxSegmentBytes
		payloadlen += int(l)
	}

	payload := d.buf[headerSize+nsegs : headerSize+nsegs+payloadlen]
	n, err = io.ReadFull(d.r, payload)
	nread += n
	if err != nil {
		return DecodedPage{}, nread, err
	}

	page := d.buf[0 : headerSize+nsegs+payloadlen]
	// Clear out the existing CRC field before recomputing it; hbuf
	// aliases the same backing array as page, so crcField above still
	// holds the value that was here before this zeroing.
	page[22] = 0
	page[23] = 0
	page[24] = 0
	page[25] = 0
	crc := pageChecksum(page)
	if crc != crcField {
		return DecodedPage{}, nread, ChecksumError{Found: crcField, Expected: crc}
	}

	packets := make([][]byte, len(packetlens))
	s := 0
	for i, l := range packetlens {
		packets[i] = payload[s : s+l]
		s += l
	}

	return DecodedPage{Type: headerType, Serial: serial, Granule: granule, Packets: packets}, nread, nil
}

// PageEncoder encodes packets into ogg pages, one call at a time, for a
// single logical stream identified by serial. A call whose packets need
// more than 255 lacing entries continues onto further pages: BOS stays on
// the first of them, EOS on the last, pages that start mid-packet are
// flagged COP, and every page of the call carries the given granule.
type PageEncoder struct {
	serial   uint32
	w        io.Writer
	sequence uint32
}

// NewPageEncoder creates a PageEncoder writing pages for serial to w.
func NewPageEncoder(serial uint32, w io.Writer) *PageEncoder {
	return &PageEncoder{serial: serial, w: w}
}

// EncodeBOS encodes packets into a page flagged as the beginning of the
// logical stream.
func (e *PageEncoder) EncodeBOS(granule int64, packets [][]byte) error {
	return e.encode(granule, packets, BOS)
}

// Encode encodes packets into an ordinary page.
func (e *PageEncoder) Encode(granule int64, packets [][]byte) error {
	return e.encode(granule, packets, 0)
}

// EncodeEOS encodes packets into a page flagged as the end of the
// logical stream.
func (e *PageEncoder) EncodeEOS(granule int64, packets [][]byte) error {
	return e.encode(granule, packets, EOS)
}

func (e *PageEncoder) encode(granule int64, packets [][]byte, flags byte) error {
	var lacing, body []byte

	for _, pkt := range packets {
		n := len(pkt)
		off := 0
		for {
			chunk := n - off
			if chunk > maxSegmentBytes {
				chunk = maxSegmentBytes
			}
			lacing = append(lacing, byte(chunk))
			body = append(body, pkt[off:off+chunk]...)
			off += chunk
			if chunk < maxSegmentBytes {
				break
			}
			if off == n {
				// Exact multiple of 255: a trailing zero-length
				// segment marks the terminator.
				lacing = append(lacing, 0)
				break
			}
		}
	}

	for len(lacing) > maxSegments {
		n := 0
		for _, l := range lacing[:maxSegments] {
			n += int(l)
		}
		if _, err := e.w.Write(Serialize(flags&^EOS, granule, e.serial, e.sequence, lacing[:maxSegments], body[:n])); err != nil {
			return err
		}
		e.sequence++
		flags &^= BOS | COP
		if lacing[maxSegments-1] == maxSegmentBytes {
			flags |= COP
		}
		lacing, body = lacing[maxSegments:], body[n:]
	}

	buf := Serialize(flags, granule, e.serial, e.sequence, lacing, body)
	if _, err := e.w.Write(buf); err != nil {
		return err
	}
	e.sequence++
	return nil
}
