package ogg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Wire layout constants (spec section 6).
const (
	headerSize = 27
	// maxSegments is the largest a page's segment table can be; the page
	// header stores the count in a single byte.
	maxSegments = 255
	// maxSegmentBytes is the largest a single lacing-table entry can be.
	// A lacing byte of exactly this value means "this segment continues
	// the packet into the next segment" rather than terminating it.
	maxSegmentBytes = 255
	// maxSegmentPayload is the largest single packet payload a page's
	// segment table alone can describe: every entry at its maximum.
	maxSegmentPayload = maxSegments * maxSegmentBytes
	// maxPageSize is the largest a single Ogg page can be.
	maxPageSize = headerSize + maxSegments + maxSegmentPayload
)

const streamVersion = 0

var capturePattern = [4]byte{'O', 'g', 'g', 'S'}

// Header type flag bits, at byte offset 5 of the page header.
const (
	FlagContinued byte = 1 << 0
	FlagBOS       byte = 1 << 1
	FlagEOS       byte = 1 << 2
)

var (
	// ErrBadCapturePattern is returned when a page does not begin with
	// the 4-byte "OggS" capture pattern.
	ErrBadCapturePattern = errors.New("ogg: bad capture pattern")
	// ErrBadVersion is returned for a page whose stream structure version
	// is not 0.
	ErrBadVersion = errors.New("ogg: unsupported stream structure version")
	// ErrTruncated is returned when a buffer doesn't yet hold a complete
	// page; it is not a corruption signal, just "wait for more bytes".
	ErrTruncated = errors.New("ogg: truncated page")
	// ErrBadSegs is returned for a page whose segment count is 0.
	ErrBadSegs = errors.New("ogg: invalid segment table size")
)

// ChecksumError reports a page whose CRC did not match its contents.
type ChecksumError struct {
	Found    uint32
	Expected uint32
}

func (e ChecksumError) Error() string {
	return fmt.Sprintf("ogg: bad page checksum: found %#x, expected %#x", e.Found, e.Expected)
}

// RawPage is a zero-copy view of one parsed page: its Lacing and Body
// slices alias the SyncBuffer's backing storage and are only valid until
// that buffer's next Reserve or Reset call. Call ToPage to obtain an
// owning copy that outlives the buffer.
type RawPage struct {
	Flags    byte
	Granule  int64
	Serial   uint32
	Sequence uint32
	Checksum uint32
	Lacing   []byte
	Body     []byte
}

// Page is an owning copy of a page: every slice is privately held and
// remains valid regardless of what happens to the buffer it came from.
type Page struct {
	Flags    byte
	Granule  int64
	Serial   uint32
	Sequence uint32
	Checksum uint32
	Lacing   []byte
	Body     []byte
}

func (p RawPage) Continued() bool { return p.Flags&FlagContinued != 0 }
func (p RawPage) BOS() bool       { return p.Flags&FlagBOS != 0 }
func (p RawPage) EOS() bool       { return p.Flags&FlagEOS != 0 }

func (p Page) Continued() bool { return p.Flags&FlagContinued != 0 }
func (p Page) BOS() bool       { return p.Flags&FlagBOS != 0 }
func (p Page) EOS() bool       { return p.Flags&FlagEOS != 0 }

// ToPage copies a RawPage's bytes out of its source buffer into a new,
// independently owned Page.
func (p RawPage) ToPage() Page {
	return Page{
		Flags:    p.Flags,
		Granule:  p.Granule,
		Serial:   p.Serial,
		Sequence: p.Sequence,
		Checksum: p.Checksum,
		Lacing:   append([]byte(nil), p.Lacing...),
		Body:     append([]byte(nil), p.Body...),
	}
}

// Raw returns a RawPage view of p's own storage. Since p already owns its
// slices, the view's validity is governed by p's lifetime, not a buffer's.
func (p Page) Raw() RawPage {
	return RawPage{
		Flags: p.Flags, Granule: p.Granule, Serial: p.Serial,
		Sequence: p.Sequence, Checksum: p.Checksum,
		Lacing: p.Lacing, Body: p.Body,
	}
}

// Clone returns a deep copy of an owning Page: deepcopy(p) == p, and the
// clone survives mutation of p's backing arrays.
func (p Page) Clone() Page {
	return Page{
		Flags: p.Flags, Granule: p.Granule, Serial: p.Serial,
		Sequence: p.Sequence, Checksum: p.Checksum,
		Lacing: append([]byte(nil), p.Lacing...),
		Body:   append([]byte(nil), p.Body...),
	}
}

// Equal compares two pages by value, ignoring backing-array identity.
func (p Page) Equal(o Page) bool {
	if p.Flags != o.Flags || p.Granule != o.Granule || p.Serial != o.Serial ||
		p.Sequence != o.Sequence || len(p.Lacing) != len(o.Lacing) || len(p.Body) != len(o.Body) {
		return false
	}
	return bytes.Equal(p.Lacing, o.Lacing) && bytes.Equal(p.Body, o.Body)
}

// Serialize renders a page to a freshly allocated byte slice: header,
// lacing table, and body, with the CRC computed and filled in per spec
// section 4.1 (the checksum field is folded as zero, then patched in).
func Serialize(flags byte, granule int64, serial, sequence uint32, lacing, body []byte) []byte {
	n := len(lacing)
	buf := make([]byte, headerSize+n+len(body))

	copy(buf[0:4], capturePattern[:])
	buf[4] = streamVersion
	buf[5] = flags
	binary.LittleEndian.PutUint64(buf[6:14], uint64(granule))
	binary.LittleEndian.PutUint32(buf[14:18], serial)
	binary.LittleEndian.PutUint32(buf[18:22], sequence)
	// buf[22:26] is left zero for the CRC pass below.
	buf[26] = byte(n)
	copy(buf[27:27+n], lacing)
	copy(buf[27+n:], body)

	crc := pageChecksum(buf)
	binary.LittleEndian.PutUint32(buf[22:26], crc)
	return buf
}

// Serialize renders p to a freshly allocated, CRC-stamped byte slice.
func (p Page) Serialize() []byte {
	return Serialize(p.Flags, p.Granule, p.Serial, p.Sequence, p.Lacing, p.Body)
}

// ParsePage parses one page from the front of buf, which must begin with
// the capture pattern. It returns a zero-copy view into buf, the number of
// bytes consumed, and any error.
//
// ErrTruncated means buf does not yet hold a complete page; the caller
// should treat that as "need more bytes", not corruption.
func ParsePage(buf []byte) (RawPage, int, error) {
	if len(buf) < headerSize {
		return RawPage{}, 0, ErrTruncated
	}
	if !bytes.Equal(buf[0:4], capturePattern[:]) {
		return RawPage{}, 0, ErrBadCapturePattern
	}
	if buf[4] != streamVersion {
		return RawPage{}, 0, ErrBadVersion
	}

	nsegs := int(buf[26])
	if nsegs < 1 {
		return RawPage{}, 0, ErrBadSegs
	}
	if len(buf) < headerSize+nsegs {
		return RawPage{}, 0, ErrTruncated
	}
	lacing := buf[headerSize : headerSize+nsegs]

	bodyLen := 0
	for _, l := range lacing {
		bodyLen += int(l)
	}
	total := headerSize + nsegs + bodyLen
	if len(buf) < total {
		return RawPage{}, 0, ErrTruncated
	}

	flags := buf[5]
	granule := int64(binary.LittleEndian.Uint64(buf[6:14]))
	serial := binary.LittleEndian.Uint32(buf[14:18])
	sequence := binary.LittleEndian.Uint32(buf[18:22])
	checksum := binary.LittleEndian.Uint32(buf[22:26])

	page := buf[0:total]
	var saved [4]byte
	copy(saved[:], page[22:26])
	page[22], page[23], page[24], page[25] = 0, 0, 0, 0
	computed := pageChecksum(page)
	copy(page[22:26], saved[:])
	if computed != checksum {
		return RawPage{}, 0, ChecksumError{Found: checksum, Expected: computed}
	}

	return RawPage{
		Flags: flags, Granule: granule, Serial: serial, Sequence: sequence,
		Checksum: checksum, Lacing: lacing, Body: buf[headerSize+nsegs : total],
	}, total, nil
}
