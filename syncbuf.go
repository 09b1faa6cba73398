package ogg

import "bytes"

// PageoutResult classifies the outcome of one SyncBuffer.Pageout call.
type PageoutResult int

const (
	// PageoutPage means a complete, CRC-valid page was found and is
	// returned in the Page field.
	PageoutPage PageoutResult = iota
	// PageoutNeedMore means the buffer doesn't hold a full page yet;
	// the caller should Reserve/Wrote more bytes and call Pageout again.
	PageoutNeedMore
	// PageoutResync means one or more bytes were skipped while
	// recovering the capture pattern after corrupted or spurious data.
	// No page is returned; call Pageout again to get the next one.
	PageoutResync
)

// PageoutOutcome is the result of one Pageout call.
type PageoutOutcome struct {
	Result  PageoutResult
	Page    RawPage
	Skipped int
}

// SyncBuffer is a growable byte reservoir that resynchronizes a raw byte
// stream into a sequence of pages, tolerating corruption and truncation by
// scanning forward for the "OggS" capture pattern.
//
// Callers drive it by Reserve-ing space, filling it (e.g. from an
// io.Reader), calling Wrote to record how much was filled, then calling
// Pageout in a loop until it reports PageoutNeedMore.
type SyncBuffer struct {
	buf      []byte
	read     int
	write    int
	unsynced bool
}

// NewSyncBuffer returns an empty, unsynced SyncBuffer.
func NewSyncBuffer() *SyncBuffer {
	return &SyncBuffer{unsynced: true}
}

// Pending reports how many unconsumed bytes are currently buffered.
func (s *SyncBuffer) Pending() int { return s.write - s.read }

// Reserve returns a slice of at least n free bytes at the end of the
// buffer, compacting or growing the backing array as needed. The caller
// fills some prefix of the returned slice and reports how much via Wrote.
func (s *SyncBuffer) Reserve(n int) []byte {
	if s.read > 0 && (s.read == s.write || cap(s.buf)-s.write < n) {
		copy(s.buf, s.buf[s.read:s.write])
		s.write -= s.read
		s.read = 0
	}
	if cap(s.buf)-s.write < n {
		grown := make([]byte, (s.write+n)*2)
		copy(grown, s.buf[:s.write])
		s.buf = grown
	}
	if len(s.buf) < s.write+n {
		s.buf = s.buf[:s.write+n]
	}
	return s.buf[s.write : s.write+n]
}

// Wrote records that n bytes were filled into the slice most recently
// returned by Reserve.
func (s *SyncBuffer) Wrote(n int) { s.write += n }

// Reset drops all buffered bytes and marks the buffer unsynced, as after a
// seek: the byte immediately following is not known to be a page boundary,
// so the next Pageout call must rescan for the capture pattern rather than
// trust a leftover byte offset.
func (s *SyncBuffer) Reset() {
	s.read = 0
	s.write = 0
	s.unsynced = true
}

// Pageout attempts to extract the next page from the buffered bytes.
//
// On PageoutResync, the skipped bytes have already been consumed; no page
// is returned this call even if one immediately follows the resync point.
// The caller must call Pageout again to retrieve it. This mirrors the
// observable behavior of a corrupted stream: sync loss is reported before
// the next good page, never bundled with it.
func (s *SyncBuffer) Pageout() PageoutOutcome {
	pending := s.buf[s.read:s.write]

	i := bytes.Index(pending, capturePattern[:])
	if i < 0 {
		// No capture pattern anywhere in the buffered bytes. Keep the
		// last few bytes (a partial match straddling the next read)
		// and report however many we dropped.
		keep := len(pending)
		if keep > 3 {
			keep = 3
		}
		skipped := len(pending) - keep
		s.read = s.write - keep
		if skipped > 0 {
			s.unsynced = true
			return PageoutOutcome{Result: PageoutResync, Skipped: skipped}
		}
		return PageoutOutcome{Result: PageoutNeedMore}
	}

	if i > 0 {
		s.read += i
		s.unsynced = true
		return PageoutOutcome{Result: PageoutResync, Skipped: i}
	}

	page, n, err := ParsePage(pending)
	if err == nil {
		s.read += n
		s.unsynced = false
		return PageoutOutcome{Result: PageoutPage, Page: page}
	}
	if err == ErrTruncated {
		return PageoutOutcome{Result: PageoutNeedMore}
	}

	// Capture pattern matched at offset 0 but the page didn't parse
	// (bad version, bad segment count, or a failed checksum): it's a
	// false-positive match inside corrupt data. Skip one byte and let
	// the next call resume scanning from there.
	s.read++
	s.unsynced = true
	return PageoutOutcome{Result: PageoutResync, Skipped: 1}
}
