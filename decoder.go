package ogg

import (
	"errors"
	"io"
)

var (
	// ErrUnknownSerialOnOpen is returned by Open for a serial that was
	// never seen carrying a BOS page.
	ErrUnknownSerialOnOpen = errors.New("ogg: unknown serial number")
	// ErrDoubleOpen is returned by Open for a serial that is already open.
	ErrDoubleOpen = errors.New("ogg: stream already open")
	// ErrClosedResource is returned by operations on a Stream or serial
	// that has already been closed.
	ErrClosedResource = errors.New("ogg: stream is closed")
	// ErrSeekUnsupported is returned by seek operations when the
	// Decoder's underlying source does not implement io.Seeker.
	ErrSeekUnsupported = errors.New("ogg: source does not support seeking")
)

// readChunk is how many bytes the Decoder asks for from its source at a
// time when the sync buffer needs more data.
const readChunk = 4096

// streamState tracks one logical stream's open/closed status and
// reassembly state as seen by the physical decoder.
type streamState struct {
	serial uint32
	open   bool
	in     *streamIn
	queue  []Page
	sawEOS bool
}

// Decoder demultiplexes a byte source into logical streams, discovering
// each stream's BOS page up front and serving pages to whichever stream
// asks for them, buffering pages for streams that aren't ready yet.
type Decoder struct {
	src    io.Reader
	seeker io.Seeker
	owned  io.Closer

	sync *SyncBuffer

	streams map[uint32]*streamState
	order   []uint32

	prequeue []Page
	chaining bool
}

// NewDecoder wraps src and discovers its BOS preamble. If src also
// implements io.Seeker, seek operations are available; if it implements
// io.Closer, wrap with NewDecoderCloser instead so CloseAll releases it.
func NewDecoder(src io.Reader) (*Decoder, error) {
	d := &Decoder{
		src:     src,
		sync:    NewSyncBuffer(),
		streams: make(map[uint32]*streamState),
	}
	if sk, ok := src.(io.Seeker); ok {
		d.seeker = sk
	}
	if err := d.discoverBOS(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewDecoderCloser is like NewDecoder but also arranges for src to be
// closed when the Decoder's CloseAll is called.
func NewDecoderCloser(src io.ReadCloser) (*Decoder, error) {
	d, err := NewDecoder(src)
	if err != nil {
		return nil, err
	}
	d.owned = src
	return d, nil
}

// Serials returns the serial numbers discovered so far, in the order
// their BOS pages were seen.
func (d *Decoder) Serials() []uint32 {
	return append([]uint32(nil), d.order...)
}

// discoverBOS reads physical pages until a non-BOS page is seen,
// registering every BOS serial along the way and buffering every page
// read (BOS or not) for later delivery via ReadPageFor.
func (d *Decoder) discoverBOS() error {
	for {
		p, err := d.readPhysical()
		if err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		d.prequeue = append(d.prequeue, *p)
		if p.BOS() {
			d.registerSerial(p.Serial)
			continue
		}
		return nil
	}
}

func (d *Decoder) registerSerial(serial uint32) {
	if _, ok := d.streams[serial]; ok {
		return
	}
	st := &streamState{serial: serial, in: newStreamIn(serial)}
	d.streams[serial] = st
	d.order = append(d.order, serial)
}

// readPhysical reads the next raw page straight from the sync buffer,
// filling it from src as needed. It returns a nil page on clean EOF.
func (d *Decoder) readPhysical() (*Page, error) {
	for {
		out := d.sync.Pageout()
		switch out.Result {
		case PageoutPage:
			p := out.Page.ToPage()
			return &p, nil
		case PageoutResync:
			continue
		case PageoutNeedMore:
			n, err := d.fill()
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, nil
			}
		}
	}
}

// fill reads one chunk from src into the sync buffer. A clean io.EOF is
// swallowed: per the package's data-loss policy, running out of bytes
// mid-resync is not reported as an error, only as "no more pages".
func (d *Decoder) fill() (int, error) {
	buf := d.sync.Reserve(readChunk)
	n, err := d.src.Read(buf)
	d.sync.Wrote(n)
	if err != nil {
		if err == io.EOF {
			return n, nil
		}
		return n, err
	}
	return n, nil
}

// nextPhysicalPage returns the next page in physical order, draining the
// BOS-discovery prequeue first, and handling chained-link rediscovery
// once every known stream has reported EOS.
func (d *Decoder) nextPhysicalPage() (Page, bool, error) {
	if len(d.prequeue) > 0 {
		p := d.prequeue[0]
		d.prequeue = d.prequeue[1:]
		return p, true, nil
	}

	p, err := d.readPhysical()
	if err != nil {
		return Page{}, false, err
	}
	if p == nil {
		return Page{}, false, nil
	}

	if d.chaining && p.BOS() {
		d.streams = make(map[uint32]*streamState)
		d.order = nil
		d.chaining = false
	}
	if p.BOS() {
		d.registerSerial(p.Serial)
	}
	return *p, true, nil
}

// ReadPage returns the next page in physical order, regardless of serial.
func (d *Decoder) ReadPage() (Page, bool, error) {
	p, ok, err := d.nextPhysicalPage()
	if err != nil || !ok {
		return Page{}, ok, err
	}
	if p.EOS() {
		d.noteEOS(p.Serial)
	}
	return p, true, nil
}

// ReadPageFor returns the next page belonging to serial, buffering any
// other known serial's pages it encounters along the way for their own
// later ReadPageFor calls, and discarding pages for unknown or unopened
// serials.
func (d *Decoder) ReadPageFor(serial uint32) (Page, bool, error) {
	st, ok := d.streams[serial]
	if !ok {
		return Page{}, false, ErrUnknownSerialOnOpen
	}
	if !st.open {
		return Page{}, false, ErrClosedResource
	}

	if len(st.queue) > 0 {
		p := st.queue[0]
		st.queue = st.queue[1:]
		return p, true, nil
	}

	for {
		p, ok, err := d.nextPhysicalPage()
		if err != nil || !ok {
			return Page{}, ok, err
		}
		if p.EOS() {
			d.noteEOS(p.Serial)
		}
		if p.Serial == serial {
			return p, true, nil
		}
		if other, known := d.streams[p.Serial]; known && other.open {
			other.queue = append(other.queue, p)
		}
		// Unknown or unopened serial: silently dropped.
	}
}

// noteEOS records that a stream has reached its end, and flags a pending
// chained link once every known stream has done so.
func (d *Decoder) noteEOS(serial uint32) {
	st, ok := d.streams[serial]
	if !ok {
		return
	}
	st.sawEOS = true

	for _, s := range d.order {
		if !d.streams[s].sawEOS {
			return
		}
	}
	d.chaining = true
}

// Open begins reading packets for serial, which must already be known
// from a BOS page discovered so far.
func (d *Decoder) Open(serial uint32) (*Stream, error) {
	st, ok := d.streams[serial]
	if !ok {
		return nil, ErrUnknownSerialOnOpen
	}
	if st.open {
		return nil, ErrDoubleOpen
	}
	st.open = true
	return &Stream{decoder: d, serial: serial}, nil
}

// Close closes one logical stream, discarding its buffered pages.
func (d *Decoder) Close(serial uint32) error {
	st, ok := d.streams[serial]
	if !ok {
		return ErrUnknownSerialOnOpen
	}
	st.open = false
	st.queue = nil
	return nil
}

// CloseAll closes every open stream and, if the source was obtained via
// NewDecoderCloser, closes it too.
func (d *Decoder) CloseAll() error {
	for _, st := range d.streams {
		st.open = false
		st.queue = nil
	}
	if d.owned != nil {
		return d.owned.Close()
	}
	return nil
}

// resetAfterSeek clears all buffered and in-flight state following a
// position change on the underlying source.
func (d *Decoder) resetAfterSeek() {
	d.sync.Reset()
	d.prequeue = nil
	d.chaining = false
	for _, st := range d.streams {
		st.in.reset()
		st.queue = nil
		st.sawEOS = false
	}
}

// Seek moves the underlying source to an absolute byte offset and resets
// all reassembly state. It requires the Decoder's source to support
// io.Seeker.
func (d *Decoder) Seek(offset int64) error {
	if d.seeker == nil {
		return ErrSeekUnsupported
	}
	if _, err := d.seeker.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	d.resetAfterSeek()
	return nil
}

// Skip moves the underlying source by delta bytes relative to its
// current position and resets all reassembly state.
func (d *Decoder) Skip(delta int64) error {
	if d.seeker == nil {
		return ErrSeekUnsupported
	}
	if _, err := d.seeker.Seek(delta, io.SeekCurrent); err != nil {
		return err
	}
	d.resetAfterSeek()
	return nil
}

// SeekStart moves the underlying source to its beginning.
func (d *Decoder) SeekStart() error { return d.Seek(0) }

// SeekEnd moves the underlying source to its end.
func (d *Decoder) SeekEnd() error {
	if d.seeker == nil {
		return ErrSeekUnsupported
	}
	if _, err := d.seeker.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	d.resetAfterSeek()
	return nil
}
