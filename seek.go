package ogg

import "io"

// SeekToGranule positions the decoder so that the next packets read from
// serial start at or just before target, by bisecting the underlying
// source on byte offset and comparing the granule positions of the pages
// found there. It requires a seekable source.
func (d *Decoder) SeekToGranule(serial uint32, target int64) error {
	if d.seeker == nil {
		return ErrSeekUnsupported
	}

	minPos := int64(0)
	maxPos, err := d.seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	for maxPos-minPos > readChunk {
		mid := minPos + (maxPos-minPos)/2

		if _, err := d.seeker.Seek(mid, io.SeekStart); err != nil {
			return err
		}
		d.sync.Reset()

		page, pos, found, err := d.scanForUsablePage(serial, maxPos)
		if err != nil {
			return err
		}
		if !found {
			maxPos = mid
			continue
		}

		if page.Granule < target {
			minPos = pos
		} else {
			maxPos = mid
		}
	}

	return d.Seek(minPos)
}

// scanForUsablePage reads forward from the current source position
// looking for a page belonging to serial with a known granule position,
// stopping once the approximate read position passes limit. The returned
// position is the source offset recorded just before the read that
// yielded the page, which is approximate since the buffer reads ahead in
// readChunk-sized gulps.
func (d *Decoder) scanForUsablePage(serial uint32, limit int64) (Page, int64, bool, error) {
	for {
		pos, err := d.seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return Page{}, 0, false, err
		}
		if pos > limit {
			return Page{}, 0, false, nil
		}

		p, err := d.readPhysical()
		if err != nil {
			return Page{}, 0, false, err
		}
		if p == nil {
			return Page{}, 0, false, nil
		}
		if p.Serial != serial || p.Granule < 0 {
			continue
		}
		return *p, pos, true, nil
	}
}

// SyncToGranule returns the granule position of the earliest page that
// resolves a currently-pending or next-read packet for serial, reading
// and feeding in pages as needed. SeekToGranule does not call it; it
// only repositions the source, and SyncToGranule then reports the granule
// position reached from there.
func (d *Decoder) SyncToGranule(serial uint32) (int64, bool, error) {
	st, ok := d.streams[serial]
	if !ok {
		return 0, false, ErrUnknownSerialOnOpen
	}

	for st.in.hasQueued() {
		if pkt, ok := st.in.packetout(); ok && pkt.Granule != -1 {
			return pkt.Granule, true, nil
		}
	}

	for {
		p, ok, err := d.ReadPageFor(serial)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}
		// A sequence gap here just means reassembly restarted cleanly
		// on this page; either way we only care about the granule.
		_ = st.in.pagein(p.Raw())
		if p.Granule != -1 {
			for st.in.hasQueued() {
				st.in.packetout()
			}
			return p.Granule, true, nil
		}
	}
}

// LastPage scans the final bytes of a seekable source for the last
// complete page it contains, regardless of serial. It's used to find a
// stream's final granule position (its overall duration) without reading
// the entire source.
func (d *Decoder) LastPage() (Page, bool, error) {
	if d.seeker == nil {
		return Page{}, false, ErrSeekUnsupported
	}

	end, err := d.seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return Page{}, false, err
	}
	start := end - maxPageSize
	if start < 0 {
		start = 0
	}
	if _, err := d.seeker.Seek(start, io.SeekStart); err != nil {
		return Page{}, false, err
	}
	d.sync.Reset()

	var last Page
	found := false
	for {
		p, err := d.readPhysical()
		if err != nil {
			return Page{}, false, err
		}
		if p == nil {
			break
		}
		last = *p
		found = true
	}
	return last, found, nil
}
