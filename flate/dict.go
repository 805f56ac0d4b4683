package flate

// circularBuffer is the decoder's 64 KiB history ring. It buffers decoded
// bytes until readFlush hands a contiguous span to the caller, and serves
// match back-references directly out of the same storage -- a reference
// never needs to look further back than histSize() bytes, which is always
// at least maxMatchOffset once the stream has produced that much output.
type circularBuffer struct {
	hist  []byte
	wrPos int
	rdPos int
	full  bool
}

func (d *circularBuffer) init(size int) {
	*d = circularBuffer{hist: make([]byte, size)}
}

// histSize reports how many bytes of valid history are available for a
// back-reference right now.
func (d *circularBuffer) histSize() int {
	if d.full {
		return len(d.hist)
	}
	return d.wrPos
}

// availRead reports how many decoded bytes are waiting for readFlush.
func (d *circularBuffer) availRead() int {
	return d.wrPos - d.rdPos
}

// availWrite reports how much room is left before the ring must wrap.
func (d *circularBuffer) availWrite() int {
	return len(d.hist) - d.wrPos
}

// writeSlice returns the free suffix of the ring a caller may copy a
// stored block's raw bytes into directly.
func (d *circularBuffer) writeSlice() []byte {
	return d.hist[d.wrPos:]
}

// writeMark records that n bytes were copied into the slice writeSlice
// returned.
func (d *circularBuffer) writeMark(n int) {
	d.wrPos += n
}

func (d *circularBuffer) writeByte(c byte) {
	d.hist[d.wrPos] = c
	d.wrPos++
}

// writeCopy repeats length bytes starting dist bytes before the write
// cursor, crossing the ring wrap if needed. It correctly handles
// length > dist (self-overlapping runs, e.g. "aaaaaaaaaa" from a single 'a'
// plus a distance-1 match) because each pass of the copy loop takes its
// source from srcPos up to the current write position, which includes the
// bytes earlier passes of the same call just wrote.
func (d *circularBuffer) writeCopy(dist, length int) int {
	dstBase := d.wrPos
	dstPos := dstBase
	endPos := dstPos + length
	if endPos > len(d.hist) {
		endPos = len(d.hist)
	}

	srcPos := dstPos - dist
	if srcPos < 0 {
		srcPos += len(d.hist)
		dstPos += copy(d.hist[dstPos:endPos], d.hist[srcPos:])
		srcPos = 0
	}

	for dstPos < endPos {
		dstPos += copy(d.hist[dstPos:endPos], d.hist[srcPos:dstPos])
	}

	d.wrPos = dstPos
	return dstPos - dstBase
}

// tryWriteCopy is the fast path: when the whole copy fits in the ring
// without wrapping or crossing the write cursor's start, it can run in one
// shot (still using the self-overlap trick above for length > dist).
func (d *circularBuffer) tryWriteCopy(dist, length int) int {
	dstPos := d.wrPos
	endPos := dstPos + length
	if dstPos < dist || endPos > len(d.hist) {
		return 0
	}
	dstBase := dstPos
	srcPos := dstPos - dist

	for dstPos < endPos {
		dstPos += copy(d.hist[dstPos:endPos], d.hist[srcPos:dstPos])
	}

	d.wrPos = dstPos
	return dstPos - dstBase
}

// readFlush returns the bytes written since the last readFlush and wraps
// the ring if the write cursor has reached the end.
func (d *circularBuffer) readFlush() []byte {
	toRead := d.hist[d.rdPos:d.wrPos]
	d.rdPos = d.wrPos
	if d.wrPos == len(d.hist) {
		d.wrPos, d.rdPos = 0, 0
		d.full = true
	}
	return toRead
}
