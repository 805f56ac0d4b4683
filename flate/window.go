package flate

// slidingWindow is the encoder's history+lookahead buffer. It holds twice
// the maximum match distance so a full window of back-reference history is
// always available without reading past the buffer end.
//
// Invariant: fp <= rp <= wp <= len(buf). wp - fp never exceeds len(buf).
type slidingWindow struct {
	buf    []byte
	wp     int // next byte to write goes here
	rp     int // tokenizer's current position (start of lookahead)
	fp     int // start of bytes not yet handed to a block writer
	closed bool
}

func newSlidingWindow() *slidingWindow {
	return &slidingWindow{buf: make([]byte, 2*windowSize)}
}

// writable returns the free suffix of the buffer that new input can be
// copied into. It is empty exactly when the window needs to slide.
func (w *slidingWindow) writable() []byte {
	return w.buf[w.wp:]
}

// written records that n bytes were copied into the slice writable()
// returned.
func (w *slidingWindow) written(n int) {
	w.wp += n
}

// slide copies the upper half of the buffer down to the lower half and
// shifts every position by -windowSize. Called only when writable() is
// empty.
func (w *slidingWindow) slide() {
	copy(w.buf[0:windowSize], w.buf[windowSize:])
	w.wp -= windowSize
	w.rp -= windowSize
	if w.fp > windowSize {
		w.fp -= windowSize
	} else {
		w.fp = 0
	}
}

// activeLookahead returns the bytes available at the tokenizer's current
// position. It returns nil if there isn't enough to act on yet, unless
// flush is set, in which case any remaining tail is returned.
func (w *slidingWindow) activeLookahead(flush bool) []byte {
	avail := w.wp - w.rp
	if avail == 0 {
		return nil
	}
	if !flush && avail < minMatchLength {
		return nil
	}
	return w.buf[w.rp:w.wp]
}

// advance moves the tokenizer's position forward by step bytes, which have
// just been consumed as either a literal or part of a match.
func (w *slidingWindow) advance(step int) {
	w.rp += step
}

// match extends a candidate match between prevPos and pos as far as the
// bytes agree, up to the RFC maximum length. It returns 0 if the extended
// length doesn't reach minLen.
func (w *slidingWindow) match(prevPos, pos, minLen int) int {
	max := w.wp - pos
	if max > maxMatchLength {
		max = maxMatchLength
	}
	if max <= 0 || prevPos < 0 {
		return 0
	}
	n := 0
	for n < max && w.buf[prevPos+n] == w.buf[pos+n] {
		n++
	}
	if n < minLen {
		return 0
	}
	return n
}

// tokensBuffer returns the raw bytes spanned by the tokens produced since
// the last call to commit -- the literal bytes a BlockWriter needs on hand
// in case it decides to emit a stored block instead.
func (w *slidingWindow) tokensBuffer() []byte {
	return w.buf[w.fp:w.rp]
}

// commit marks everything up to the current tokenizer position as handed
// off to a block writer.
func (w *slidingWindow) commit() {
	w.fp = w.rp
}

func (w *slidingWindow) pos() int { return w.rp }
