package flate

import "io"

// Writer compresses a stream of bytes into DEFLATE blocks. It owns the
// encoder's SlidingWindow, HashChain, and Tokenizer for the lifetime of the
// stream; only the token buffer and BlockWriter reset per block.
type Writer struct {
	dst   io.Writer
	level int

	bw     *blockWriter
	window *slidingWindow
	chain  *hashChain
	tok    *tokenizer

	storeOnly bool
	storeBuf  []byte
	tokens    []token

	err    error
	closed bool
}

// NewWriter returns a Writer that compresses data written to it and writes
// the compressed form to w, at the given level. Valid levels are
// HuffmanOnly, NoCompression, and 4 through 9 (see Fast, Default, Best).
// Any other level returns ErrInvalidLevel.
func NewWriter(w io.Writer, level int) (*Writer, error) {
	if !validLevel(level) {
		return nil, ErrInvalidLevel
	}
	dw := new(Writer)
	dw.init(w, level)
	return dw, nil
}

// NewHuffmanOnlyWriter returns a Writer that never searches for LZ77
// matches, only Huffman-codes literals. Useful for data that has already
// been compressed by something else and no longer has exploitable
// repetition, such as a second compression pass over LZ4/Snappy output.
func NewHuffmanOnlyWriter(w io.Writer) *Writer {
	dw := new(Writer)
	dw.init(w, HuffmanOnly)
	return dw
}

func (w *Writer) init(dst io.Writer, level int) {
	*w = Writer{dst: dst, level: level}
	w.bw = newBlockWriter(dst)
	w.storeOnly = level == NoCompression
	if w.storeOnly {
		w.storeBuf = make([]byte, 0, maxStoreBlockSize)
	} else {
		huffmanOnly := level == HuffmanOnly
		var args levelArgs
		if !huffmanOnly {
			args = levelTable[level]
		}
		w.window = newSlidingWindow()
		w.chain = newHashChain(len(w.window.buf))
		w.tok = newTokenizer(w.window, w.chain, args, huffmanOnly)
		w.tokens = make([]token, 0, maxFlateBlockTokens)
	}
}

// Reset discards w's state and makes it equivalent to the result of
// NewWriter called with dst and w's original level.
func (w *Writer) Reset(dst io.Writer) {
	w.init(dst, w.level)
}

// Write buffers p for compression, sliding the window and flushing full
// blocks as needed. The returned n is always len(p) on success.
func (w *Writer) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.closed {
		return 0, errWriterClosed
	}
	if w.storeOnly {
		return w.writeStored(p)
	}

	total := len(p)
	for len(p) > 0 {
		free := w.window.writable()
		if len(free) == 0 {
			// slide physically discards the buffer's lower half, which is
			// only safe once every byte in it has been handed to a block
			// writer. A long run of matches can fill the whole window
			// without ever reaching maxFlateBlockTokens, so commit here
			// unconditionally rather than assume the token cap already did.
			if len(w.tokens) > 0 || len(w.window.tokensBuffer()) > 0 {
				if err := w.flushBlock(false); err != nil {
					w.err = err
					return total - len(p), err
				}
			}
			w.window.slide()
			w.chain.slide(windowSize)
			free = w.window.writable()
		}
		n := copy(free, p)
		w.window.written(n)
		p = p[n:]

		if err := w.fill(false); err != nil {
			w.err = err
			return total - len(p), err
		}
	}
	return total, nil
}

// writeStored is the level-0 path: no tokenizer, no Huffman coding, just
// stored blocks chunked to the RFC's 16-bit LEN field. Bytes are buffered
// until a block fills (or Flush/Close forces one out), so a short stream
// compresses to a single final stored block rather than a data block plus
// an empty terminator.
func (w *Writer) writeStored(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		room := maxStoreBlockSize - len(w.storeBuf)
		if room == 0 {
			if err := w.bw.writeStoredBlock(w.storeBuf, 0); err != nil {
				w.err = err
				return total - len(p), err
			}
			w.storeBuf = w.storeBuf[:0]
			room = maxStoreBlockSize
		}
		n := len(p)
		if n > room {
			n = room
		}
		w.storeBuf = append(w.storeBuf, p[:n]...)
		p = p[n:]
	}
	return total, nil
}

// fill runs the tokenizer over everything currently buffered in the
// window, flushing a block whenever the token buffer fills. When flush is
// set, the tokenizer also consumes the short tail the match finder can't
// use, so nothing written stays stuck in the window.
func (w *Writer) fill(flush bool) error {
	for {
		var more bool
		w.tokens, more = w.tok.step(flush, w.tokens)
		if !more {
			return nil
		}
		if len(w.tokens) >= maxFlateBlockTokens {
			if err := w.flushBlock(false); err != nil {
				return err
			}
		}
	}
}

// flushBlock resolves any lazy-matching state the tokenizer is still
// holding, then hands the token list and the raw bytes it spans to the
// block writer. Resolving first keeps the two in agreement: tokensBuffer
// must cover exactly the bytes the tokens decode to, or a stored-block
// fallback would emit a byte the next block's tokens repeat.
func (w *Writer) flushBlock(final bool) error {
	w.tokens = w.tok.flushPending(w.tokens)
	raw := w.window.tokensBuffer()
	if err := w.bw.writeBlock(w.tokens, raw, final); err != nil {
		return err
	}
	w.window.commit()
	w.tokens = w.tokens[:0]
	return nil
}

// Flush forces everything written so far into the compressed output as a
// non-final block, so a reader can recover it without waiting for Close.
// Unlike Close, Flush may be called any number of times and more data may
// follow it.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return errWriterClosed
	}
	if w.storeOnly {
		if err := w.bw.writeStoredBlock(w.storeBuf, 0); err != nil {
			w.err = err
			return err
		}
		w.storeBuf = w.storeBuf[:0]
		return w.bw.flush()
	}
	if err := w.fill(true); err != nil {
		w.err = err
		return err
	}
	if err := w.flushBlock(false); err != nil {
		w.err = err
		return err
	}
	// A Huffman block can end mid-byte, and a decoder reads the next block
	// header from the very next bit, so zero padding alone would be misread.
	// An empty stored block ends on a byte boundary by itself.
	if err := w.bw.writeStoredBlock(nil, 0); err != nil {
		w.err = err
		return err
	}
	return w.bw.flush()
}

// Close flushes any remaining data as a final block and closes the writer.
// Calling Close more than once is a no-op: it returns whatever error (or
// nil) the first call produced.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	if w.err != nil {
		return w.err
	}
	if w.storeOnly {
		if err := w.bw.writeStoredBlock(w.storeBuf, 1); err != nil {
			w.err = err
			return err
		}
		w.storeBuf = w.storeBuf[:0]
		w.err = w.bw.flush()
		return w.err
	}
	if err := w.fill(true); err != nil {
		w.err = err
		return err
	}
	if err := w.flushBlock(true); err != nil {
		w.err = err
		return err
	}
	w.err = w.bw.flush()
	return w.err
}

// Compress is the one-shot form: it reads all of r, compresses it at level,
// and writes the result to w.
func Compress(w io.Writer, r io.Reader, level int) error {
	fw, err := NewWriter(w, level)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, r); err != nil {
		fw.Close()
		return err
	}
	return fw.Close()
}
