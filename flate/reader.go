package flate

import "io"

// Reader is the state machine that turns a raw DEFLATE bitstream back into
// bytes: block header -> (stored | fixed | dynamic) -> symbol loop, until a
// final block's end-of-block marker is seen. Each state is a step function
// resumed across Read calls, so a single block can span many Reads once the
// circularBuffer fills.
type Reader struct {
	br   *bitReader
	dict circularBuffer

	h1, h2 huffmanDecoder
	hl, hd *huffmanDecoder
	fixed  bool // current block is fixed-Huffman: hd special-cased, not h2

	bits     [maxNumLit + maxNumDist]int
	codebits [numCodes]int

	step      func(*Reader)
	stepState int
	final     bool
	err       error
	toRead    []byte
	copyLen   int
	copyDist  int
}

// NewReader returns a new io.ReadCloser that decompresses the raw DEFLATE
// stream read from r. It reports io.EOF once the final block's end-of-block
// marker has been consumed; any trailing bytes after that are left unread.
//
// The returned ReadCloser also implements Resetter, so it can be reused
// across streams without reallocating its history buffer.
func NewReader(r io.Reader) io.ReadCloser {
	initFixedDecoders()
	f := new(Reader)
	f.br = newBitReader(r)
	f.dict.init(2 * windowSize)
	f.step = (*Reader).nextBlock
	return f
}

// Resetter resets a ReadCloser returned by NewReader to read from a new
// underlying Reader, reusing its history buffer instead of allocating a
// fresh one.
type Resetter interface {
	Reset(r io.Reader) error
}

// Reset discards any buffered data and state and prepares f to read a fresh
// DEFLATE stream from r. The history buffer's storage is reused, but its
// contents are forgotten: a back-reference in the new stream can never
// resolve against the previous stream's output.
func (f *Reader) Reset(r io.Reader) error {
	hist := f.dict.hist
	*f = Reader{}
	f.br = newBitReader(r)
	f.dict = circularBuffer{hist: hist}
	f.step = (*Reader).nextBlock
	return nil
}

func (f *Reader) Read(b []byte) (int, error) {
	for {
		if len(f.toRead) > 0 {
			n := copy(b, f.toRead)
			f.toRead = f.toRead[n:]
			if len(f.toRead) == 0 {
				return n, f.err
			}
			return n, nil
		}
		if f.err != nil {
			return 0, f.err
		}
		f.step(f)
		if f.err != nil && len(f.toRead) == 0 {
			f.toRead = f.dict.readFlush()
		}
	}
}

// Close reports the first error Read encountered, or nil if the stream
// ended cleanly (io.EOF is not itself an error from the caller's view).
func (f *Reader) Close() error {
	if f.err == io.EOF {
		return nil
	}
	return f.err
}

func (f *Reader) nextBlock() {
	finalBit, err := f.br.read(1)
	if err != nil {
		f.err = err
		return
	}
	typ, err := f.br.read(2)
	if err != nil {
		f.err = err
		return
	}
	f.final = finalBit == 1
	switch typ {
	case 0:
		f.dataBlock()
	case 1:
		f.fixed = true
		f.hl = &fixedLiteralDecoder
		f.hd = nil
		f.huffmanBlock()
	case 2:
		f.fixed = false
		if f.err = f.readDynamicHeader(); f.err != nil {
			return
		}
		f.hl = &f.h1
		f.hd = &f.h2
		f.huffmanBlock()
	default:
		// BTYPE 11 is reserved.
		f.err = CorruptInputError(f.br.offset)
	}
}

// readDynamicHeader reads HLIT/HDIST/HCLEN, the code-length alphabet, and
// then HLIT+257+HDIST+1 literal/length and distance code lengths (honoring
// the repeat opcodes 16/17/18), per RFC 1951 section 3.2.7.
func (f *Reader) readDynamicHeader() error {
	v, err := f.br.read(5)
	if err != nil {
		return err
	}
	nlit := int(v) + 257
	if nlit > maxNumLit {
		return CorruptInputError(f.br.offset)
	}

	v, err = f.br.read(5)
	if err != nil {
		return err
	}
	ndist := int(v) + 1
	if ndist > maxNumDist {
		return CorruptInputError(f.br.offset)
	}

	v, err = f.br.read(4)
	if err != nil {
		return err
	}
	nclen := int(v) + 4

	for i := 0; i < nclen; i++ {
		v, err := f.br.read(3)
		if err != nil {
			return err
		}
		f.codebits[codeOrder[i]] = int(v)
	}
	for i := nclen; i < len(codeOrder); i++ {
		f.codebits[codeOrder[i]] = 0
	}
	if !f.h1.init(f.codebits[:]) {
		return CorruptInputError(f.br.offset)
	}

	for i, n := 0, nlit+ndist; i < n; {
		sym, err := f.h1.sym(f.br)
		if err != nil {
			return err
		}
		if sym < 16 {
			f.bits[i] = sym
			i++
			continue
		}

		var rep int
		var nb uint
		var repeated int
		switch sym {
		case 16:
			if i == 0 {
				return CorruptInputError(f.br.offset)
			}
			rep, nb, repeated = 3, 2, f.bits[i-1]
		case 17:
			rep, nb, repeated = 3, 3, 0
		case 18:
			rep, nb, repeated = 11, 7, 0
		default:
			return CorruptInputError(f.br.offset)
		}
		v, err := f.br.read(nb)
		if err != nil {
			return err
		}
		rep += int(v)
		if i+rep > n {
			return CorruptInputError(f.br.offset)
		}
		for j := 0; j < rep; j++ {
			f.bits[i] = repeated
			i++
		}
	}

	if !f.h1.init(f.bits[:nlit]) || !f.h2.init(f.bits[nlit:nlit+ndist]) {
		return CorruptInputError(f.br.offset)
	}
	return nil
}

// huffmanBlock decodes one Huffman-coded block (fixed or dynamic) into
// f.dict, resuming at the right point if a prior call returned early
// because the history buffer filled up.
func (f *Reader) huffmanBlock() {
	const (
		stateInit = iota
		stateCopy
	)

	switch f.stepState {
	case stateInit:
		goto readLiteral
	case stateCopy:
		goto copyHistory
	}

readLiteral:
	{
		sym, err := f.hl.sym(f.br)
		if err != nil {
			f.err = err
			return
		}
		switch {
		case sym < 256:
			f.dict.writeByte(byte(sym))
			if f.dict.availWrite() == 0 {
				f.toRead = f.dict.readFlush()
				f.step = (*Reader).huffmanBlock
				f.stepState = stateInit
				return
			}
			goto readLiteral
		case sym == endBlockMarker:
			f.finishBlock()
			return
		case sym < maxNumLit:
			i := sym - lengthCodesStart
			if i < 0 || i >= len(lengthBase) {
				f.err = CorruptInputError(f.br.offset)
				return
			}
			length := lengthBase[i]
			if n := lengthExtraBits[i]; n > 0 {
				v, err := f.br.read(uint(n))
				if err != nil {
					f.err = err
					return
				}
				length += int(v)
			}

			dsym, err := f.distSymbol()
			if err != nil {
				f.err = err
				return
			}
			if dsym >= len(distBase) {
				f.err = CorruptInputError(f.br.offset)
				return
			}
			dist := distBase[dsym]
			if n := distExtraBits[dsym]; n > 0 {
				v, err := f.br.read(uint(n))
				if err != nil {
					f.err = err
					return
				}
				dist += int(v)
			}

			if dist > f.dict.histSize() {
				f.err = CorruptInputError(f.br.offset)
				return
			}

			f.copyLen, f.copyDist = length, dist
			goto copyHistory
		default:
			f.err = CorruptInputError(f.br.offset)
			return
		}
	}

copyHistory:
	{
		cnt := f.dict.tryWriteCopy(f.copyDist, f.copyLen)
		if cnt == 0 {
			cnt = f.dict.writeCopy(f.copyDist, f.copyLen)
		}
		f.copyLen -= cnt

		if f.dict.availWrite() == 0 || f.copyLen > 0 {
			f.toRead = f.dict.readFlush()
			f.step = (*Reader).huffmanBlock
			f.stepState = stateCopy
			return
		}
		goto readLiteral
	}
}

// distSymbol decodes a distance code. Dynamic blocks use f.hd like any
// other canonical Huffman table; a fixed block's distance alphabet is
// genuinely incomplete per RFC 1951 (see fixedDistLengths), so it's read as
// a raw 5-bit field instead of through a huffmanDecoder.
func (f *Reader) distSymbol() (int, error) {
	if f.fixed {
		v, err := f.br.read(5)
		if err != nil {
			return 0, err
		}
		return int(reverse5(uint8(v))), nil
	}
	return f.hd.sym(f.br)
}

func reverse5(v uint8) uint8 {
	var r uint8
	for i := 0; i < 5; i++ {
		r = r<<1 | (v & 1)
		v >>= 1
	}
	return r
}

// dataBlock reads a stored block's LEN/NLEN header and begins copying it.
func (f *Reader) dataBlock() {
	f.br.alignToByte()
	var hdr [4]byte
	if err := f.br.readBytes(hdr[:]); err != nil {
		f.err = err
		return
	}
	n := int(hdr[0]) | int(hdr[1])<<8
	nn := int(hdr[2]) | int(hdr[3])<<8
	if uint16(nn) != uint16(^n) {
		f.err = CorruptInputError(f.br.offset)
		return
	}
	if n == 0 {
		f.toRead = f.dict.readFlush()
		f.finishBlock()
		return
	}
	f.copyLen = n
	f.copyStoredData()
}

func (f *Reader) copyStoredData() {
	buf := f.dict.writeSlice()
	if len(buf) > f.copyLen {
		buf = buf[:f.copyLen]
	}
	if err := f.br.readBytes(buf); err != nil {
		f.err = err
		return
	}
	f.dict.writeMark(len(buf))
	f.copyLen -= len(buf)

	if f.dict.availWrite() == 0 || f.copyLen > 0 {
		f.toRead = f.dict.readFlush()
		f.step = (*Reader).copyStoredData
		return
	}
	f.finishBlock()
}

func (f *Reader) finishBlock() {
	if f.final {
		if f.dict.availRead() > 0 {
			f.toRead = f.dict.readFlush()
		}
		f.err = io.EOF
	}
	f.stepState = 0
	f.step = (*Reader).nextBlock
}

// Decompress is the one-shot form: it decodes the entire raw DEFLATE stream
// from r and writes it to w.
func Decompress(w io.Writer, r io.Reader) error {
	rc := NewReader(r)
	defer rc.Close()
	if _, err := io.Copy(w, rc); err != nil {
		return err
	}
	return rc.Close()
}
