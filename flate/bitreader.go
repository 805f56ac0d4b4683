package flate

import (
	"bufio"
	"io"
)

// byteReader is the minimal read interface bitReader needs. If the caller's
// io.Reader doesn't already implement it, NewReader wraps it in a
// bufio.Reader.
type byteReader interface {
	io.Reader
	io.ByteReader
}

func asByteReader(r io.Reader) byteReader {
	if br, ok := r.(byteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// bitReader is an LSB-first bit reader: the low bit of the shift register is
// the next bit to be consumed. Bytes are pulled in order from src and shifted
// into the top of the register as it drains.
type bitReader struct {
	src    byteReader
	bits   uint64
	nbits  uint
	offset int64 // bytes consumed from src, for error reporting
	err    error
}

func newBitReader(r io.Reader) *bitReader {
	return &bitReader{src: asByteReader(r)}
}

// refill pulls bytes until at least n bits are available or the source is
// exhausted. It does not itself report EOF as an error; that only happens
// when a subsequent read can't be satisfied.
func (b *bitReader) refill(n uint) {
	for b.nbits < n && b.nbits <= 64-8 {
		if err := b.fillByte(); err != nil {
			return
		}
	}
}

// fillByte reads exactly one byte from src into the register. Huffman symbol
// decoding uses this directly, one byte at a time, instead of refill: a
// table lookup always peeks a fixed huffmanChunkBits-wide window regardless
// of a code's real length, so refilling to that width unconditionally would
// pull a byte that belongs to whatever follows the DEFLATE stream (a gzip or
// zlib footer) whenever the final symbol's true code is shorter than the
// chunk width. Filling one byte at a time and re-checking the real resolved
// code length after each byte keeps the reader from consuming past the
// stream's last genuine byte.
func (b *bitReader) fillByte() error {
	c, err := b.src.ReadByte()
	if err != nil {
		b.err = err
		return err
	}
	b.offset++
	b.bits |= uint64(c) << b.nbits
	b.nbits += 8
	return nil
}

// peek returns the next k bits without consuming them. k must be <= 57.
func (b *bitReader) peek(k uint) (uint32, error) {
	if b.nbits < k {
		b.refill(k)
		if b.nbits < k {
			if b.err != nil && b.err != io.EOF {
				return 0, b.err
			}
			return 0, ErrUnexpectedEOF
		}
	}
	return uint32(b.bits & (1<<k - 1)), nil
}

func (b *bitReader) consume(k uint) {
	b.bits >>= k
	b.nbits -= k
}

// read consumes and returns the next k bits, LSB-first.
func (b *bitReader) read(k uint) (uint32, error) {
	v, err := b.peek(k)
	if err != nil {
		return 0, err
	}
	b.consume(k)
	return v, nil
}

// alignToByte discards any partial byte, so the next read starts on a byte
// boundary of the underlying source.
func (b *bitReader) alignToByte() {
	n := b.nbits % 8
	b.bits >>= n
	b.nbits -= n
}

// readByte consumes a full aligned byte. Call alignToByte first if the
// register may hold a partial byte.
func (b *bitReader) readByte() (byte, error) {
	v, err := b.read(8)
	return byte(v), err
}

// readBytes fills p with raw bytes: first any whole bytes still buffered in
// the register, then the rest directly from src. Only valid immediately
// after alignToByte, when the register holds no partial byte.
func (b *bitReader) readBytes(p []byte) error {
	for b.nbits >= 8 && len(p) > 0 {
		p[0] = byte(b.bits)
		b.bits >>= 8
		b.nbits -= 8
		p = p[1:]
	}
	if len(p) == 0 {
		return nil
	}
	n, err := io.ReadFull(b.src, p)
	b.offset += int64(n)
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return ErrUnexpectedEOF
		}
		return err
	}
	return nil
}
