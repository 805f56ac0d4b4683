// Package zlib reads and writes zlib-compressed data, as specified in
// RFC 1950. It wraps github.com/jonjohnsonjr/dflate/flate's raw DEFLATE
// codec with the zlib header/footer framing and an ADLER-32 checksum.
//
// Preset dictionaries (the zlib FDICT flag) are out of scope: Writer never
// sets FDICT, and Reader rejects a stream that does.
package zlib

import (
	"bufio"
	"encoding/binary"
	"errors"
	"hash"
	"hash/adler32"
	"io"

	"github.com/jonjohnsonjr/dflate/flate"
)

const (
	zlibDeflate   = 8
	zlibMaxWindow = 7 // CINFO for a 32 KiB window, log2(32768)-8

	fdictMask = 1 << 5
)

// ErrHeader reports a malformed zlib header: wrong compression method,
// invalid FCHECK, or a preset dictionary (FDICT), which this package does
// not support.
var ErrHeader = errors.New("zlib: invalid header")

// ErrChecksum reports an ADLER-32 mismatch between the zlib footer and the
// decompressed data actually produced.
var ErrChecksum = errors.New("zlib: checksum mismatch")

// Writer writes the 2-byte zlib header, the DEFLATE body, and a big-endian
// ADLER-32 footer.
type Writer struct {
	w        io.Writer
	level    int
	fw       *flate.Writer
	adler    hash.Hash32
	wroteHdr bool
	closed   bool
	err      error
}

// NewWriter returns a Writer that compresses data at the default level
// (flate.Default) and writes the zlib-framed result to w.
func NewWriter(w io.Writer) *Writer {
	z, _ := NewWriterLevel(w, flate.Default)
	return z
}

// NewWriterLevel is like NewWriter but specifies the compression level.
func NewWriterLevel(w io.Writer, level int) (*Writer, error) {
	fw, err := flate.NewWriter(w, level)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w, level: level, fw: fw, adler: adler32.New()}, nil
}

func (z *Writer) writeHeader() error {
	if z.wroteHdr {
		return nil
	}
	z.wroteHdr = true
	cmf := byte(zlibMaxWindow<<4 | zlibDeflate)
	flevel := levelHint(z.level)
	flg := flevel << 6
	if rem := (int(cmf)<<8 | int(flg)) % 31; rem != 0 {
		flg += byte(31 - rem)
	}
	_, err := z.w.Write([]byte{cmf, flg})
	return err
}

// levelHint maps a flate level onto the 2-bit FLEVEL field (RFC 1950
// section 2.2): purely informational, never consulted by a decoder.
func levelHint(level int) byte {
	switch {
	case level == flate.NoCompression || level == flate.HuffmanOnly:
		return 0
	case level <= flate.Level5:
		return 1
	case level == flate.Level6:
		return 2
	default:
		return 3
	}
}

func (z *Writer) Write(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	if err := z.writeHeader(); err != nil {
		z.err = err
		return 0, err
	}
	n, err := z.fw.Write(p)
	z.adler.Write(p[:n])
	if err != nil {
		z.err = err
	}
	return n, err
}

// Flush flushes any pending compressed data without closing the stream.
func (z *Writer) Flush() error {
	if z.err != nil {
		return z.err
	}
	if err := z.writeHeader(); err != nil {
		z.err = err
		return err
	}
	return z.fw.Flush()
}

// Close flushes the DEFLATE body and appends the ADLER-32 footer. Calling
// Close more than once is a no-op.
func (z *Writer) Close() error {
	if z.closed {
		return z.err
	}
	z.closed = true
	if z.err != nil {
		return z.err
	}
	if err := z.writeHeader(); err != nil {
		z.err = err
		return err
	}
	if err := z.fw.Close(); err != nil {
		z.err = err
		return err
	}
	var footer [4]byte
	binary.BigEndian.PutUint32(footer[:], z.adler.Sum32())
	if _, err := z.w.Write(footer[:]); err != nil {
		z.err = err
		return err
	}
	return nil
}

// byteReader is the minimal read interface the footer reader needs.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// Reader reads the zlib header, decompresses the DEFLATE body, and
// verifies the ADLER-32 footer.
type Reader struct {
	r     byteReader
	fr    io.ReadCloser
	adler hash.Hash32
	err   error
}

// NewReader returns a Reader for the zlib stream read from r.
func NewReader(r io.Reader) (*Reader, error) {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	var hdr [2]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	cmf, flg := hdr[0], hdr[1]
	if cmf&0x0f != zlibDeflate {
		return nil, ErrHeader
	}
	if (int(cmf)<<8|int(flg))%31 != 0 {
		return nil, ErrHeader
	}
	if flg&fdictMask != 0 {
		return nil, ErrHeader
	}
	return &Reader{r: br, fr: flate.NewReader(br), adler: adler32.New()}, nil
}

// Read decompresses the zlib body. It returns io.EOF once the trailing
// ADLER-32 has been checked; a mismatch is reported as ErrChecksum.
func (z *Reader) Read(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	n, err := z.fr.Read(p)
	z.adler.Write(p[:n])
	if err == io.EOF {
		if ferr := z.readFooter(); ferr != nil {
			z.err = ferr
			return n, ferr
		}
		z.err = io.EOF
		return n, io.EOF
	}
	if err != nil {
		z.err = err
	}
	return n, err
}

func (z *Reader) readFooter() error {
	var footer [4]byte
	if _, err := io.ReadFull(z.r, footer[:]); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if binary.BigEndian.Uint32(footer[:]) != z.adler.Sum32() {
		return ErrChecksum
	}
	return nil
}

func (z *Reader) Close() error {
	return z.fr.Close()
}

// Compress is the one-shot form: it reads all of r, zlib-compresses it at
// level, and writes the result to w.
func Compress(w io.Writer, r io.Reader, level int) error {
	zw, err := NewWriterLevel(w, level)
	if err != nil {
		return err
	}
	if _, err := io.Copy(zw, r); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Decompress is the one-shot form: it decodes the zlib stream read from r
// and writes the decompressed bytes to w.
func Decompress(w io.Writer, r io.Reader) error {
	zr, err := NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()
	_, err = io.Copy(w, zr)
	return err
}
