// Package gzip reads and writes gzip-compressed files, as specified in
// RFC 1952. It wraps github.com/jonjohnsonjr/dflate/flate's raw DEFLATE
// codec with the gzip header/footer framing and a CRC-32 checksum.
package gzip

import (
	"bufio"
	"encoding/binary"
	"errors"
	"hash"
	"hash/crc32"
	"io"

	"github.com/jonjohnsonjr/dflate/flate"
)

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8

	flagText    = 1 << 0
	flagHCRC    = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

// ErrHeader reports an unrecognized or malformed gzip header (wrong magic
// bytes, unsupported compression method, or optional fields that end before
// they are complete).
var ErrHeader = errors.New("gzip: invalid header")

// ErrChecksum reports a CRC-32 or ISIZE mismatch between the gzip footer
// and the decompressed data actually produced.
var ErrChecksum = errors.New("gzip: checksum mismatch")

// Writer writes a single gzip member: the 10-byte fixed header this
// package always emits (RFC 1952 section 2.3.1, no optional fields),
// the DEFLATE body, and a CRC-32 + ISIZE footer.
type Writer struct {
	w        io.Writer
	level    int
	fw       *flate.Writer
	crc      hash.Hash32
	size     uint32
	wroteHdr bool
	closed   bool
	err      error
}

// NewWriter returns a Writer that compresses data at the default level
// (flate.Default) and writes the gzip-framed result to w.
func NewWriter(w io.Writer) *Writer {
	z, _ := NewWriterLevel(w, flate.Default)
	return z
}

// NewWriterLevel is like NewWriter but specifies the compression level
// instead of assuming flate.Default. See flate's level constants.
func NewWriterLevel(w io.Writer, level int) (*Writer, error) {
	fw, err := flate.NewWriter(w, level)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w, level: level, fw: fw, crc: crc32.NewIEEE()}, nil
}

func (z *Writer) writeHeader() error {
	if z.wroteHdr {
		return nil
	}
	z.wroteHdr = true
	hdr := [10]byte{gzipID1, gzipID2, gzipDeflate, 0, 0, 0, 0, 0, 0, 3}
	_, err := z.w.Write(hdr[:])
	return err
}

// Write compresses p and writes it to the gzip stream, accumulating the
// running CRC-32 and uncompressed byte count for the footer.
func (z *Writer) Write(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	if err := z.writeHeader(); err != nil {
		z.err = err
		return 0, err
	}
	n, err := z.fw.Write(p)
	z.crc.Write(p[:n])
	z.size += uint32(n)
	if err != nil {
		z.err = err
	}
	return n, err
}

// Flush flushes any pending compressed data to the underlying writer
// without closing the stream, per flate.Writer.Flush's block-boundary
// semantics.
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

// Close flushes the DEFLATE body and appends the CRC-32/ISIZE footer.
// Calling Close more than once is a no-op.
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
	var footer [8]byte
	binary.LittleEndian.PutUint32(footer[0:4], z.crc.Sum32())
	binary.LittleEndian.PutUint32(footer[4:8], z.size)
	if _, err := z.w.Write(footer[:]); err != nil {
		z.err = err
		return err
	}
	return nil
}

// byteReader is the minimal read interface the header parser needs.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// Reader reads a single gzip member: it tolerates the optional FLG fields
// (FTEXT, FHCRC, FEXTRA, FNAME, FCOMMENT) even though Writer never emits
// them, and verifies the footer CRC-32/ISIZE once the DEFLATE body reports
// EOF. When FHCRC is set, the header CRC-16 is read and skipped; it is not
// checked against the header bytes.
type Reader struct {
	r    byteReader
	fr   io.ReadCloser
	crc  hash.Hash32
	size uint32
	err  error
	done bool
}

// NewReader returns a Reader for the gzip member read from r. It reads and
// validates the gzip header immediately, returning ErrHeader if it is
// malformed.
func NewReader(r io.Reader) (*Reader, error) {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	z := &Reader{r: br, crc: crc32.NewIEEE()}
	if err := z.readHeader(); err != nil {
		return nil, err
	}
	z.fr = flate.NewReader(br)
	return z, nil
}

func (z *Reader) readHeader() error {
	var hdr [10]byte
	if _, err := io.ReadFull(z.r, hdr[:]); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if hdr[0] != gzipID1 || hdr[1] != gzipID2 || hdr[2] != gzipDeflate {
		return ErrHeader
	}
	flg := hdr[3]

	if flg&flagExtra != 0 {
		var xlenBuf [2]byte
		if _, err := io.ReadFull(z.r, xlenBuf[:]); err != nil {
			return ErrHeader
		}
		xlen := int(xlenBuf[0]) | int(xlenBuf[1])<<8
		if err := discard(z.r, xlen); err != nil {
			return ErrHeader
		}
	}
	if flg&flagName != 0 {
		if err := skipNulTerminated(z.r); err != nil {
			return ErrHeader
		}
	}
	if flg&flagComment != 0 {
		if err := skipNulTerminated(z.r); err != nil {
			return ErrHeader
		}
	}
	if flg&flagHCRC != 0 {
		var hcrc [2]byte
		if _, err := io.ReadFull(z.r, hcrc[:]); err != nil {
			return ErrHeader
		}
		// The header CRC-16 covers bytes read so far; this reader does not
		// replay them to verify it, matching a minimal reader's tolerance
		// for the optional field rather than a strict validator of it.
	}
	return nil
}

func discard(r io.Reader, n int) error {
	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}

func skipNulTerminated(r io.ByteReader) error {
	for {
		c, err := r.ReadByte()
		if err != nil {
			return err
		}
		if c == 0 {
			return nil
		}
	}
}

// Read decompresses the gzip member's body. It returns io.EOF once the
// footer's CRC-32 and ISIZE have been checked against the decompressed
// data; a mismatch is reported as ErrChecksum instead.
func (z *Reader) Read(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	n, err := z.fr.Read(p)
	z.crc.Write(p[:n])
	z.size += uint32(n)
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
	var footer [8]byte
	if _, err := io.ReadFull(z.r, footer[:]); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	wantCRC := binary.LittleEndian.Uint32(footer[0:4])
	wantSize := binary.LittleEndian.Uint32(footer[4:8])
	if wantCRC != z.crc.Sum32() || wantSize != z.size {
		return ErrChecksum
	}
	return nil
}

// Close closes the underlying flate reader.
func (z *Reader) Close() error {
	return z.fr.Close()
}

// Compress is the one-shot form: it reads all of r, gzip-compresses it at
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

// Decompress is the one-shot form: it decodes the gzip member read from r
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
