package flate

import "strconv"

// CorruptInputError reports invalid DEFLATE data found at the given byte
// offset into the compressed stream: a reserved block type, a stored-block
// LEN/NLEN mismatch, an over- or under-subscribed Huffman code, or a
// back-reference distance that exceeds the bytes written so far.
type CorruptInputError int64

func (e CorruptInputError) Error() string {
	return "flate: corrupt input before offset " + strconv.FormatInt(int64(e), 10)
}

// ErrUnexpectedEOF is returned when the input ends in the middle of a block,
// before a complete symbol or field could be read.
var ErrUnexpectedEOF unexpectedEOFError

type unexpectedEOFError struct{}

func (unexpectedEOFError) Error() string { return "flate: unexpected end of stream" }

// errInternal reports a bug in this package rather than bad input.
type errInternal string

func (e errInternal) Error() string { return "flate: internal error: " + string(e) }

// ErrInvalidLevel is returned by NewWriter for any level outside
// {HuffmanOnly, NoCompression, 4, 5, 6, 7, 8, 9}.
var ErrInvalidLevel = errInternalLevel("invalid compression level")

type errInternalLevel string

func (e errInternalLevel) Error() string { return "flate: " + string(e) }

// errWriterClosed is returned by Write after Close.
var errWriterClosed = errInternal("write to closed writer")
