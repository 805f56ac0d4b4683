package zlib

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/jonjohnsonjr/dflate/flate"
)

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	randBuf := make([]byte, 30000)
	rng.Read(randBuf)

	inputs := map[string][]byte{
		"empty":  {},
		"hello":  []byte("Hello world\n"),
		"repeat": bytes.Repeat([]byte("xyzxyzxyz"), 2000),
		"binary": randBuf,
	}

	for name, p := range inputs {
		name, p := name, p
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Compress(&buf, bytes.NewReader(p), flate.Default); err != nil {
				t.Fatalf("Compress: %v", err)
			}

			var out bytes.Buffer
			if err := Decompress(&out, bytes.NewReader(buf.Bytes())); err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(out.Bytes(), p) {
				t.Fatalf("roundtrip mismatch: got %d bytes, want %d", out.Len(), len(p))
			}
		})
	}
}

func TestHeaderFCheck(t *testing.T) {
	var buf bytes.Buffer
	if err := Compress(&buf, bytes.NewReader([]byte("abc")), flate.Default); err != nil {
		t.Fatal(err)
	}
	hdr := buf.Bytes()[:2]
	if (int(hdr[0])<<8|int(hdr[1]))%31 != 0 {
		t.Fatalf("header %x fails FCHECK mod-31", hdr)
	}
}

// TestStoredStreamExact decodes a hand-assembled zlib stream: the default
// 78 9c header, a single final stored DEFLATE block holding
// "Hello world\n", and the big-endian ADLER-32 footer.
func TestStoredStreamExact(t *testing.T) {
	stream := []byte{
		0x78, 0x9c,
		0x01, 0x0c, 0x00, 0xf3, 0xff,
		'H', 'e', 'l', 'l', 'o', ' ', 'w', 'o', 'r', 'l', 'd', '\n',
		0x1c, 0xf2, 0x04, 0x47,
	}
	var out bytes.Buffer
	if err := Decompress(&out, bytes.NewReader(stream)); err != nil {
		t.Fatal(err)
	}
	if out.String() != "Hello world\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestBadHeader(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{0x78, 0x00}))
	if err != ErrHeader {
		t.Fatalf("got %v, want ErrHeader", err)
	}
}

func TestFDictRejected(t *testing.T) {
	// CMF=0x78 (zlibDeflate, window 32K), FLG with FDICT set and a valid
	// FCHECK: 0x78 0xbb -> 0x78*256+0xbb = 30907, mod 31 == 0; FDICT bit set.
	_, err := NewReader(bytes.NewReader([]byte{0x78, 0xbb}))
	if err != ErrHeader {
		t.Fatalf("got %v, want ErrHeader (FDICT unsupported)", err)
	}
}

func TestChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := Compress(&buf, bytes.NewReader([]byte("zlib payload")), flate.Default); err != nil {
		t.Fatal(err)
	}
	corrupt := buf.Bytes()
	corrupt[len(corrupt)-1] ^= 0xff

	zr, err := NewReader(bytes.NewReader(corrupt))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	_, err = out.ReadFrom(zr)
	if err != ErrChecksum {
		t.Fatalf("got %v, want ErrChecksum", err)
	}
}
