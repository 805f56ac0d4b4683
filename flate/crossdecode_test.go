package flate

import (
	"bytes"
	"compress/flate"
	"io"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestCrossDecodeStdlib compresses with this package and decodes the result
// with the standard library's compress/flate, and vice versa, checking that
// the two implementations agree on the wire format in both directions.
func TestCrossDecodeStdlib(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	randBuf := make([]byte, 20000)
	rng.Read(randBuf)

	inputs := map[string][]byte{
		"text":   bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 500),
		"binary": randBuf,
		"tiny":   []byte("a"),
		"empty":  {},
		"zeroes": make([]byte, 40000),
	}

	levels := []int{NoCompression, HuffmanOnly, Level4, Level6, Level9}

	for name, p := range inputs {
		for _, level := range levels {
			name, p, level := name, p, level
			t.Run(name, func(t *testing.T) {
				var buf bytes.Buffer
				if err := Compress(&buf, bytes.NewReader(p), level); err != nil {
					t.Fatalf("Compress: %v", err)
				}

				sr := flate.NewReader(bytes.NewReader(buf.Bytes()))
				defer sr.Close()
				got, err := io.ReadAll(sr)
				if err != nil {
					t.Fatalf("stdlib decode: %v", err)
				}
				if diff := cmp.Diff(p, got); diff != "" {
					t.Fatalf("stdlib decode mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

// TestCrossEncodeStdlib compresses with the standard library and decodes the
// result with this package's Reader, confirming the decoder accepts
// everything a conforming encoder emits, not only its own output.
func TestCrossEncodeStdlib(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	randBuf := make([]byte, 20000)
	rng.Read(randBuf)

	inputs := map[string][]byte{
		"text":   bytes.Repeat([]byte("one two three four five six seven eight nine ten "), 400),
		"binary": randBuf,
		"tiny":   []byte("z"),
	}

	for name, p := range inputs {
		name, p := name, p
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			sw, err := flate.NewWriter(&buf, flate.DefaultCompression)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := sw.Write(p); err != nil {
				t.Fatal(err)
			}
			if err := sw.Close(); err != nil {
				t.Fatal(err)
			}

			got, err := io.ReadAll(NewReader(bytes.NewReader(buf.Bytes())))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(p, got); diff != "" {
				t.Fatalf("decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
