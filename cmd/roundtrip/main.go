// Command roundtrip reads stdin, compresses it, decompresses that output,
// and verifies the result is byte-identical to the input. It exits nonzero
// if the two disagree, making it useful as a smoke test against arbitrary
// input files.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/jonjohnsonjr/dflate/flate"
	"github.com/jonjohnsonjr/dflate/gzip"
	"github.com/jonjohnsonjr/dflate/zlib"
)

func main() {
	container := flag.String("container", "gzip", "container format: gzip, zlib, or raw")
	level := flag.Int("level", 6, "compression level (0, -1 for huffman-only, or 4..9)")
	flag.Parse()

	if err := run(*container, *level, os.Stdin); err != nil {
		log.Fatalf("roundtrip: %v", err)
	}
}

func run(container string, level int, r io.Reader) error {
	input, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	pr, pw := io.Pipe()

	var g errgroup.Group
	g.Go(func() error {
		err := compress(container, level, pw, bytes.NewReader(input))
		pw.CloseWithError(err)
		return err
	})

	var output []byte
	g.Go(func() error {
		var err error
		output, err = decompress(container, pr)
		pr.CloseWithError(err)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if !bytes.Equal(input, output) {
		return fmt.Errorf("roundtrip mismatch: %d bytes in, %d bytes out", len(input), len(output))
	}
	return nil
}

func compress(container string, level int, w io.Writer, r io.Reader) error {
	switch container {
	case "gzip":
		return gzip.Compress(w, r, level)
	case "zlib":
		return zlib.Compress(w, r, level)
	case "raw":
		return flate.Compress(w, r, level)
	default:
		return fmt.Errorf("unknown container %q: want gzip, zlib, or raw", container)
	}
}

func decompress(container string, r io.Reader) ([]byte, error) {
	switch container {
	case "gzip":
		var buf bytes.Buffer
		if err := gzip.Decompress(&buf, r); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "zlib":
		var buf bytes.Buffer
		if err := zlib.Decompress(&buf, r); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "raw":
		fr := flate.NewReader(r)
		defer fr.Close()
		return io.ReadAll(fr)
	default:
		return nil, fmt.Errorf("unknown container %q: want gzip, zlib, or raw", container)
	}
}
