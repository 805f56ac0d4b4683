// Command decompress reads a compressed stream from stdin and writes the
// decompressed bytes to stdout. The container format defaults to gzip but
// can be selected explicitly.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jonjohnsonjr/dflate/flate"
	"github.com/jonjohnsonjr/dflate/gzip"
	"github.com/jonjohnsonjr/dflate/zlib"
)

func main() {
	container := flag.String("container", "gzip", "container format: gzip, zlib, or raw")
	flag.Parse()
	if err := run(*container, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("decompress: %v", err)
	}
}

func run(container string, r io.Reader, w io.Writer) error {
	switch container {
	case "gzip":
		return gzip.Decompress(w, r)
	case "zlib":
		return zlib.Decompress(w, r)
	case "raw":
		fr := flate.NewReader(r)
		defer fr.Close()
		_, err := io.Copy(w, fr)
		return err
	default:
		return fmt.Errorf("unknown container %q: want gzip, zlib, or raw", container)
	}
}
