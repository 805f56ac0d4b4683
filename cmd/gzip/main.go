// Command gzip compresses a file in place, the way the standard Unix gzip
// tool does: given PATH, it writes PATH.gz and leaves PATH untouched.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/exp/mmap"

	"github.com/jonjohnsonjr/dflate/gzip"
)

func main() {
	level := flag.Int("level", 6, "compression level (0, -1 for huffman-only, or 4..9)")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gzip [-level N] PATH")
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *level); err != nil {
		log.Fatalf("gzip: %v", err)
	}
}

func run(path string, level int) error {
	ra, err := mmap.Open(path)
	if err != nil {
		return err
	}
	defer ra.Close()
	src := io.NewSectionReader(ra, 0, int64(ra.Len()))

	dst := path + ".gz"
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".gzip-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gzip.Compress(tmp, src, level); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
