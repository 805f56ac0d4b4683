// Command gunzip decompresses a .gz file in place: given PATH.gz, it
// writes PATH and leaves PATH.gz untouched.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/mmap"

	"github.com/jonjohnsonjr/dflate/gzip"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: gunzip PATH.gz")
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		log.Fatalf("gunzip: %v", err)
	}
}

func run(path string) error {
	if !strings.HasSuffix(path, ".gz") {
		return fmt.Errorf("%s: does not end in .gz", path)
	}
	dst := strings.TrimSuffix(path, ".gz")

	ra, err := mmap.Open(path)
	if err != nil {
		return err
	}
	defer ra.Close()
	src := io.NewSectionReader(ra, 0, int64(ra.Len()))

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".gunzip-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gzip.Decompress(tmp, src); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
