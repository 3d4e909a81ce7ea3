// main.go - Recursively decompress .vgz archives into playable .vgm files.
//
// Pure file transformation, no timing constraints: the player only ever
// sees the decompressed output.

package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type options struct {
	inputDir     string
	outputDir    string
	skipExisting bool
	flat         bool
	maxSize      int64
}

func main() {
	var opts options
	flag.BoolVar(&opts.skipExisting, "skip-existing", false, "skip files whose output .vgm already exists")
	flag.BoolVar(&opts.flat, "flat", false, "write all outputs into the output directory root")
	flag.Int64Var(&opts.maxSize, "max-size", 0, "maximum decompressed size in bytes (0 = unlimited)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] INPUT_DIR OUTPUT_DIR\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	opts.inputDir = flag.Arg(0)
	opts.outputDir = flag.Arg(1)

	info, err := os.Stat(opts.inputDir)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "error: input directory does not exist: %s\n", opts.inputDir)
		os.Exit(1)
	}

	failures := 0
	err = filepath.WalkDir(opts.inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".vgz") {
			return nil
		}
		if err := decompressOne(path, &opts); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", path, err)
			failures++
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func outputPath(vgzPath string, opts *options) (string, error) {
	if opts.flat {
		name := strings.TrimSuffix(filepath.Base(vgzPath), filepath.Ext(vgzPath)) + ".vgm"
		return filepath.Join(opts.outputDir, name), nil
	}
	rel, err := filepath.Rel(opts.inputDir, vgzPath)
	if err != nil {
		return "", err
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".vgm"
	return filepath.Join(opts.outputDir, rel), nil
}

func decompressOne(vgzPath string, opts *options) error {
	outPath, err := outputPath(vgzPath, opts)
	if err != nil {
		return err
	}
	if opts.skipExisting {
		if _, err := os.Stat(outPath); err == nil {
			fmt.Printf("skipping (exists): %s\n", outPath)
			return nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	in, err := os.Open(vgzPath)
	if err != nil {
		return err
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	defer gz.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}

	var src io.Reader = gz
	if opts.maxSize > 0 {
		src = io.LimitReader(gz, opts.maxSize+1)
	}
	written, err := io.Copy(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil && opts.maxSize > 0 && written > opts.maxSize {
		err = fmt.Errorf("decompressed size exceeds %d bytes", opts.maxSize)
	}
	if err != nil {
		os.Remove(outPath)
		return err
	}
	fmt.Printf("decompressed: %s -> %s\n", vgzPath, outPath)
	return nil
}
