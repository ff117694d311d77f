// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tttr2lcio converts a raw TTTR data file to an LCIO one.
package main // import "github.com/go-lpc/tttr/cmd/tttr2lcio"

import (
	"compress/flate"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-lpc/tttr/daq"
	"github.com/go-lpc/tttr/internal/xcnv"
	"github.com/go-lpc/tttr/rec"
	"go-hep.org/x/hep/lcio"
)

var (
	msg = log.New(os.Stdout, "tttr2lcio: ", 0)
)

func main() {
	var (
		oname = flag.String("o", "out.lcio", "path to output LCIO file")
		compr = flag.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		mode  = flag.String("mode", "t2", "acquisition mode (t2|t3)")
		res   = flag.Float64("res", 1, "time resolution in ps")
		sync  = flag.Float64("sync", 0, "sync period in s (T3 only)")
		bsize = flag.Int("n", daq.TTReadMax, "number of records per LCIO event")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: tttr2lcio [OPTIONS] file.raw

ex:
 $> tttr2lcio -o out.lcio -lvl=9 -mode=t3 -res=4 -sync=1e-7 ./tttr_042.000.raw

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		msg.Fatalf("missing input TTTR raw file")
	}

	if *oname == "" {
		flag.Usage()
		msg.Fatalf("invalid output LCIO file name")
	}

	m, err := rec.ParseMode(*mode)
	if err != nil {
		msg.Fatalf("could not parse acquisition mode: %+v", err)
	}

	cfg := rec.Config{
		Mode:       m,
		Resolution: *res,
		SyncPeriod: *sync,
	}

	err = process(*oname, *compr, flag.Arg(0), cfg, *bsize)
	if err != nil {
		msg.Fatalf("could not convert TTTR file: %+v", err)
	}
}

func process(oname string, lvl int, fname string, cfg rec.Config, bsize int) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open TTTR file: %w", err)
	}
	defer f.Close()

	run, err := runNbrFrom(fname)
	if err != nil {
		return fmt.Errorf("could not infer run from %q: %w", fname, err)
	}

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	err = xcnv.TTTR2LCIO(w, rec.NewReader(f), run, cfg, bsize, msg)
	if err != nil {
		return fmt.Errorf("could not convert TTTR to LCIO: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	return nil
}

func runNbrFrom(fname string) (int32, error) {
	var (
		name = filepath.Base(fname)
		run  int32
		itr  int32
	)
	_, err := fmt.Sscanf(name, "tttr_%d.%d.raw", &run, &itr)
	return run, err
}
