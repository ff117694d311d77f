// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tttr-histo histograms the photon delays of a raw T3 data file.
//
// The histograms are written as a table, one column per input channel
// and one row per delay bin.
//
// Usage: tttr-histo [OPTIONS] file.raw
//
// Example:
//
//	$> tttr-histo -n 2 -yoda out.yoda ./testdata/tttr_042.000.raw
//	  ch 1   ch 2
//	     0      0
//	    12      3
//	[...]
package main // import "github.com/go-lpc/tttr/cmd/tttr-histo"

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/tttr/daq"
	"github.com/go-lpc/tttr/rec"
	"github.com/go-lpc/tttr/sink"
)

var (
	msg = log.New(os.Stderr, "tttr-histo: ", 0)
)

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	var (
		fset = flag.NewFlagSet("tttr-histo", flag.ExitOnError)

		nchans = fset.Int("n", 4, "number of input channels")
		res    = fset.Float64("res", 1, "time resolution in ps")
		yoda   = fset.String("yoda", "", "path to output YODA file")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: tttr-histo [OPTIONS] file.raw

ex:
 $> tttr-histo -n 2 -yoda out.yoda ./input.raw

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		msg.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() != 1 {
		fset.Usage()
		msg.Fatalf("missing input TTTR raw file")
	}

	if *nchans <= 0 {
		fset.Usage()
		msg.Fatalf("invalid number of input channels (n=%d)", *nchans)
	}

	cfg := rec.Config{Mode: rec.T3, Resolution: *res}
	err = process(w, *yoda, fset.Arg(0), *nchans, cfg)
	if err != nil {
		msg.Fatalf("could not histogram file: %+v", err)
	}
}

func process(w io.Writer, oname, fname string, nchans int, cfg rec.Config) error {
	dev, err := daq.OpenReplay(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer dev.Close()

	h := sink.NewHistogram(nchans, cfg)
	sum, err := daq.Run(
		context.Background(), dev, rec.NewDecoder(rec.T3), h,
		daq.WithLogger(log.New(io.Discard, "", 0)),
	)
	if err != nil {
		return fmt.Errorf("could not histogram records: %w", err)
	}
	msg.Printf("records: %d, markers: %d, dropped: %d", sum.Records, h.Markers(), h.Dropped())

	_, err = h.WriteTo(w)
	if err != nil {
		return fmt.Errorf("could not write histograms: %w", err)
	}

	if oname == "" {
		return nil
	}

	f, err := os.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create YODA file: %w", err)
	}
	defer f.Close()

	err = h.WriteYODA(f)
	if err != nil {
		return fmt.Errorf("could not write YODA file: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close YODA file: %w", err)
	}

	return nil
}
