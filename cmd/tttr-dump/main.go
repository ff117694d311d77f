// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// tttr-dump decodes and displays raw TTTR data files.
//
// Usage: tttr-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> tttr-dump -mode=t3 -res=4 -sync=1e-7 ./testdata/tttr_042.000.raw
//	ev chn  ttag/s   dtime/ps
//
//	CH  2 0.00000100      400
//	MK  4 0.00010240
//	[...]
package main // import "github.com/go-lpc/tttr/cmd/tttr-dump"

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
	msg = log.New(os.Stderr, "tttr-dump: ", 0)
)

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	var (
		fset = flag.NewFlagSet("tttr-dump", flag.ExitOnError)

		mode = fset.String("mode", "t2", "acquisition mode (t2|t3)")
		res  = fset.Float64("res", 1, "time resolution in ps")
		sync = fset.Float64("sync", 0, "sync period in s (T3 only)")
		verb = fset.Bool("v", false, "enable verbose mode")
	)

	fset.Usage = func() {
		fmt.Printf(`tttr-dump decodes and displays raw TTTR data files.

Usage: tttr-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> tttr-dump -mode=t3 -res=4 -sync=1e-7 ./testdata/tttr_042.000.raw
 ev chn  ttag/s   dtime/ps

 CH  2 0.00000100      400
 MK  4 0.00010240
 [...]

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		msg.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		msg.Fatalf("missing path to input TTTR file")
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

	for _, fname := range fset.Args() {
		err := process(w, fname, cfg, *verb)
		if err != nil {
			msg.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, cfg rec.Config, verbose bool) error {
	dev, err := daq.OpenReplay(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer dev.Close()

	opts := []daq.Option{daq.WithLogger(log.New(io.Discard, "", 0))}
	if verbose {
		opts = []daq.Option{
			daq.WithLogger(msg),
			daq.WithProgress(1 << 20),
		}
	}

	txt := sink.NewText(w, cfg)
	_, err = daq.Run(context.Background(), dev, rec.NewDecoder(cfg.Mode), txt, opts...)
	if err != nil {
		return fmt.Errorf("could not decode records: %w", err)
	}

	err = txt.Flush()
	if err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}

	return nil
}
