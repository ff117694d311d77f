// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// lcio-dump decodes and displays TTTR events embedded in LCIO files.
//
// Usage: lcio-dump FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> lcio-dump ./testdata/tttr_042.000.lcio
//	ev chn  ttag/s   dtime/ps
//
//	CH  2 0.00000100      400
//	MK  4 0.00010240
//	[...]
package main // import "github.com/go-lpc/tttr/cmd/lcio-dump"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/tttr/internal/xcnv"
	"github.com/go-lpc/tttr/rec"
	"github.com/go-lpc/tttr/sink"
	"go-hep.org/x/hep/lcio"
)

const usage = `lcio-dump decodes and displays TTTR events embedded in LCIO files.

Usage: lcio-dump FILE1 [FILE2 [FILE3 ...]]

Example:

 $> lcio-dump ./testdata/tttr_042.000.lcio
 ev chn  ttag/s   dtime/ps

 CH  2 0.00000100      400
 MK  4 0.00010240
 [...]

`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("lcio-dump: ")
	log.SetFlags(0)

	fset := flag.NewFlagSet("lcio", flag.ExitOnError)
	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input LCIO file")
	}

	for _, fname := range fset.Args() {
		err := process(w, fname)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string) error {
	cfg, err := configFrom(fname)
	if err != nil {
		return fmt.Errorf("could not read acquisition configuration: %w", err)
	}

	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	rp, wp := io.Pipe()
	defer rp.Close()
	defer wp.Close()

	msg := log.New(io.Discard, "", 0)
	ch := make(chan error, 1)
	go func() {
		defer wp.Close()
		_, err := xcnv.LCIO2TTTR(wp, r, 100, msg)
		ch <- err
	}()

	var (
		txt  = sink.NewText(w, cfg)
		dec  = rec.NewDecoder(cfg.Mode)
		rr   = rec.NewReader(rp)
		buf  = make([]rec.Record, 1024)
		evts []rec.Event
	)
loop:
	for {
		n, err := rr.Read(buf)
		if n > 0 {
			evts = dec.DecodeAll(evts[:0], buf[:n])
			if e := txt.Consume(evts); e != nil {
				return fmt.Errorf("could not display events: %w", e)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return fmt.Errorf("could not read records: %w", err)
		}
	}

	err = <-ch
	if err != nil {
		return fmt.Errorf("could not extract records: %w", err)
	}

	return txt.Flush()
}

func configFrom(fname string) (rec.Config, error) {
	r, err := lcio.Open(fname)
	if err != nil {
		return rec.Config{}, fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	if !r.Next() {
		err := r.Err()
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return rec.Config{}, fmt.Errorf("could not read first LCIO event: %w", err)
	}

	return xcnv.ConfigFrom(r.RunHeader())
}
