// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command lcio-rewrite-run reads a TTTR LCIO file and rewrites its run
// number and, optionally, its time calibration with the provided values.
package main // import "github.com/go-lpc/tttr/cmd/lcio-rewrite-run"

import (
	"compress/flate"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/tttr/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

func main() {
	log.SetPrefix("lcio-rewrite: ")
	log.SetFlags(0)

	var (
		runnbr = flag.Int("run", 0, "run number to use for output LCIO file")
		oname  = flag.String("o", "out.lcio", "path to output rewritten LCIO file")
		res    = flag.Float64("res", 0, "time resolution in ps (0: keep input value)")
		sync   = flag.Float64("sync", 0, "sync period in s (0: keep input value)")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: lcio-rewrite-run [OPTIONS] FILE.lcio

ex:
 $> lcio-rewrite-run -o output.lcio -run=1234 -res=4 ./input.lcio
 lcio-rewrite: mode=T3 resolution=4 ps sync-period=1e-07 s
 lcio-rewrite: processing batch 0...
 lcio-rewrite: processing batch 10...
 lcio-rewrite: processed 12 batches

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing input LCIO file to rewrite")
	}

	r, err := lcio.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("could not open input LCIO file: %+v", err)
	}
	defer r.Close()

	w, err := lcio.Create(*oname)
	if err != nil {
		log.Fatalf("could not create output LCIO file: %+v", err)
	}
	defer w.Close()

	w.SetCompressionLevel(flate.BestCompression)

	err = process(w, r, rewrite{run: int32(*runnbr), res: *res, sync: *sync})
	if err != nil {
		log.Fatalf("could not rewrite %q: %+v", flag.Arg(0), err)
	}

	err = w.Close()
	if err != nil {
		log.Fatalf("could not close output file: %+v", err)
	}
}

type rewrite struct {
	run  int32
	res  float64 // ps
	sync float64 // s
}

func (rw rewrite) header(rhdr lcio.RunHeader) (lcio.RunHeader, error) {
	rhdr.RunNumber = rw.run
	if rhdr.Params.Floats == nil {
		rhdr.Params.Floats = make(map[string][]float32)
	}
	if rw.res > 0 {
		rhdr.Params.Floats["Resolution"] = []float32{float32(rw.res)}
	}
	if rw.sync > 0 {
		rhdr.Params.Floats["SyncPeriod"] = []float32{float32(rw.sync)}
	}

	cfg, err := xcnv.ConfigFrom(rhdr)
	if err != nil {
		return rhdr, fmt.Errorf("invalid TTTR run header: %w", err)
	}
	log.Printf("mode=%v resolution=%g ps sync-period=%g s", cfg.Mode, cfg.Resolution, cfg.SyncPeriod)

	return rhdr, nil
}

func process(w *lcio.Writer, r *lcio.Reader, rw rewrite) error {
	i := 0
	for r.Next() {
		if i == 0 {
			rhdr, err := rw.header(r.RunHeader())
			if err != nil {
				return err
			}

			err = w.WriteRunHeader(&rhdr)
			if err != nil {
				return fmt.Errorf("could not write run header: %w", err)
			}
		}

		evt := r.Event()
		evt.RunNumber = rw.run
		if i%10 == 0 {
			log.Printf("processing batch %d...", evt.EventNumber)
		}
		err := w.WriteEvent(&evt)
		if err != nil {
			return fmt.Errorf("could not write batch %d: %w", evt.EventNumber, err)
		}
		i++
	}

	err := r.Err()
	if err != nil && err != io.EOF {
		return fmt.Errorf("could not read LCIO file: %w", err)
	}

	log.Printf("processed %d batches", i)

	return nil
}
