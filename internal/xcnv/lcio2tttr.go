// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/tttr/rec"
	"go-hep.org/x/hep/lcio"
)

// LCIO2TTTR reads the raw record batches stored in r and writes them
// back to w as a raw TTTR stream.
// LCIO2TTTR returns the acquisition configuration stored in the run header.
func LCIO2TTTR(w io.Writer, r *lcio.Reader, freq int, msg *log.Logger) (rec.Config, error) {
	var (
		enc = rec.NewEncoder(w)
		cfg rec.Config
		buf []rec.Record
		i   = 0
	)

	if freq <= 0 {
		freq = 1
	}

	for r.Next() {
		if i%freq == 0 {
			msg.Printf("processing batch %d...", i)
		}
		if i == 0 {
			var err error
			cfg, err = ConfigFrom(r.RunHeader())
			if err != nil {
				return cfg, err
			}
		}

		evt := r.Event()
		if !evt.Has(rawColl) {
			return cfg, fmt.Errorf("could not find %q collection in event %d", rawColl, evt.EventNumber)
		}
		coll, ok := evt.Get(rawColl).(*lcio.GenericObject)
		if !ok || len(coll.Data) == 0 {
			return cfg, fmt.Errorf("invalid %q collection in event %d", rawColl, evt.EventNumber)
		}

		buf = recordsFrom(buf[:0], coll.Data[0].I32s)
		err := enc.Encode(buf)
		if err != nil {
			return cfg, fmt.Errorf("could not write TTTR batch %d: %w", i, err)
		}
		i++
	}

	err := r.Err()
	if err != nil && err != io.EOF {
		return cfg, fmt.Errorf("could not read LCIO file: %w", err)
	}

	return cfg, nil
}

// ConfigFrom extracts the acquisition configuration from a run header.
func ConfigFrom(rhdr lcio.RunHeader) (rec.Config, error) {
	var cfg rec.Config
	mode, ok := rhdr.Params.Ints["Mode"]
	if !ok || len(mode) != 1 {
		return cfg, fmt.Errorf("could not find acquisition mode in run header %d", rhdr.RunNumber)
	}
	cfg.Mode = rec.Mode(mode[0])
	switch cfg.Mode {
	case rec.T2, rec.T3:
	default:
		return cfg, fmt.Errorf("invalid acquisition mode %d in run header %d", mode[0], rhdr.RunNumber)
	}

	if v := rhdr.Params.Floats["Resolution"]; len(v) == 1 {
		cfg.Resolution = float64(v[0])
	}
	if v := rhdr.Params.Floats["SyncPeriod"]; len(v) == 1 {
		cfg.SyncPeriod = float64(v[0])
	}
	return cfg, nil
}

func recordsFrom(dst []rec.Record, raw []int32) []rec.Record {
	for _, v := range raw {
		dst = append(dst, rec.Record(uint32(v)))
	}
	return dst
}
