// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/tttr/rec"
	"go-hep.org/x/hep/lcio"
)

// TTTR2LCIO reads raw records from r and writes them to w, one LCIO event
// per batch of at most bsize records.
// The acquisition configuration is stored in the run header.
func TTTR2LCIO(w *lcio.Writer, r *rec.Reader, run int32, cfg rec.Config, bsize int, msg *log.Logger) error {
	if bsize <= 0 {
		return fmt.Errorf("invalid batch size %d", bsize)
	}

	err := w.WriteRunHeader(&lcio.RunHeader{
		RunNumber: run,
		Detector:  detector,
		Descr:     "raw TTTR records",
		Params: lcio.Params{
			Ints: map[string][]int32{
				"Mode":      {int32(cfg.Mode)},
				"BatchSize": {int32(bsize)},
			},
			Floats: map[string][]float32{
				"Resolution": {float32(cfg.Resolution)},
				"SyncPeriod": {float32(cfg.SyncPeriod)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("could not write run header: %w", err)
	}

	var (
		buf  = make([]rec.Record, bsize)
		nrec int64
		raw  = &lcio.GenericObject{
			Data: []lcio.GenericObjectData{
				{I32s: make([]int32, 0, bsize)},
			},
		}
	)

	for i := 0; ; i++ {
		n, rerr := readBatch(r, buf)
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return fmt.Errorf("could not read raw records: %w", rerr)
		}
		if n == 0 {
			break
		}

		if i%100 == 0 {
			msg.Printf("processing batch %d...", i)
		}

		raw.Data[0].I32s = i32sFrom(raw.Data[0].I32s[:0], buf[:n])

		evt := lcio.Event{
			RunNumber:   run,
			EventNumber: int32(i),
			TimeStamp:   nrec,
			Detector:    detector,
		}
		evt.Add(rawColl, raw)

		err := w.WriteEvent(&evt)
		if err != nil {
			return fmt.Errorf("could not write TTTR batch %d: %w", i, err)
		}
		nrec += int64(n)

		if rerr != nil {
			break
		}
	}

	return nil
}

// readBatch reads records from r until buf is full or the stream ends.
func readBatch(r *rec.Reader, buf []rec.Record) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func i32sFrom(dst []int32, rs []rec.Record) []int32 {
	for _, r := range rs {
		dst = append(dst, int32(r))
	}
	return dst
}
