// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-lpc/tttr/internal/xcnv"
	"github.com/go-lpc/tttr/rec"
	"github.com/google/go-cmp/cmp"
	"go-hep.org/x/hep/lcio"
)

func TestLCIO2TTTR(t *testing.T) {
	tmp, err := os.MkdirTemp("", "tttr-xcnv-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	want := []rec.Record{
		rec.NewT2(false, 0, 10),
		rec.NewT2(true, 1, 11),
		rec.T2Overflow(1),
		rec.NewT2(false, 2, 12),
	}

	raw := filepath.Join(tmp, "in.raw")
	{
		f, err := os.Create(raw)
		if err != nil {
			t.Fatalf("could not create raw file: %+v", err)
		}
		defer f.Close()
		err = rec.NewEncoder(f).Encode(want)
		if err != nil {
			t.Fatalf("could not encode records: %+v", err)
		}
		err = f.Close()
		if err != nil {
			t.Fatalf("could not close raw file: %+v", err)
		}
	}

	fname := filepath.Join(tmp, "in.lcio")
	{
		f, err := os.Open(raw)
		if err != nil {
			t.Fatalf("could not open raw file: %+v", err)
		}
		defer f.Close()

		w, err := lcio.Create(fname)
		if err != nil {
			t.Fatalf("could not create LCIO file: %+v", err)
		}
		defer w.Close()

		cfg := rec.Config{Mode: rec.T2, Resolution: 1}
		err = xcnv.TTTR2LCIO(w, rec.NewReader(f), 42, cfg, 3, log.New(os.Stderr, "", 0))
		if err != nil {
			t.Fatalf("could not convert to LCIO: %+v", err)
		}

		err = w.Close()
		if err != nil {
			t.Fatalf("could not close LCIO file: %+v", err)
		}
	}

	n, err := numEvents(fname)
	if err != nil {
		t.Fatalf("could not count events: %+v", err)
	}
	if got, want := n, int64(2); got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}

	oname := filepath.Join(tmp, "out.raw")
	err = process(oname, fname, 1)
	if err != nil {
		t.Fatalf("could not convert LCIO file: %+v", err)
	}

	f, err := os.Open(oname)
	if err != nil {
		t.Fatalf("could not open output file: %+v", err)
	}
	defer f.Close()

	got, err := rec.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("could not read records: %+v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("invalid records: (-want +got)\n%s", diff)
	}
}
