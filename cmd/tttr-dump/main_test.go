// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-lpc/tttr/rec"
)

func writeRecords(t *testing.T, fname string, rs []rec.Record) {
	t.Helper()
	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("could not create raw file: %+v", err)
	}
	defer f.Close()

	err = rec.NewEncoder(f).Encode(rs)
	if err != nil {
		t.Fatalf("could not encode records: %+v", err)
	}

	err = f.Close()
	if err != nil {
		t.Fatalf("could not close raw file: %+v", err)
	}
}

func TestDump(t *testing.T) {
	tmp, err := os.MkdirTemp("", "tttr-dump-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "t2.raw")
	writeRecords(t, fname, []rec.Record{rec.NewT2(false, 0, 1000)})

	xmain(io.Discard, []string{"-mode=t2", "-v", fname})
}

func TestProcess(t *testing.T) {
	tmp, err := os.MkdirTemp("", "tttr-dump-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	for _, tc := range []struct {
		name string
		cfg  rec.Config
		recs []rec.Record
		raw  []byte
		want string
		err  string
	}{
		{
			name: "t2",
			cfg:  rec.Config{Mode: rec.T2, Resolution: 1},
			recs: []rec.Record{
				rec.NewT2(false, 0, 1000),
				rec.NewT2(true, 3, 2000),
				rec.T2Overflow(1),
				rec.NewT2(true, 0, 5),
			},
			want: `ev chn       time/ps

CH  1           1000
MK  3           2000
CH  0       33554437
`,
		},
		{
			name: "t3",
			cfg:  rec.Config{Mode: rec.T3, Resolution: 4, SyncPeriod: 1e-7},
			recs: []rec.Record{
				rec.NewT3(false, 1, 100, 10),
				rec.T3Overflow(1),
				rec.NewT3(true, 4, 0, 0),
				rec.NewT3(true, 0x3e, 0, 0),
			},
			want: `ev chn  ttag/s   dtime/ps

CH  2 0.00000100      400
MK  4 0.00010240
`,
		},
		{
			name: "empty",
			cfg:  rec.Config{Mode: rec.T2, Resolution: 1},
			want: "ev chn       time/ps\n\n",
		},
		{
			name: "truncated",
			cfg:  rec.Config{Mode: rec.T2, Resolution: 1},
			raw:  []byte{1, 2, 3, 4, 5},
			err:  "size 5 is not a multiple of 4",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(tmp, tc.name+".raw")
			switch {
			case tc.raw != nil:
				err := os.WriteFile(fname, tc.raw, 0644)
				if err != nil {
					t.Fatalf("could not create raw file: %+v", err)
				}
			default:
				writeRecords(t, fname, tc.recs)
			}

			out := new(strings.Builder)
			err := process(out, fname, tc.cfg, false)
			switch {
			case err != nil && tc.err != "":
				if got, want := err.Error(), tc.err; !strings.Contains(got, want) {
					t.Fatalf("invalid error:\ngot= %v\nwant=%v\n", got, want)
				}
			case err != nil && tc.err == "":
				t.Fatalf("could not tttr-dump: %+v", err)
			case err == nil && tc.err == "":
				if got, want := out.String(), tc.want; got != want {
					t.Fatalf("invalid tttr-dump output:\ngot:\n%s\nwant:\n%s\n", got, want)
				}
			case err == nil && tc.err != "":
				t.Fatalf("invalid error:\ngot= %v\nwant=%v\n", err, tc.err)
			}
		})
	}
}
