// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rec

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeT2(t *testing.T) {
	for _, tc := range []struct {
		name string
		recs []Record
		want []Event
		ofl  uint64
		nign uint64
	}{
		{
			name: "regular",
			recs: []Record{0x02000064},
			want: []Event{{Kind: PhotonT2, Time: 100, Channel: 2}},
		},
		{
			name: "regular-max",
			recs: []Record{NewT2(false, 0x3f, t2TimeMask)},
			want: []Event{{Kind: PhotonT2, Time: 33554431, Channel: 64}},
		},
		{
			name: "overflow",
			recs: []Record{0xfe000001},
			ofl:  33554432,
		},
		{
			name: "overflow-then-photon",
			recs: []Record{T2Overflow(2), NewT2(false, 0, 5)},
			want: []Event{{Kind: PhotonT2, Time: 67108869, Channel: 1}},
			ofl:  67108864,
		},
		{
			name: "sync",
			recs: []Record{T2Overflow(1), NewT2(true, 0, 9)},
			want: []Event{{Kind: PhotonT2, Time: 33554441, Channel: 0}},
			ofl:  33554432,
		},
		{
			name: "markers",
			recs: []Record{
				NewT2(true, 1, 7),
				NewT2(true, 15, 8),
			},
			want: []Event{
				{Kind: MarkerT2, Time: 7, Markers: 1},
				{Kind: MarkerT2, Time: 8, Markers: 15},
			},
		},
		{
			name: "reserved",
			recs: []Record{
				NewT2(true, 16, 1),
				NewT2(true, 62, 2),
				NewT2(false, 3, 3),
			},
			want: []Event{{Kind: PhotonT2, Time: 3, Channel: 4}},
			nign: 2,
		},
		{
			name: "zero-overflows",
			recs: []Record{T2Overflow(0), NewT2(false, 1, 1)},
			want: []Event{{Kind: PhotonT2, Time: 1, Channel: 2}},
		},
		{
			name: "sync-then-photon",
			recs: []Record{0x80000005, 0x04000003},
			want: []Event{
				{Kind: PhotonT2, Time: 5, Channel: 0},
				{Kind: PhotonT2, Time: 3, Channel: 3},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dec := NewDecoder(T2)
			got := dec.DecodeAll(nil, tc.recs)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("invalid events (-want +got):\n%s", diff)
			}
			if got, want := dec.Overflow(), tc.ofl; got != want {
				t.Fatalf("invalid overflow correction: got=%d, want=%d", got, want)
			}
			if got, want := dec.Ignored(), tc.nign; got != want {
				t.Fatalf("invalid number of ignored records: got=%d, want=%d", got, want)
			}
		})
	}
}

func TestDecodeT3(t *testing.T) {
	for _, tc := range []struct {
		name string
		recs []Record
		want []Event
		ofl  uint64
		nign uint64
	}{
		{
			name: "regular",
			recs: []Record{0x0404b011},
			want: []Event{{Kind: PhotonT3, Time: 17, Channel: 3, DTime: 300}},
		},
		{
			name: "regular-max",
			recs: []Record{NewT3(false, 0x3f, t3TimeMask, t3SyncMask)},
			want: []Event{{Kind: PhotonT3, Time: 1023, Channel: 64, DTime: 32767}},
		},
		{
			name: "overflow",
			recs: []Record{T3Overflow(3), NewT3(false, 0, 12, 4)},
			want: []Event{{Kind: PhotonT3, Time: 3076, Channel: 1, DTime: 12}},
			ofl:  3072,
		},
		{
			name: "marker",
			recs: []Record{T3Overflow(3), NewT3(true, 2, 0, 5)},
			want: []Event{{Kind: MarkerT3, Time: 3077, Markers: 2}},
			ofl:  3072,
		},
		{
			name: "reserved",
			recs: []Record{
				NewT3(true, 0, 0, 5),
				NewT3(true, 20, 10, 6),
			},
			nign: 2,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dec := NewDecoder(T3)
			got := dec.DecodeAll(nil, tc.recs)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("invalid events (-want +got):\n%s", diff)
			}
			if got, want := dec.Overflow(), tc.ofl; got != want {
				t.Fatalf("invalid overflow correction: got=%d, want=%d", got, want)
			}
			if got, want := dec.Ignored(), tc.nign; got != want {
				t.Fatalf("invalid number of ignored records: got=%d, want=%d", got, want)
			}
		})
	}
}

func TestDecoderOverflowOnly(t *testing.T) {
	for _, tc := range []struct {
		mode Mode
		rec  func(n uint32) Record
		wrap uint64
	}{
		{T2, T2Overflow, T2Wraparound},
		{T3, T3Overflow, T3Wraparound},
	} {
		t.Run(tc.mode.String(), func(t *testing.T) {
			dec := NewDecoder(tc.mode)
			var want uint64
			for _, n := range []uint32{1, 0, 7, 1023} {
				_, ok := dec.Decode(tc.rec(n))
				if ok {
					t.Fatalf("overflow record emitted an event")
				}
				want += tc.wrap * uint64(n)
				if got := dec.Overflow(); got != want {
					t.Fatalf("invalid overflow correction: got=%d, want=%d", got, want)
				}
			}
			if got, want := dec.Overflows(), uint64(4); got != want {
				t.Fatalf("invalid number of overflow records: got=%d, want=%d", got, want)
			}

			dec.Reset()
			if got := dec.Overflow(); got != 0 {
				t.Fatalf("overflow correction not reset: got=%d", got)
			}
			if got := dec.Overflows(); got != 0 {
				t.Fatalf("overflow counter not reset: got=%d", got)
			}
		})
	}
}

func TestDecoderMonotonic(t *testing.T) {
	for _, tc := range []struct {
		mode Mode
		wrap uint64
		rec  func(tag uint32) Record
		ofl  func(n uint32) Record
	}{
		{
			mode: T2,
			wrap: T2Wraparound,
			rec:  func(tag uint32) Record { return NewT2(false, 2, tag) },
			ofl:  T2Overflow,
		},
		{
			mode: T3,
			wrap: T3Wraparound,
			rec:  func(tag uint32) Record { return NewT3(false, 1, 42, tag) },
			ofl:  T3Overflow,
		},
	} {
		t.Run(tc.mode.String(), func(t *testing.T) {
			var (
				rnd  = rand.New(rand.NewSource(1234))
				abs  uint64
				recs []Record
				want []uint64
			)
			for i := 0; i < 10000; i++ {
				old := abs / tc.wrap
				abs += uint64(rnd.Int63n(int64(3 * tc.wrap)))
				if n := abs/tc.wrap - old; n > 0 {
					recs = append(recs, tc.ofl(uint32(n)))
				}
				recs = append(recs, tc.rec(uint32(abs%tc.wrap)))
				want = append(want, abs)
			}

			dec := NewDecoder(tc.mode)
			evts := dec.DecodeAll(nil, recs)
			if got, want := len(evts), len(want); got != want {
				t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
			}
			for i, evt := range evts {
				if evt.Time != want[i] {
					t.Fatalf("event %d: invalid time: got=%d, want=%d", i, evt.Time, want[i])
				}
				if i > 0 && evt.Time < evts[i-1].Time {
					t.Fatalf("event %d: time went backward: %d -> %d", i, evts[i-1].Time, evt.Time)
				}
			}
		})
	}
}

func TestDecoderTotal(t *testing.T) {
	for _, mode := range []Mode{T2, T3} {
		t.Run(mode.String(), func(t *testing.T) {
			var (
				rnd = rand.New(rand.NewSource(42))
				dec = NewDecoder(mode)
				ofl uint64
			)
			for i := 0; i < 100000; i++ {
				r := Record(rnd.Uint32())
				evts := dec.DecodeAll(nil, []Record{r})
				if n := len(evts); n > 1 {
					t.Fatalf("record 0x%08x: too many events: %d", uint32(r), n)
				}
				if got := dec.Overflow(); got < ofl {
					t.Fatalf("record 0x%08x: overflow went backward: %d -> %d", uint32(r), ofl, got)
				}
				ofl = dec.Overflow()
			}
		})
	}
}

func TestEventIsMarker(t *testing.T) {
	for _, tc := range []struct {
		kind Kind
		want bool
	}{
		{PhotonT2, false},
		{MarkerT2, true},
		{PhotonT3, false},
		{MarkerT3, true},
		{0, false},
	} {
		if got := (Event{Kind: tc.kind}).IsMarker(); got != tc.want {
			t.Fatalf("%v: invalid marker status: got=%v, want=%v", tc.kind, got, tc.want)
		}
	}
}

func TestNewDecoderInvalidMode(t *testing.T) {
	defer func() {
		e := recover()
		if e == nil {
			t.Fatalf("expected a panic")
		}
		if got, want := e.(string), "rec: invalid mode Mode(4)"; got != want {
			t.Fatalf("invalid panic message: got=%q, want=%q", got, want)
		}
	}()
	_ = NewDecoder(Mode(4))
}

func TestParseMode(t *testing.T) {
	for _, tc := range []struct {
		str  string
		want Mode
		err  string
	}{
		{str: "t2", want: T2},
		{str: "T3", want: T3},
		{str: " 2 ", want: T2},
		{str: "t4", err: `rec: invalid mode "t4"`},
	} {
		t.Run(tc.str, func(t *testing.T) {
			got, err := ParseMode(tc.str)
			switch {
			case err != nil && tc.err != "":
				if got, want := err.Error(), tc.err; got != want {
					t.Fatalf("invalid error:\ngot= %v\nwant=%v\n", got, want)
				}
			case err != nil && tc.err == "":
				t.Fatalf("could not parse mode: %+v", err)
			case err == nil && tc.err == "":
				if got != tc.want {
					t.Fatalf("invalid mode: got=%v, want=%v", got, tc.want)
				}
			case err == nil && tc.err != "":
				t.Fatalf("expected an error (%s)", tc.err)
			}
		})
	}
}

func TestConfigUnits(t *testing.T) {
	cfg := Config{Mode: T3, Resolution: 4, SyncPeriod: 12.5e-9}
	evt := Event{Kind: PhotonT3, Time: 80, Channel: 1, DTime: 250}

	if got, want := cfg.Seconds(evt), 1e-6; got < want*(1-1e-12) || got > want*(1+1e-12) {
		t.Fatalf("invalid time: got=%g, want=%g", got, want)
	}
	if got, want := cfg.Delay(evt), 1000.0; got != want {
		t.Fatalf("invalid delay: got=%g, want=%g", got, want)
	}
	if got, want := cfg.Picoseconds(Event{Time: 25}), 100.0; got != want {
		t.Fatalf("invalid time: got=%g, want=%g", got, want)
	}
}
