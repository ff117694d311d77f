// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rec

// Decoder turns raw records into events, keeping track of the
// accumulated overflow correction of an acquisition session.
//
// A Decoder must be fed records in arrival order and is not safe
// for concurrent use.
type Decoder struct {
	mode Mode
	ofl  uint64 // overflow correction

	nofl uint64 // number of overflow records
	nign uint64 // number of reserved special records
}

// NewDecoder creates a new decoder for the provided acquisition mode.
func NewDecoder(mode Mode) *Decoder {
	switch mode {
	case T2, T3:
	default:
		panic("rec: invalid mode " + mode.String())
	}
	return &Decoder{mode: mode}
}

// Mode returns the acquisition mode of the decoder.
func (dec *Decoder) Mode() Mode { return dec.mode }

// Overflow returns the current overflow correction.
func (dec *Decoder) Overflow() uint64 { return dec.ofl }

// Overflows returns the number of overflow records seen since the last reset.
func (dec *Decoder) Overflows() uint64 { return dec.nofl }

// Ignored returns the number of reserved special records silently
// dropped since the last reset.
func (dec *Decoder) Ignored() uint64 { return dec.nign }

// Reset clears the decoder state, ahead of a new acquisition.
func (dec *Decoder) Reset() {
	dec.ofl = 0
	dec.nofl = 0
	dec.nign = 0
}

// Decode decodes a single record.
// Decode returns false when the record carries no event
// (overflow records and reserved special records).
func (dec *Decoder) Decode(r Record) (Event, bool) {
	switch dec.mode {
	case T2:
		return dec.decodeT2(r)
	default:
		return dec.decodeT3(r)
	}
}

// DecodeAll decodes all records, in order, and appends the
// resulting events to dst.
func (dec *Decoder) DecodeAll(dst []Event, rs []Record) []Event {
	for _, r := range rs {
		evt, ok := dec.Decode(r)
		if !ok {
			continue
		}
		dst = append(dst, evt)
	}
	return dst
}

func (dec *Decoder) decodeT2(r Record) (Event, bool) {
	var (
		ttag    = uint64(r & t2TimeMask)
		ch      = uint8((r >> chanShift) & chanMask)
		special = (r >> specialShift) != 0
	)

	if !special {
		return Event{Kind: PhotonT2, Time: dec.ofl + ttag, Channel: ch + 1}, true
	}

	switch {
	case ch == chanOverflow:
		// the number of overflows is stored in the time tag.
		dec.ofl += T2Wraparound * ttag
		dec.nofl++
		return Event{}, false
	case markerMin <= ch && ch <= markerMax:
		return Event{Kind: MarkerT2, Time: dec.ofl + ttag, Markers: ch}, true
	case ch == 0:
		return Event{Kind: PhotonT2, Time: dec.ofl + ttag, Channel: 0}, true
	}

	dec.nign++
	return Event{}, false
}

func (dec *Decoder) decodeT3(r Record) (Event, bool) {
	var (
		nsync   = uint64(r & t3SyncMask)
		dtime   = uint16((r >> t3TimeShift) & t3TimeMask)
		ch      = uint8((r >> chanShift) & chanMask)
		special = (r >> specialShift) != 0
	)

	if !special {
		return Event{Kind: PhotonT3, Time: dec.ofl + nsync, Channel: ch + 1, DTime: dtime}, true
	}

	switch {
	case ch == chanOverflow:
		// the number of overflows is stored in nsync.
		dec.ofl += T3Wraparound * nsync
		dec.nofl++
		return Event{}, false
	case markerMin <= ch && ch <= markerMax:
		return Event{Kind: MarkerT3, Time: dec.ofl + nsync, Markers: ch}, true
	}

	dec.nign++
	return Event{}, false
}
