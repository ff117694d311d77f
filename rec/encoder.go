// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// NewT2 packs the fields of a T2 record.
// Values wider than their bit field are truncated.
func NewT2(special bool, ch uint8, ttag uint32) Record {
	r := Record(ttag&t2TimeMask) | Record(ch&chanMask)<<chanShift
	if special {
		r |= 1 << specialShift
	}
	return r
}

// NewT3 packs the fields of a T3 record.
// Values wider than their bit field are truncated.
func NewT3(special bool, ch uint8, dtime uint16, nsync uint32) Record {
	r := Record(nsync&t3SyncMask) |
		Record(dtime&t3TimeMask)<<t3TimeShift |
		Record(ch&chanMask)<<chanShift
	if special {
		r |= 1 << specialShift
	}
	return r
}

// T2Overflow returns a T2 overflow record carrying n overflows.
func T2Overflow(n uint32) Record { return NewT2(true, chanOverflow, n) }

// T3Overflow returns a T3 overflow record carrying n overflows.
func T3Overflow(n uint32) Record { return NewT3(true, chanOverflow, 0, n) }

// Encoder writes raw records to an output stream, as a header-less
// sequence of little-endian 32-bit words.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
	n   int64 // number of records written
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the provided records to the underlying stream.
func (enc *Encoder) Encode(rs []Record) error {
	if enc.err != nil {
		return enc.err
	}
	if len(rs) == 0 {
		return nil
	}

	enc.reserve(4 * len(rs))
	for i, r := range rs {
		binary.LittleEndian.PutUint32(enc.buf[4*i:], uint32(r))
	}

	_, enc.err = enc.w.Write(enc.buf)
	if enc.err != nil {
		enc.err = fmt.Errorf("rec: could not write records: %w", enc.err)
		return enc.err
	}
	enc.n += int64(len(rs))
	return nil
}

// N returns the number of records written so far.
func (enc *Encoder) N() int64 { return enc.n }

func (enc *Encoder) reserve(n int) {
	if cap(enc.buf) < n {
		enc.buf = make([]byte, n)
	}
	enc.buf = enc.buf[:n]
}
