// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"fmt"
	"io"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/tttr/rec"
)

// EncodeEvents writes a batch of events to w, in the TDAQ wire format.
func EncodeEvents(w io.Writer, evts []rec.Event) error {
	enc := tdaq.NewEncoder(w)
	enc.WriteU32(uint32(len(evts)))
	for _, evt := range evts {
		enc.WriteU8(uint8(evt.Kind))
		enc.WriteU8(evt.Channel)
		enc.WriteU8(evt.Markers)
		enc.WriteU16(evt.DTime)
		enc.WriteU64(evt.Time)
	}
	if err := enc.Err(); err != nil {
		return fmt.Errorf("node: could not encode events: %w", err)
	}
	return nil
}

// DecodeEvents reads a batch of events from r and appends them to dst.
func DecodeEvents(dst []rec.Event, r io.Reader) ([]rec.Event, error) {
	dec := tdaq.NewDecoder(r)
	n := int(dec.ReadU32())
	for i := 0; i < n && dec.Err() == nil; i++ {
		var evt rec.Event
		evt.Kind = rec.Kind(dec.ReadU8())
		evt.Channel = dec.ReadU8()
		evt.Markers = dec.ReadU8()
		evt.DTime = dec.ReadU16()
		evt.Time = dec.ReadU64()
		if dec.Err() != nil {
			break
		}
		dst = append(dst, evt)
	}
	if err := dec.Err(); err != nil {
		return dst, fmt.Errorf("node: could not decode events: %w", err)
	}
	return dst, nil
}
