// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sink

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-lpc/tttr/rec"
)

// Text writes events as text lines, in physical units.
//
// T2 photons and markers are written as:
//
//	CH  1        1234567
//	MK  2        1234999
//
// with times in picoseconds.
// T3 photons and markers are written as:
//
//	CH  1 0.00001250     4096
//	MK  2 0.00001300
//
// with the sync time in seconds and the delay in picoseconds.
type Text struct {
	w   *bufio.Writer
	cfg rec.Config
}

// NewText returns a sink writing events as text to w.
// The column header matching the acquisition mode is written first.
func NewText(w io.Writer, cfg rec.Config) *Text {
	txt := &Text{w: bufio.NewWriter(w), cfg: cfg}
	switch cfg.Mode {
	case rec.T2:
		fmt.Fprintf(txt.w, "ev chn       time/ps\n\n")
	case rec.T3:
		fmt.Fprintf(txt.w, "ev chn  ttag/s   dtime/ps\n\n")
	}
	return txt
}

func (txt *Text) Consume(evts []rec.Event) error {
	for _, evt := range evts {
		switch evt.Kind {
		case rec.PhotonT2:
			fmt.Fprintf(txt.w, "CH %2d %14.0f\n", evt.Channel, txt.cfg.Picoseconds(evt))
		case rec.MarkerT2:
			fmt.Fprintf(txt.w, "MK %2d %14.0f\n", evt.Markers, txt.cfg.Picoseconds(evt))
		case rec.PhotonT3:
			fmt.Fprintf(txt.w, "CH %2d %10.8f %8.0f\n", evt.Channel, txt.cfg.Seconds(evt), txt.cfg.Delay(evt))
		case rec.MarkerT3:
			fmt.Fprintf(txt.w, "MK %2d %10.8f\n", evt.Markers, txt.cfg.Seconds(evt))
		default:
			return fmt.Errorf("sink: invalid event kind %v", evt.Kind)
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (txt *Text) Flush() error {
	err := txt.w.Flush()
	if err != nil {
		return fmt.Errorf("sink: could not flush text output: %w", err)
	}
	return nil
}
