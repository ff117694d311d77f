// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sink provides consumers of decoded TTTR events.
package sink // import "github.com/go-lpc/tttr/sink"

import (
	"github.com/go-lpc/tttr/daq"
	"github.com/go-lpc/tttr/rec"
)

// Tee forwards events to all its sinks, in order.
// Tee stops at the first failing sink.
type Tee []daq.Sink

func (tee Tee) Consume(evts []rec.Event) error {
	for _, s := range tee {
		err := s.Consume(evts)
		if err != nil {
			return err
		}
	}
	return nil
}

// Counter counts events per kind and photons per channel.
type Counter struct {
	Kinds    [5]uint64  // indexed by rec.Kind
	Channels [65]uint64 // photons per channel (0 is the T2 sync channel)
}

func (c *Counter) Consume(evts []rec.Event) error {
	for _, evt := range evts {
		if evt.Kind == 0 || int(evt.Kind) >= len(c.Kinds) {
			continue
		}
		c.Kinds[evt.Kind]++
		if evt.IsMarker() {
			continue
		}
		if int(evt.Channel) < len(c.Channels) {
			c.Channels[evt.Channel]++
		}
	}
	return nil
}

// Photons returns the total number of photon events.
func (c *Counter) Photons() uint64 {
	return c.Kinds[rec.PhotonT2] + c.Kinds[rec.PhotonT3]
}

// Markers returns the total number of marker events.
func (c *Counter) Markers() uint64 {
	return c.Kinds[rec.MarkerT2] + c.Kinds[rec.MarkerT3]
}

var (
	_ daq.Sink = (Tee)(nil)
	_ daq.Sink = (*Counter)(nil)
	_ daq.Sink = (*Text)(nil)
	_ daq.Sink = (*Histogram)(nil)
)
