// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sink

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-lpc/tttr/rec"
	"go-hep.org/x/hep/hbook"
)

// T3HistBins is the number of bins of a T3 delay histogram
// (the delay field of a T3 record has 15 bits).
const T3HistBins = 1 << 15

// Histogram histograms the delay of T3 photons, per input channel.
type Histogram struct {
	bins    [][]uint32 // bins[channel-1][dtime]
	cfg     rec.Config
	markers uint64
	dropped uint64 // photons of channels beyond the configured number
}

// NewHistogram returns a T3 delay histogramming sink for nchans input channels.
func NewHistogram(nchans int, cfg rec.Config) *Histogram {
	h := &Histogram{
		bins: make([][]uint32, nchans),
		cfg:  cfg,
	}
	for i := range h.bins {
		h.bins[i] = make([]uint32, T3HistBins)
	}
	return h
}

func (h *Histogram) Consume(evts []rec.Event) error {
	for _, evt := range evts {
		switch evt.Kind {
		case rec.PhotonT3:
			ch := int(evt.Channel) - 1
			if ch < 0 || ch >= len(h.bins) {
				h.dropped++
				continue
			}
			h.bins[ch][evt.DTime]++
		case rec.MarkerT3:
			h.markers++
		default:
			return fmt.Errorf("sink: histogram requires T3 events (got %v)", evt.Kind)
		}
	}
	return nil
}

// Channels returns the number of histogrammed input channels.
func (h *Histogram) Channels() int { return len(h.bins) }

// Bins returns the delay histogram of input channel ch (1-based).
func (h *Histogram) Bins(ch int) []uint32 { return h.bins[ch-1] }

// Markers returns the number of marker events seen.
func (h *Histogram) Markers() uint64 { return h.markers }

// Dropped returns the number of photons of channels that were not histogrammed.
func (h *Histogram) Dropped() uint64 { return h.dropped }

// WriteTo writes the histograms as a table, one column per channel
// and one row per delay bin.
func (h *Histogram) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	bw := bufio.NewWriter(cw)
	for j := range h.bins {
		fmt.Fprintf(bw, "  ch%2d ", j+1)
	}
	fmt.Fprintf(bw, "\n")

	for i := 0; i < T3HistBins; i++ {
		for j := range h.bins {
			fmt.Fprintf(bw, "%6d ", h.bins[j][i])
		}
		fmt.Fprintf(bw, "\n")
	}

	err := bw.Flush()
	if err != nil {
		return cw.n, fmt.Errorf("sink: could not write histogram table: %w", err)
	}
	return cw.n, nil
}

// H1D returns the delay histogram of input channel ch (1-based), with
// the delay axis in picoseconds.
func (h *Histogram) H1D(ch int) *hbook.H1D {
	var (
		res  = h.cfg.Resolution
		xmax = float64(T3HistBins)
	)
	if res > 0 {
		xmax *= res
	} else {
		res = 1
	}

	h1 := hbook.NewH1D(T3HistBins, 0, xmax)
	h1.Annotation()["name"] = fmt.Sprintf("ch%02d", ch)
	h1.Annotation()["title"] = fmt.Sprintf("T3 delay, channel %d", ch)
	for i, n := range h.bins[ch-1] {
		if n == 0 {
			continue
		}
		h1.Fill((float64(i)+0.5)*res, float64(n))
	}
	return h1
}

// WriteYODA writes the delay histograms of all channels in the YODA format.
func (h *Histogram) WriteYODA(w io.Writer) error {
	for ch := 1; ch <= len(h.bins); ch++ {
		raw, err := h.H1D(ch).MarshalYODA()
		if err != nil {
			return fmt.Errorf("sink: could not marshal histogram of channel %d: %w", ch, err)
		}
		_, err = w.Write(raw)
		if err != nil {
			return fmt.Errorf("sink: could not write histogram of channel %d: %w", ch, err)
		}
	}
	return nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

var _ io.WriterTo = (*Histogram)(nil)
