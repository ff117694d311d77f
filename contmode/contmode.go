// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package contmode decodes the histogram blocks produced by a photon
// counter in continuous mode.
//
// A block is a 64-byte little-endian header followed, for each enabled
// channel, by the histogram bins (uint32) and the histogram sum (uint64).
package contmode // import "github.com/go-lpc/tttr/contmode"

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	HeaderSize = 64

	// MaxBlockSize is the maximum size of a continuous-mode block:
	// 8 channels of 8192 bins.
	MaxBlockSize = 262272
	// MaxDataSize is the maximum size of the data following the block header.
	MaxDataSize = MaxBlockSize - HeaderSize
)

// ErrProtocol reports a block inconsistent with the expected layout.
var ErrProtocol = errors.New("contmode: protocol mismatch")

// HistoLen returns the number of histogram bins for the provided length
// code (0: 1024 bins, 1: 2048, 2: 4096, 3: 8192).
func HistoLen(code int) (int, error) {
	if code < 0 || code > 3 {
		return 0, fmt.Errorf("contmode: invalid histogram length code %d", code)
	}
	return 1024 << code, nil
}

// Layout describes the expected shape of continuous-mode blocks.
type Layout struct {
	Channels int // number of enabled input channels
	HistoLen int // number of bins per histogram
}

// Size returns the size in bytes of a block with that layout.
func (lay Layout) Size() int {
	return BlockSize(lay.Channels, lay.HistoLen)
}

// BlockSize returns the size in bytes of a block holding the histograms
// of nchans channels with histolen bins each.
func BlockSize(nchans, histolen int) int {
	return HeaderSize + nchans*(histolen*4+8)
}

// Header is the header of a continuous-mode block.
// Times are in nanoseconds.
type Header struct {
	Channels   uint16 // number of enabled input channels
	HistoLen   uint16 // number of histogram bins
	BlockNum   uint32
	StartTime  uint64
	CTCTime    uint64
	FirstMark  [4]uint64 // time of the first marker, per marker channel
	MarkerSums [4]uint16 // number of markers, per marker channel
}

// Histogram is the histogram of one enabled input channel.
type Histogram struct {
	Bins []uint32
	Sum  uint64 // sum computed by the hardware
}

// Block is a continuous-mode data block.
type Block struct {
	Header Header
	Histos []Histogram
}

// Layout returns the layout advertised by the block header.
func (blk *Block) Layout() Layout {
	return Layout{
		Channels: int(blk.Header.Channels),
		HistoLen: int(blk.Header.HistoLen),
	}
}

// Validate checks that each histogram sum matches the hardware sum.
func (blk *Block) Validate() error {
	for i, h := range blk.Histos {
		var sum uint64
		for _, v := range h.Bins {
			sum += uint64(v)
		}
		if sum != h.Sum {
			return fmt.Errorf(
				"%w: block %d: histogram %d: invalid sum (got=%d, want=%d)",
				ErrProtocol, blk.Header.BlockNum, i, sum, h.Sum,
			)
		}
	}
	return nil
}

func (hdr *Header) unmarshal(p []byte) {
	le := binary.LittleEndian
	hdr.Channels = le.Uint16(p[0:])
	hdr.HistoLen = le.Uint16(p[2:])
	hdr.BlockNum = le.Uint32(p[4:])
	hdr.StartTime = le.Uint64(p[8:])
	hdr.CTCTime = le.Uint64(p[16:])
	for i := range hdr.FirstMark {
		hdr.FirstMark[i] = le.Uint64(p[24+8*i:])
	}
	for i := range hdr.MarkerSums {
		hdr.MarkerSums[i] = le.Uint16(p[56+2*i:])
	}
}

func (hdr *Header) marshal(p []byte) {
	le := binary.LittleEndian
	le.PutUint16(p[0:], hdr.Channels)
	le.PutUint16(p[2:], hdr.HistoLen)
	le.PutUint32(p[4:], hdr.BlockNum)
	le.PutUint64(p[8:], hdr.StartTime)
	le.PutUint64(p[16:], hdr.CTCTime)
	for i, v := range hdr.FirstMark {
		le.PutUint64(p[24+8*i:], v)
	}
	for i, v := range hdr.MarkerSums {
		le.PutUint16(p[56+2*i:], v)
	}
}

// Decode decodes the block held in p into blk.
//
// Decode first checks the number of received bytes against the expected
// layout, then the channel count and histogram length advertised by the
// header. Histogram bins of blk are reused when possible.
func Decode(p []byte, lay Layout, blk *Block) error {
	if n, want := len(p), lay.Size(); n != want {
		return fmt.Errorf("%w: unexpected block size (got=%d, want=%d)", ErrProtocol, n, want)
	}

	blk.Header.unmarshal(p)
	if got, want := int(blk.Header.Channels), lay.Channels; got != want {
		return fmt.Errorf("%w: unexpected number of channels (got=%d, want=%d)", ErrProtocol, got, want)
	}
	if got, want := int(blk.Header.HistoLen), lay.HistoLen; got != want {
		return fmt.Errorf("%w: unexpected histogram length (got=%d, want=%d)", ErrProtocol, got, want)
	}

	if cap(blk.Histos) < lay.Channels {
		blk.Histos = make([]Histogram, lay.Channels)
	}
	blk.Histos = blk.Histos[:lay.Channels]

	var (
		le  = binary.LittleEndian
		beg = HeaderSize
	)
	for i := range blk.Histos {
		h := &blk.Histos[i]
		if cap(h.Bins) < lay.HistoLen {
			h.Bins = make([]uint32, lay.HistoLen)
		}
		h.Bins = h.Bins[:lay.HistoLen]
		for j := range h.Bins {
			h.Bins[j] = le.Uint32(p[beg:])
			beg += 4
		}
		h.Sum = le.Uint64(p[beg:])
		beg += 8
	}

	return nil
}
