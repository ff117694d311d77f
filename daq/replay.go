// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package daq

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-lpc/tttr/internal/mmap"
	"github.com/go-lpc/tttr/rec"
)

// Replay is a Device replaying the raw records of a previous acquisition.
//
// Replay reports the acquisition time as elapsed once all records were read.
type Replay struct {
	r    io.ReaderAt
	c    io.Closer
	size int64 // number of records
	cur  int64 // number of records read
	buf  []byte

	// Chunk is the maximum number of records returned by a FIFO read.
	// Zero means no limit.
	Chunk int

	// OverrunAt, when positive, raises FlagFIFOFull once that many
	// records were read.
	OverrunAt int64
}

// NewReplay returns a device replaying the n raw records held in r.
func NewReplay(r io.ReaderAt, n int64) *Replay {
	return &Replay{r: r, size: n}
}

// OpenReplay memory-maps the named raw records file and returns
// a device replaying it.
func OpenReplay(fname string) (*Replay, error) {
	h, err := mmap.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("daq: could not open replay file: %w", err)
	}
	n := h.Len()
	if n%4 != 0 {
		_ = h.Close()
		return nil, fmt.Errorf("daq: invalid replay file %q: size %d is not a multiple of 4", fname, n)
	}
	dev := NewReplay(h, int64(n/4))
	dev.c = h
	return dev, nil
}

// Close releases the resources held by the device.
func (dev *Replay) Close() error {
	if dev.c == nil {
		return nil
	}
	return dev.c.Close()
}

// Len returns the total number of records to replay.
func (dev *Replay) Len() int64 { return dev.size }

// Rewind restarts the replay from the first record.
func (dev *Replay) Rewind() { dev.cur = 0 }

func (dev *Replay) Flags() (Flags, error) {
	var flags Flags
	if dev.cur < dev.size {
		flags |= FlagActive
	}
	if dev.OverrunAt > 0 && dev.cur >= dev.OverrunAt {
		flags |= FlagFIFOFull
	}
	return flags, nil
}

func (dev *Replay) CTCStatus() (bool, error) {
	return dev.cur >= dev.size, nil
}

func (dev *Replay) ReadFIFO(buf []rec.Record) (int, error) {
	n := int64(len(buf))
	if dev.Chunk > 0 && n > int64(dev.Chunk) {
		n = int64(dev.Chunk)
	}
	if left := dev.size - dev.cur; n > left {
		n = left
	}
	if n <= 0 {
		return 0, nil
	}

	if int64(cap(dev.buf)) < 4*n {
		dev.buf = make([]byte, 4*n)
	}
	raw := dev.buf[:4*n]
	m, err := dev.r.ReadAt(raw, 4*dev.cur)
	if m < len(raw) {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, fmt.Errorf("daq: could not read records [%d, %d): %w", dev.cur, dev.cur+n, err)
	}
	for i := range buf[:n] {
		buf[i] = rec.Record(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	dev.cur += n
	return int(n), nil
}

var (
	_ Device    = (*Replay)(nil)
	_ io.Closer = (*Replay)(nil)
)
