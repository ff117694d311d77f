// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package daq

import (
	"sync"

	"github.com/go-lpc/tttr/rec"
)

// fakeDevice replays a scripted sequence of FIFO reads.
type fakeDevice struct {
	mu sync.Mutex

	batches [][]rec.Record // records returned by successive FIFO reads
	flags   map[int]Flags  // flags returned by the i-th call to Flags
	ctcAt   int            // CTCStatus reports elapsed from its ctcAt-th call on
	fail    map[string]int // operation -> index of the failing call
	err     error          // error returned by the failing call

	nflags int
	nread  int
	nctc   int
}

func (dev *fakeDevice) failing(op string, i int) bool {
	n, ok := dev.fail[op]
	return ok && n == i
}

func (dev *fakeDevice) Flags() (Flags, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	i := dev.nflags
	dev.nflags++
	if dev.failing("flags", i) {
		return 0, dev.err
	}
	return dev.flags[i], nil
}

func (dev *fakeDevice) ReadFIFO(buf []rec.Record) (int, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	i := dev.nread
	dev.nread++
	if dev.failing("read-fifo", i) {
		return 0, dev.err
	}
	if len(dev.batches) == 0 {
		return 0, nil
	}
	n := copy(buf, dev.batches[0])
	if n < len(dev.batches[0]) {
		dev.batches[0] = dev.batches[0][n:]
		return n, nil
	}
	dev.batches = dev.batches[1:]
	return n, nil
}

func (dev *fakeDevice) CTCStatus() (bool, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	i := dev.nctc
	dev.nctc++
	if dev.failing("ctc-status", i) {
		return false, dev.err
	}
	return i >= dev.ctcAt, nil
}

var _ Device = (*fakeDevice)(nil)

type collector struct {
	evts []rec.Event
}

func (c *collector) Consume(evts []rec.Event) error {
	c.evts = append(c.evts, evts...)
	return nil
}
