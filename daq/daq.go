// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package daq drives the acquisition of TTTR records from a photon
// counter device, decodes them and forwards the resulting events
// to a sink.
package daq // import "github.com/go-lpc/tttr/daq"

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-lpc/tttr/rec"
	"github.com/google/uuid"
)

// Flags is the status bit field reported by a device.
type Flags uint32

const (
	FlagOverflow Flags = 0x0001 // histogram mode only
	FlagFIFOFull Flags = 0x0002
	FlagSyncLost Flags = 0x0004
	FlagRefLost  Flags = 0x0008
	FlagSysError Flags = 0x0010 // hardware error, must contact support
	FlagActive   Flags = 0x0020 // measurement is running
)

// Device is a TTTR acquisition device.
type Device interface {
	// ReadFIFO reads up to len(buf) records from the device FIFO.
	// ReadFIFO may return fewer records than requested, or none.
	ReadFIFO(buf []rec.Record) (int, error)
	// Flags returns the current device status flags.
	Flags() (Flags, error)
	// CTCStatus returns whether the acquisition time has elapsed.
	CTCStatus() (bool, error)
}

// Sink consumes decoded events, in order.
type Sink interface {
	Consume(evts []rec.Event) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(evts []rec.Event) error

func (f SinkFunc) Consume(evts []rec.Event) error { return f(evts) }

var (
	// ErrFIFOOverrun is returned when the device FIFO overran.
	// Data was lost and the acquisition stopped.
	ErrFIFOOverrun = errors.New("daq: FIFO overrun")
)

// DeviceError describes a failed device operation.
type DeviceError struct {
	Op   string // operation that failed (flags, read-fifo, ctc-status)
	Code int    // device status code, if any
	Err  error
}

func (e *DeviceError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("daq: device %s failed (code=%d): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("daq: device %s failed: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

func deviceError(op string, err error) error {
	var derr *DeviceError
	if errors.As(err, &derr) {
		if derr.Op != "" {
			return err
		}
		return &DeviceError{Op: op, Code: derr.Code, Err: derr.Err}
	}
	return &DeviceError{Op: op, Err: err}
}

// Summary describes a completed (or aborted) acquisition session.
type Summary struct {
	ID   uuid.UUID // session identifier
	Mode rec.Mode

	Records   uint64 // number of raw records read
	Events    uint64 // number of events forwarded to the sink
	Batches   uint64 // number of non-empty FIFO reads
	Overflows uint64 // number of overflow records
	Ignored   uint64 // number of reserved special records
	Overflow  uint64 // final overflow correction

	Start   time.Time
	Elapsed time.Duration
}

func (sum Summary) String() string {
	return fmt.Sprintf(
		"session=%s mode=%v records=%d events=%d batches=%d overflows=%d ignored=%d elapsed=%v",
		sum.ID, sum.Mode, sum.Records, sum.Events, sum.Batches,
		sum.Overflows, sum.Ignored, sum.Elapsed,
	)
}

func (sum *Summary) collect(dec *rec.Decoder) {
	sum.Overflows = dec.Overflows()
	sum.Ignored = dec.Ignored()
	sum.Overflow = dec.Overflow()
	sum.Elapsed = time.Since(sum.Start)
}
