// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rec decodes TTTR records (HydraHarp V2 layout) into
// overflow-corrected photon and marker events.
package rec // import "github.com/go-lpc/tttr/rec"

import (
	"fmt"
	"strings"
)

// Record is a raw 32-bit TTTR record, as delivered by the device FIFO.
// Its layout depends on the acquisition Mode.
type Record uint32

// Mode is the TTTR acquisition mode.
type Mode uint8

const (
	T2 Mode = 2 // absolute time tags
	T3 Mode = 3 // sync count plus start-stop delay
)

func (m Mode) String() string {
	switch m {
	case T2:
		return "t2"
	case T3:
		return "t3"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode parses a mode name ("t2" or "t3", case insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t2", "2":
		return T2, nil
	case "t3", "3":
		return T3, nil
	}
	return 0, fmt.Errorf("rec: invalid mode %q", s)
}

const (
	T2Wraparound = 33554432 // 2^25 time tag units per T2 overflow
	T3Wraparound = 1024     // sync periods per T3 overflow

	chanOverflow = 0x3f // special channel flagging an overflow record
	markerMin    = 1
	markerMax    = 15

	t2TimeMask = 1<<25 - 1
	t3SyncMask = 1<<10 - 1
	t3TimeMask = 1<<15 - 1
	chanMask   = 1<<6 - 1

	t3TimeShift  = 10
	chanShift    = 25
	specialShift = 31
)

// Kind describes the variant held by an Event.
type Kind uint8

const (
	PhotonT2 Kind = iota + 1
	MarkerT2
	PhotonT3
	MarkerT3
)

func (k Kind) String() string {
	switch k {
	case PhotonT2:
		return "photon-t2"
	case MarkerT2:
		return "marker-t2"
	case PhotonT3:
		return "photon-t3"
	case MarkerT3:
		return "marker-t3"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Event is a decoded TTTR event.
//
// In T2 mode, Time is the overflow-corrected time tag in units of the
// device base resolution.
// In T3 mode, Time is the overflow-corrected sync count and DTime the
// delay since that sync, in units of the chosen resolution.
type Event struct {
	Kind    Kind
	Time    uint64
	Channel uint8 // photon channel. 0 is the sync channel (T2 only), inputs are 1..N.
	Markers uint8 // marker bit field (markers only)
	DTime   uint16
}

// IsMarker returns whether the event is a marker event.
func (evt Event) IsMarker() bool {
	return evt.Kind == MarkerT2 || evt.Kind == MarkerT3
}

// Config holds the calibration of an acquisition session.
type Config struct {
	Mode       Mode
	Resolution float64 // resolution in ps
	SyncPeriod float64 // sync period in s (T3 only)
}

// Picoseconds returns the T2 time of evt in picoseconds.
func (cfg Config) Picoseconds(evt Event) float64 {
	return float64(evt.Time) * cfg.Resolution
}

// Seconds returns the T3 time of evt (sync count times sync period) in seconds.
func (cfg Config) Seconds(evt Event) float64 {
	return float64(evt.Time) * cfg.SyncPeriod
}

// Delay returns the T3 start-stop delay of evt in picoseconds.
func (cfg Config) Delay(evt Event) float64 {
	return float64(evt.DTime) * cfg.Resolution
}
