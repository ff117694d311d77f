// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import (
	"time"

	"github.com/google/uuid"
)

// Settings are the acquisition settings of a photon counter.
// Levels and zero-crossings are in mV, offsets in ps.
type Settings struct {
	ID     int64  `db:"identifier"`
	Serial string `db:"serial"`

	Mode    uint8 `db:"mode"`    // 2: T2, 3: T3
	Binning int32 `db:"binning"` // T3 binning code
	Offset  int32 `db:"offset"`  // T3 histogram offset, in ns
	Tacq    int32 `db:"tacq"`    // acquisition time, in ms

	SyncDivider       int32 `db:"sync_divider"`
	SyncCFDZeroCross  int32 `db:"sync_cfd_zero"`
	SyncCFDLevel      int32 `db:"sync_cfd_level"`
	SyncChannelOffset int32 `db:"sync_chan_offset"`

	InputCFDZeroCross  int32 `db:"input_cfd_zero"`
	InputCFDLevel      int32 `db:"input_cfd_level"`
	InputChannelOffset int32 `db:"input_chan_offset"`
}

// DefaultSettings returns the factory acquisition settings.
func DefaultSettings() Settings {
	return Settings{
		Mode:              3,
		Tacq:              1000,
		SyncDivider:       1,
		SyncCFDZeroCross:  10,
		SyncCFDLevel:      50,
		SyncChannelOffset: -5000,
		InputCFDZeroCross: 10,
		InputCFDLevel:     50,
	}
}

// AcqTime returns the acquisition time.
func (cfg Settings) AcqTime() time.Duration {
	return time.Duration(cfg.Tacq) * time.Millisecond
}

// Run describes an acquisition run.
type Run struct {
	ID      uuid.UUID // acquisition session
	Number  int32
	Serial  string // device serial number
	Mode    uint8
	Records uint64
	Events  uint64
	Start   time.Time
	Elapsed time.Duration
	Status  string
}
