// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contmode

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/tttr/daq"
)

// Device is a photon counter acquiring in continuous mode.
type Device interface {
	// Flags returns the current device status flags.
	Flags() (daq.Flags, error)
	// ReadBlock reads the next block into p, returning the number of
	// bytes received. ReadBlock returns 0 when no block is ready yet.
	ReadBlock(p []byte) (int, error)
}

type config struct {
	msg *log.Logger
	raw io.Writer
}

// Option configures a continuous-mode acquisition.
type Option func(*config)

// WithLogger sets the logger of the acquisition.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithRawOutput dumps all received blocks to w.
func WithRawOutput(w io.Writer) Option {
	return func(cfg *config) {
		cfg.raw = w
	}
}

// Run acquires nblocks blocks from dev and hands each decoded block to f.
// The block passed to f is reused between calls.
//
// Run returns the number of blocks processed.
// Run stops on FIFO overrun (daq.ErrFIFOOverrun), at the first device
// error (*daq.DeviceError), and on any block inconsistent with the
// expected layout (ErrProtocol).
func Run(ctx context.Context, dev Device, lay Layout, nblocks int, f func(blk *Block) error, opts ...Option) (int, error) {
	cfg := config{
		msg: log.New(os.Stdout, "contmode: ", 0),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		buf = make([]byte, MaxBlockSize)
		blk Block
		n   int
	)

	for n < nblocks {
		select {
		case <-ctx.Done():
			return n, fmt.Errorf("contmode: acquisition interrupted: %w", ctx.Err())
		default:
		}

		flags, err := dev.Flags()
		if err != nil {
			return n, &daq.DeviceError{Op: "flags", Err: err}
		}
		if flags&daq.FlagFIFOFull != 0 {
			cfg.msg.Printf("FIFO overrun after %d blocks", n)
			return n, daq.ErrFIFOOverrun
		}

		nbytes, err := dev.ReadBlock(buf)
		if err != nil {
			return n, &daq.DeviceError{Op: "read-block", Err: err}
		}
		if nbytes == 0 {
			continue
		}
		if nbytes < 0 || nbytes > len(buf) {
			return n, &daq.DeviceError{
				Op:  "read-block",
				Err: fmt.Errorf("invalid number of bytes (got=%d, max=%d)", nbytes, len(buf)),
			}
		}

		raw := buf[:nbytes]
		err = Decode(raw, lay, &blk)
		if err != nil {
			return n, err
		}
		if got, want := blk.Header.BlockNum, uint32(n); got != want {
			return n, fmt.Errorf("%w: unexpected block number (got=%d, want=%d)", ErrProtocol, got, want)
		}
		err = blk.Validate()
		if err != nil {
			return n, err
		}

		if cfg.raw != nil {
			_, err = cfg.raw.Write(raw)
			if err != nil {
				return n, fmt.Errorf("contmode: could not dump block %d: %w", n, err)
			}
		}

		err = f(&blk)
		if err != nil {
			return n, fmt.Errorf("contmode: could not process block %d: %w", n, err)
		}
		n++
	}

	return n, nil
}

// WriteTableHeader writes the column header of the block summary table.
func WriteTableHeader(w io.Writer) error {
	_, err := fmt.Fprintf(w, " #   start/ns duration/ns   sum[ch1]   sum[ch2]   ...\n")
	return err
}

// WriteTableRow writes the summary of blk as one row of the block
// summary table: block number, start time, duration and one histogram
// sum per channel.
func WriteTableRow(w io.Writer, blk *Block) error {
	_, err := fmt.Fprintf(w, "%2d %10d %10d", blk.Header.BlockNum, blk.Header.StartTime, blk.Header.CTCTime)
	if err != nil {
		return err
	}
	for _, h := range blk.Histos {
		_, err = fmt.Fprintf(w, " %10d", h.Sum)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "\n")
	return err
}
