// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package daq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-lpc/tttr/rec"
	"github.com/google/uuid"
)

// Run runs an acquisition session: it polls dev for records until the
// acquisition completes, decodes them with dec and forwards the decoded
// events to sink, in arrival order.
//
// The decoder is reset at the start of the session.
// The slice passed to sink is reused between batches and must not be
// retained.
//
// Run stops at the first device error (reported as a *DeviceError),
// on FIFO overrun (ErrFIFOOverrun), on sink error, or when ctx is done.
// The context is only checked between FIFO reads.
// The returned summary describes the records processed so far.
func Run(ctx context.Context, dev Device, dec *rec.Decoder, sink Sink, opts ...Option) (Summary, error) {
	var (
		cfg = newConfig(opts)
		s   = newSession(dev, dec, sink, cfg)
		buf = make([]rec.Record, cfg.bsize)
	)

	err := s.run(ctx, buf)
	s.sum.collect(dec)
	s.done(err)

	return s.sum, err
}

type session struct {
	dev  Device
	dec  *rec.Decoder
	sink Sink
	cfg  config
	raw  *rec.Encoder

	// producer side
	retry int // number of empty rounds since acquisition time elapsed

	// consumer side
	evts []rec.Event
	nrec uint64 // number of processed records
	next uint64 // next progress report

	sum Summary
}

func newSession(dev Device, dec *rec.Decoder, sink Sink, cfg config) *session {
	dec.Reset()
	s := &session{
		dev:  dev,
		dec:  dec,
		sink: sink,
		cfg:  cfg,
		next: cfg.progress,
		sum: Summary{
			ID:    uuid.New(),
			Mode:  dec.Mode(),
			Start: time.Now(),
		},
	}
	if cfg.raw != nil {
		s.raw = rec.NewEncoder(cfg.raw)
	}
	return s
}

func (s *session) run(ctx context.Context, buf []rec.Record) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("daq: acquisition interrupted: %w", ctx.Err())
		default:
		}

		n, done, err := s.poll(buf)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if n == 0 {
			continue
		}

		err = s.process(buf[:n])
		if err != nil {
			return err
		}
	}
}

// poll fetches the next batch of records into buf.
// poll reports done once the acquisition time elapsed and the FIFO
// stayed empty for more than the configured number of rounds.
func (s *session) poll(buf []rec.Record) (n int, done bool, err error) {
	flags, err := s.dev.Flags()
	if err != nil {
		return 0, false, deviceError("flags", err)
	}
	if flags&FlagFIFOFull != 0 {
		return 0, false, ErrFIFOOverrun
	}

	n, err = s.dev.ReadFIFO(buf)
	if err != nil {
		return 0, false, deviceError("read-fifo", err)
	}
	if n < 0 || n > len(buf) {
		return 0, false, deviceError("read-fifo", fmt.Errorf(
			"invalid number of records (got=%d, max=%d)", n, len(buf),
		))
	}

	if n > 0 {
		s.retry = 0
		s.sum.Records += uint64(n)
		s.sum.Batches++
		return n, false, nil
	}

	elapsed, err := s.dev.CTCStatus()
	if err != nil {
		return 0, false, deviceError("ctc-status", err)
	}
	if !elapsed {
		return 0, false, nil
	}

	// a few more rounds, as there might be some more in the FIFO.
	s.retry++
	return 0, s.retry > s.cfg.retries, nil
}

// process decodes a batch of records and forwards its events to the sink.
func (s *session) process(recs []rec.Record) error {
	if s.raw != nil {
		err := s.raw.Encode(recs)
		if err != nil {
			return fmt.Errorf("daq: could not dump raw records: %w", err)
		}
	}

	s.evts = s.dec.DecodeAll(s.evts[:0], recs)
	if len(s.evts) > 0 {
		err := s.sink.Consume(s.evts)
		if err != nil {
			return fmt.Errorf("daq: could not consume events: %w", err)
		}
		s.sum.Events += uint64(len(s.evts))
	}

	s.nrec += uint64(len(recs))
	if s.cfg.progress > 0 && s.nrec >= s.next {
		s.cfg.msg.Printf("progress: %12d records", s.nrec)
		s.next = (s.nrec/s.cfg.progress + 1) * s.cfg.progress
	}

	return nil
}

func (s *session) done(err error) {
	switch {
	case err == nil:
		s.cfg.msg.Printf("acquisition done: %v", s.sum)
	case errors.Is(err, ErrFIFOOverrun):
		s.cfg.msg.Printf("FIFO overrun: %v", s.sum)
	default:
		s.cfg.msg.Printf("acquisition failed: %+v (%v)", err, s.sum)
	}
}
