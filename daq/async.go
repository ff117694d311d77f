// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package daq

import (
	"context"
	"fmt"

	"github.com/go-lpc/tttr/rec"
	"golang.org/x/sync/errgroup"
)

// RunAsync runs an acquisition session like Run, but decouples the FIFO
// reads from the decoding: one goroutine polls the device and queues the
// raw batches, another one decodes them in order and feeds the sink.
//
// At most WithQueueDepth batches are in flight.
// Batches already queued when ctx is done are still decoded.
func RunAsync(ctx context.Context, dev Device, dec *rec.Decoder, sink Sink, opts ...Option) (Summary, error) {
	var (
		cfg = newConfig(opts)
		s   = newSession(dev, dec, sink, cfg)

		free    = make(chan []rec.Record, cfg.depth)
		batches = make(chan []rec.Record, cfg.depth)
	)
	for i := 0; i < cfg.depth; i++ {
		free <- make([]rec.Record, cfg.bsize)
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		defer close(batches)
		for {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("daq: acquisition interrupted: %w", err)
			}

			var buf []rec.Record
			select {
			case <-gctx.Done():
				return fmt.Errorf("daq: acquisition interrupted: %w", gctx.Err())
			case buf = <-free:
			}

			n, done, err := s.poll(buf)
			switch {
			case err != nil:
				return err
			case done:
				return nil
			case n == 0:
				free <- buf
				continue
			}

			select {
			case <-gctx.Done():
				return fmt.Errorf("daq: acquisition interrupted: %w", gctx.Err())
			case batches <- buf[:n]:
			}
		}
	})

	grp.Go(func() error {
		for buf := range batches {
			err := s.process(buf)
			free <- buf[:cap(buf)]
			if err != nil {
				return err
			}
		}
		return nil
	})

	err := grp.Wait()
	s.sum.collect(dec)
	s.done(err)

	return s.sum, err
}
