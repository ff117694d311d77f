// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package daq

import (
	"io"
	"log"
	"os"
)

const (
	// TTReadMax is the default maximum number of records fetched per FIFO read.
	TTReadMax = 131072

	defaultStopRetries = 5
	defaultQueueDepth  = 8
)

type config struct {
	msg      *log.Logger
	bsize    int       // FIFO read size, in records
	retries  int       // number of extra empty rounds once acquisition time elapsed
	depth    int       // queue depth of the asynchronous pipeline
	progress uint64    // log progress every n records (0: disabled)
	raw      io.Writer // raw records dump
}

func newConfig(opts []Option) config {
	cfg := config{
		msg:     log.New(os.Stdout, "daq: ", 0),
		bsize:   TTReadMax,
		retries: defaultStopRetries,
		depth:   defaultQueueDepth,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures an acquisition session.
type Option func(*config)

// WithLogger sets the logger used by the acquisition session.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithBatchSize sets the maximum number of records requested per FIFO read.
func WithBatchSize(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.bsize = n
		}
	}
}

// WithStopRetries sets the number of extra empty FIFO reads tolerated
// once the device reported the acquisition time elapsed.
// The session stops on the first empty read beyond that number.
func WithStopRetries(n int) Option {
	return func(cfg *config) {
		if n >= 0 {
			cfg.retries = n
		}
	}
}

// WithQueueDepth sets the number of in-flight batches of RunAsync.
func WithQueueDepth(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.depth = n
		}
	}
}

// WithProgress logs the number of processed records every n records.
func WithProgress(n uint64) Option {
	return func(cfg *config) {
		cfg.progress = n
	}
}

// WithRawOutput dumps all the raw records read from the device to w,
// before decoding.
func WithRawOutput(w io.Writer) Option {
	return func(cfg *config) {
		cfg.raw = w
	}
}
