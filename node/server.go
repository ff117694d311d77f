// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package node implements a TDAQ process replaying TTTR acquisitions
// under run control and publishing the decoded events.
package node // import "github.com/go-lpc/tttr/node"

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/tttr/conddb"
	"github.com/go-lpc/tttr/daq"
	"github.com/go-lpc/tttr/rec"
)

// Server is a TDAQ process driving TTTR acquisitions.
//
// The /config command expects the name of a raw records file and the
// acquisition mode (2 or 3).
// A zero mode is resolved from the configuration database, when one
// was provided.
type Server struct {
	name   string
	db     *conddb.DB
	serial string

	fname string
	mode  rec.Mode
	dev   *daq.Replay
	dec   *rec.Decoder
	data  chan []byte
	run   int32

	mu  sync.Mutex
	n   int // number of published batches
	sum daq.Summary
}

// Option configures a Server.
type Option func(*Server)

// WithDB configures the database used to retrieve the acquisition
// settings of the device serial and to record runs.
func WithDB(db *conddb.DB, serial string) Option {
	return func(srv *Server) {
		srv.db = db
		srv.serial = serial
	}
}

// New creates a new TDAQ process.
func New(name string, opts ...Option) *Server {
	srv := &Server{name: name}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Summary returns the summary of the last acquisition.
func (srv *Server) Summary() daq.Summary {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.sum
}

func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")

	dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
	fname := dec.ReadStr()
	mode := rec.Mode(dec.ReadU32())
	if err := dec.Err(); err != nil {
		ctx.Msg.Errorf("could not decode /config request: %+v", err)
		return fmt.Errorf("could not decode /config request: %w", err)
	}

	if mode == 0 && srv.db != nil {
		cfg, err := srv.db.LastSettings(ctx.Ctx, srv.serial)
		if err != nil {
			ctx.Msg.Errorf("could not retrieve settings of %q: %+v", srv.serial, err)
			return fmt.Errorf("could not retrieve settings of %q: %w", srv.serial, err)
		}
		mode = rec.Mode(cfg.Mode)
	}

	switch mode {
	case rec.T2, rec.T3:
	default:
		ctx.Msg.Errorf("invalid acquisition mode %d", mode)
		return fmt.Errorf("invalid acquisition mode %d", mode)
	}

	srv.fname = fname
	srv.mode = mode
	ctx.Msg.Infof("configured %v acquisition from %q", mode, fname)
	return nil
}

func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	if srv.fname == "" {
		return fmt.Errorf("process %q not configured", srv.name)
	}

	srv.close()

	dev, err := daq.OpenReplay(srv.fname)
	if err != nil {
		ctx.Msg.Errorf("could not open device: %+v", err)
		return fmt.Errorf("could not open device: %w", err)
	}
	srv.dev = dev
	srv.dec = rec.NewDecoder(srv.mode)
	srv.data = make(chan []byte, 1024)

	if srv.db != nil {
		last, err := srv.db.LastRunNumber(ctx.Ctx)
		if err != nil {
			ctx.Msg.Errorf("could not retrieve last run number: %+v", err)
			return fmt.Errorf("could not retrieve last run number: %w", err)
		}
		srv.run = last + 1
	}

	return nil
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	srv.close()
	srv.fname = ""
	srv.mode = 0
	srv.dec = nil
	srv.data = nil

	srv.mu.Lock()
	srv.n = 0
	srv.sum = daq.Summary{}
	srv.mu.Unlock()
	return nil
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	if srv.dev == nil {
		return fmt.Errorf("process %q not initialized", srv.name)
	}
	srv.dev.Rewind()

	srv.mu.Lock()
	srv.n = 0
	srv.mu.Unlock()
	return nil
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	srv.mu.Lock()
	n := srv.n
	srv.mu.Unlock()
	ctx.Msg.Debugf("received /stop command... -> n=%d", n)
	return nil
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	srv.close()
	return nil
}

// Events is the output handler publishing batches of decoded events.
func (srv *Server) Events(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-srv.data:
		dst.Body = data
	}
	return nil
}

// Run is the run handler performing the acquisition.
func (srv *Server) Run(ctx tdaq.Context) error {
	if srv.dev == nil {
		return fmt.Errorf("process %q not initialized", srv.name)
	}

	msg := log.New(msgWriter{ctx}, "", 0)
	sum, err := daq.Run(ctx.Ctx, srv.dev, srv.dec, daq.SinkFunc(func(evts []rec.Event) error {
		return srv.publish(ctx.Ctx, evts)
	}), daq.WithLogger(msg))

	srv.mu.Lock()
	srv.sum = sum
	srv.mu.Unlock()

	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		status = "stopped"
		err = nil
	case errors.Is(err, daq.ErrFIFOOverrun):
		status = "fifo-overrun"
	default:
		status = "error"
	}

	if srv.db != nil {
		run := conddb.Run{
			ID:      sum.ID,
			Number:  srv.run,
			Serial:  srv.serial,
			Mode:    uint8(sum.Mode),
			Records: sum.Records,
			Events:  sum.Events,
			Start:   sum.Start,
			Elapsed: sum.Elapsed,
			Status:  status,
		}
		if e := srv.db.SaveRun(context.Background(), run); e != nil {
			ctx.Msg.Errorf("could not save run %d: %+v", srv.run, e)
		}
		srv.run++
	}

	if err != nil {
		ctx.Msg.Errorf("acquisition failed: %+v", err)
		return fmt.Errorf("could not run acquisition: %w", err)
	}
	return nil
}

func (srv *Server) publish(ctx context.Context, evts []rec.Event) error {
	buf := new(bytes.Buffer)
	err := EncodeEvents(buf, evts)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case srv.data <- buf.Bytes():
		srv.mu.Lock()
		srv.n++
		srv.mu.Unlock()
	}
	return nil
}

func (srv *Server) close() {
	if srv.dev == nil {
		return
	}
	_ = srv.dev.Close()
	srv.dev = nil
}

type msgWriter struct {
	ctx tdaq.Context
}

func (w msgWriter) Write(p []byte) (int, error) {
	w.ctx.Msg.Infof("%s", bytes.TrimRight(p, "\n"))
	return len(p), nil
}
