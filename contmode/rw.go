// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contmode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Encoder writes continuous-mode blocks to an output stream.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes blk to the underlying stream.
// The header channel count and histogram length must match the histograms.
func (enc *Encoder) Encode(blk *Block) error {
	if enc.err != nil {
		return enc.err
	}

	lay := blk.Layout()
	if len(blk.Histos) != lay.Channels {
		return fmt.Errorf("contmode: inconsistent block: %d histograms for %d channels", len(blk.Histos), lay.Channels)
	}

	enc.reserve(lay.Size())
	blk.Header.marshal(enc.buf)

	var (
		le  = binary.LittleEndian
		beg = HeaderSize
	)
	for i, h := range blk.Histos {
		if len(h.Bins) != lay.HistoLen {
			return fmt.Errorf("contmode: inconsistent block: histogram %d has %d bins (want=%d)", i, len(h.Bins), lay.HistoLen)
		}
		for _, v := range h.Bins {
			le.PutUint32(enc.buf[beg:], v)
			beg += 4
		}
		le.PutUint64(enc.buf[beg:], h.Sum)
		beg += 8
	}

	_, enc.err = enc.w.Write(enc.buf)
	if enc.err != nil {
		enc.err = fmt.Errorf("contmode: could not write block: %w", enc.err)
	}
	return enc.err
}

func (enc *Encoder) reserve(n int) {
	if cap(enc.buf) < n {
		enc.buf = make([]byte, n)
	}
	enc.buf = enc.buf[:n]
}

// Reader reads a stream of continuous-mode blocks, as dumped by an
// acquisition. The layout of the stream is taken from its first block.
type Reader struct {
	r   io.Reader
	buf []byte
	lay Layout
	n   uint32 // number of blocks read
}

// NewReader returns a new Reader reading blocks from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, buf: make([]byte, HeaderSize)}
}

// Layout returns the layout of the stream.
// Layout is only valid after the first block has been read.
func (r *Reader) Layout() Layout { return r.lay }

// Next reads the next block into blk.
// Next returns io.EOF at the end of the stream.
// Next checks that blocks keep the layout of the first block and that
// block numbers increment from zero.
func (r *Reader) Next(blk *Block) error {
	hdr := r.buf[:HeaderSize]
	_, err := io.ReadFull(r.r, hdr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("contmode: could not read block header: %w", err)
	}

	var h Header
	h.unmarshal(hdr)
	if r.n == 0 {
		r.lay = Layout{Channels: int(h.Channels), HistoLen: int(h.HistoLen)}
	}

	size := BlockSize(int(h.Channels), int(h.HistoLen))
	if size > MaxBlockSize {
		return fmt.Errorf("%w: block size %d too large", ErrProtocol, size)
	}
	if cap(r.buf) < size {
		buf := make([]byte, size)
		copy(buf, hdr)
		r.buf = buf
	}
	r.buf = r.buf[:size]

	_, err = io.ReadFull(r.r, r.buf[HeaderSize:])
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("contmode: could not read block data: %w", err)
	}

	err = Decode(r.buf, r.lay, blk)
	if err != nil {
		return err
	}

	if got, want := blk.Header.BlockNum, r.n; got != want {
		return fmt.Errorf("%w: unexpected block number (got=%d, want=%d)", ErrProtocol, got, want)
	}
	r.n++

	return nil
}
