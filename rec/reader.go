// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rec

import (
	"encoding/binary"
	"errors"
	"io"
)

// Reader reads raw records from a byte stream.
//
// The underlying stream may deliver its bytes in chunks of any size:
// the bytes of a partial trailing record are kept until the next read.
type Reader struct {
	r    io.Reader
	buf  []byte
	pend int // number of pending bytes at the start of buf
	err  error
}

// NewReader returns a new Reader that reads records from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read reads up to len(dst) records into dst.
// Read returns io.EOF at the end of a stream that ended on a record
// boundary, and io.ErrUnexpectedEOF when the stream ended inside a record.
func (r *Reader) Read(dst []Record) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if len(dst) == 0 {
		return 0, nil
	}

	r.reserve(4 * len(dst))

	n, err := r.r.Read(r.buf[r.pend:])
	n += r.pend

	nrec := n / 4
	for i := 0; i < nrec; i++ {
		dst[i] = Record(binary.LittleEndian.Uint32(r.buf[4*i:]))
	}
	r.pend = copy(r.buf, r.buf[4*nrec:n])

	if err != nil {
		if errors.Is(err, io.EOF) && r.pend != 0 {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
	}
	return nrec, err
}

// ReadAll reads all the remaining records from the stream.
func (r *Reader) ReadAll() ([]Record, error) {
	var (
		out []Record
		buf = make([]Record, 4096)
	)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
	}
}

func (r *Reader) reserve(n int) {
	if cap(r.buf) >= n {
		r.buf = r.buf[:n]
		return
	}
	buf := make([]byte, n)
	copy(buf, r.buf[:r.pend])
	r.buf = buf
}
