// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert raw TTTR data to/from LCIO.
package xcnv // import "github.com/go-lpc/tttr/internal/xcnv"

const (
	detector = "TTTR"
	rawColl  = "TTTR_RAW" // collection holding the raw records of a FIFO batch
)
