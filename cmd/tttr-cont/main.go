// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// tttr-cont checks and summarizes continuous-mode block files.
//
// Usage: tttr-cont FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> tttr-cont ./testdata/cont_042.000.raw
//	 #   start/ns duration/ns   sum[ch1]   sum[ch2]   ...
//	 0          0   20000000        264        272
//	 1   20000000   20000000        270        266
//	[...]
package main // import "github.com/go-lpc/tttr/cmd/tttr-cont"

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/tttr/contmode"
)

var (
	msg = log.New(os.Stderr, "tttr-cont: ", 0)
)

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	fset := flag.NewFlagSet("tttr-cont", flag.ExitOnError)
	fset.Usage = func() {
		fmt.Printf(`tttr-cont checks and summarizes continuous-mode block files.

Usage: tttr-cont FILE1 [FILE2 [FILE3 ...]]
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		msg.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		msg.Fatalf("missing path to input continuous-mode file")
	}

	for _, fname := range fset.Args() {
		err := process(w, fname)
		if err != nil {
			msg.Fatalf("could not process file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	err = contmode.WriteTableHeader(wbuf)
	if err != nil {
		return fmt.Errorf("could not write table header: %w", err)
	}

	var (
		r   = contmode.NewReader(bufio.NewReader(f))
		blk contmode.Block
	)
loop:
	for {
		err := r.Next(&blk)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return fmt.Errorf("could not read block: %w", err)
		}

		err = blk.Validate()
		if err != nil {
			return fmt.Errorf("invalid block %d: %w", blk.Header.BlockNum, err)
		}

		err = contmode.WriteTableRow(wbuf, &blk)
		if err != nil {
			return fmt.Errorf("could not write block %d: %w", blk.Header.BlockNum, err)
		}
	}

	return wbuf.Flush()
}
