// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tttr-sql displays the acquisition settings and the last runs
// stored in the TTTR configuration database.
package main // import "github.com/go-lpc/tttr/cmd/tttr-sql"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/go-lpc/tttr/conddb"
)

func main() {
	log.SetPrefix("tttr-sql: ")
	log.SetFlags(0)

	var (
		dbname = flag.String("db", "tttr", "name of the configuration database")
		serial = flag.String("serial", "", "serial number of the photon counter to inspect")
		nruns  = flag.Int("n", 10, "number of runs to display")
	)

	flag.Parse()

	log.Printf("serial: %q", *serial)

	db, err := conddb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open TTTR db: %+v", err)
	}
	defer db.Close()

	err = doQuery(db, *serial, *nruns)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(db *conddb.DB, serial string, nruns int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := db.LastSettings(ctx, serial)
	if err != nil {
		return fmt.Errorf("could not get last settings of %q: %w", serial, err)
	}
	log.Printf("settings: %#v", cfg)
	log.Printf("acq-time: %v", cfg.AcqTime())

	last, err := db.LastRunNumber(ctx)
	if err != nil {
		return fmt.Errorf("could not get last run number: %w", err)
	}
	log.Printf("last run: %d", last)

	rows, err := db.QueryContext(
		ctx,
		"SELECT run, uuid, mode, records, status FROM runs WHERE serial=? ORDER BY run DESC LIMIT ?",
		serial, nruns,
	)
	if err != nil {
		return fmt.Errorf("could not get runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			run     int32
			id      string
			mode    uint8
			records uint64
			status  string
		)
		err = rows.Scan(&run, &id, &mode, &records, &status)
		if err != nil {
			return fmt.Errorf("could not scan runs: %w", err)
		}
		log.Printf(">>> run=%05d, mode=T%d, records=%12d, status=%-12s session=%s",
			run, mode, records, status, id,
		)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("could not scan db for runs: %w", err)
	}

	return nil
}
