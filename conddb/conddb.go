// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb holds types to describe the configuration database of
// the TTTR acquisition: device settings and run bookkeeping.
package conddb // import "github.com/go-lpc/tttr/conddb"

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

var (
	host = envOr("TTTR_DB_HOST", "localhost")
	usr  = envOr("TTTR_DB_USER", "username")
	pwd  = envOr("TTTR_DB_PASS", "s3cr3t")

	drvName = "mysql"
)

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// DB exposes convenience methods to easily retrieve acquisition settings
// and to record acquisition runs.
type DB struct {
	db   *sqlx.DB
	name string // name of the TTTR database
}

// Open opens a connection to the TTTR database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sqlx.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", usr, pwd, host, db)
}

func ping(db *sqlx.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// LastSettings returns the most recent acquisition settings stored for
// the device with the provided serial number.
func (db *DB) LastSettings(ctx context.Context, serial string) (Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		cfg Settings
		n   int
	)
	rows, err := db.db.QueryxContext(
		ctx,
		`
SELECT identifier, serial, mode, binning, offset, tacq, sync_divider,
	sync_cfd_zero, sync_cfd_level, sync_chan_offset,
	input_cfd_zero, input_cfd_level, input_chan_offset
FROM settings
WHERE serial=?
ORDER BY datetime DESC LIMIT 1
`,
		serial,
	)
	if err != nil {
		return cfg, fmt.Errorf("conddb: could not query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.StructScan(&cfg)
		if err != nil {
			return cfg, fmt.Errorf("conddb: could not scan settings: %w", err)
		}
		n++
	}

	if err := rows.Err(); err != nil {
		return cfg, fmt.Errorf("conddb: could not scan db for settings: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return cfg, fmt.Errorf("conddb: context error while retrieving settings: %w", err)
	}

	if n == 0 {
		return cfg, fmt.Errorf("conddb: no settings for device %q: %w", serial, sql.ErrNoRows)
	}

	return cfg, nil
}

// LastRunNumber returns the largest run number recorded so far.
func (db *DB) LastRunNumber(ctx context.Context) (int32, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var run sql.NullInt32
	rows, err := db.db.QueryContext(ctx, "SELECT MAX(run) FROM runs")
	if err != nil {
		return 0, fmt.Errorf("conddb: could not query last run: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&run)
		if err != nil {
			return 0, fmt.Errorf("conddb: could not get last run value: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("conddb: could not scan db for last run: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("conddb: context error while retrieving last run: %w", err)
	}

	return run.Int32, nil
}

// SaveRun records a completed acquisition run.
func (db *DB) SaveRun(ctx context.Context, run Run) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(
		ctx,
		`
INSERT INTO runs (uuid, run, serial, mode, records, events, start, elapsed, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		run.ID.String(), run.Number, run.Serial, int64(run.Mode),
		int64(run.Records), int64(run.Events),
		run.Start.UTC(), run.Elapsed.Seconds(), run.Status,
	)
	if err != nil {
		return fmt.Errorf("conddb: could not insert run %d: %w", run.Number, err)
	}

	return nil
}
