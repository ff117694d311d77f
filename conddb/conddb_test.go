// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-lpc/tttr/internal/fakedb"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func init() {
	drvName = "fakedb"
}

func TestOpen(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()
}

func TestLastSettings(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	want := DefaultSettings()
	want.ID = 42
	want.Serial = "1020304"
	want.Binning = 3
	want.Offset = 20

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{
			"identifier", "serial", "mode", "binning", "offset", "tacq",
			"sync_divider", "sync_cfd_zero", "sync_cfd_level", "sync_chan_offset",
			"input_cfd_zero", "input_cfd_level", "input_chan_offset",
		},
		Values: [][]driver.Value{
			{
				want.ID, want.Serial, int64(want.Mode),
				int64(want.Binning), int64(want.Offset), int64(want.Tacq),
				int64(want.SyncDivider), int64(want.SyncCFDZeroCross),
				int64(want.SyncCFDLevel), int64(want.SyncChannelOffset),
				int64(want.InputCFDZeroCross), int64(want.InputCFDLevel),
				int64(want.InputChannelOffset),
			},
		},
	}, func(ctx context.Context) error {
		got, err := db.LastSettings(ctx, want.Serial)
		if err != nil {
			t.Fatalf("could not retrieve settings: %+v", err)
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("invalid settings: (-want +got)\n%s", diff)
		}

		if got, want := got.AcqTime(), time.Second; got != want {
			t.Fatalf("invalid acquisition time: got=%v, want=%v", got, want)
		}
		return nil
	})
}

func TestLastSettingsNoRows(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"identifier"},
	}, func(ctx context.Context) error {
		_, err := db.LastSettings(ctx, "0000")
		switch {
		case err == nil:
			t.Fatalf("expected an error")
		case !errors.Is(err, sql.ErrNoRows):
			t.Fatalf("invalid error: got=%+v, want=%+v", err, sql.ErrNoRows)
		}
		return nil
	})
}

func TestLastRunNumber(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	for _, tc := range []struct {
		name string
		v    driver.Value
		want int32
	}{
		{"run", int64(1234), 1234},
		{"empty", nil, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_ = fakedb.Run(context.Background(), fakedb.Rows{
				Names:  []string{"run"},
				Values: [][]driver.Value{{tc.v}},
			}, func(ctx context.Context) error {
				got, err := db.LastRunNumber(ctx)
				if err != nil {
					t.Fatalf("could not retrieve last run: %+v", err)
				}
				if got != tc.want {
					t.Fatalf("invalid last run: got=%d, want=%d", got, tc.want)
				}
				return nil
			})
		})
	}
}

func TestSaveRun(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	var (
		id    = uuid.MustParse("2b8e0bd3-5ac1-4dbd-9e6b-d1a4e0c8a0f1")
		start = time.Date(2020, 11, 3, 12, 0, 0, 0, time.UTC)
	)

	run := Run{
		ID:      id,
		Number:  42,
		Serial:  "1020304",
		Mode:    3,
		Records: 1000,
		Events:  990,
		Start:   start,
		Elapsed: 1500 * time.Millisecond,
		Status:  "ok",
	}

	_ = fakedb.Run(context.Background(), fakedb.Rows{}, func(ctx context.Context) error {
		err := db.SaveRun(ctx, run)
		if err != nil {
			t.Fatalf("could not save run: %+v", err)
		}

		execs := fakedb.Execs()
		if got, want := len(execs), 1; got != want {
			t.Fatalf("invalid number of statements: got=%d, want=%d", got, want)
		}

		if !strings.Contains(execs[0].Query, "INSERT INTO runs") {
			t.Fatalf("invalid statement: %q", execs[0].Query)
		}

		want := []driver.Value{
			id.String(), int64(42), "1020304", int64(3),
			int64(1000), int64(990), start, 1.5, "ok",
		}
		if diff := cmp.Diff(want, execs[0].Args); diff != "" {
			t.Fatalf("invalid arguments: (-want +got)\n%s", diff)
		}
		return nil
	})
}

func TestQueryContext(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	const query = "SELECT serial FROM devices ORDER BY datetime DESC LIMIT 1"

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names:  []string{"serial"},
		Values: [][]driver.Value{{"1020304"}},
	}, func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			t.Fatalf("could not execute query %q: %+v", query, err)
		}
		defer rows.Close()

		var serial string
		for rows.Next() {
			err = rows.Scan(&serial)
			if err != nil {
				t.Fatalf("could not scan serial: %+v", err)
			}
		}

		if err := rows.Err(); err != nil {
			t.Fatalf("could not scan serial: %+v", err)
		}

		if got, want := serial, "1020304"; got != want {
			t.Fatalf("invalid serial: got=%q, want=%q", got, want)
		}
		return nil
	})
}
