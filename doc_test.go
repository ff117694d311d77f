// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tttr

import (
	"runtime/debug"
	"testing"
)

func TestVersionOf(t *testing.T) {
	for _, tc := range []struct {
		name string
		bi   *debug.BuildInfo
		vers string
		sum  string
	}{
		{
			name: "nil",
		},
		{
			name: "main",
			bi: &debug.BuildInfo{
				Main: debug.Module{Path: modPath, Version: "v0.2.0", Sum: "h1:main"},
			},
			vers: "v0.2.0",
			sum:  "h1:main",
		},
		{
			name: "dep",
			bi: &debug.BuildInfo{
				Main: debug.Module{Path: "example.org/daq"},
				Deps: []*debug.Module{
					{Path: "go-hep.org/x/hep", Version: "v0.32.1"},
					{Path: modPath, Version: "v0.1.0", Sum: "h1:dep"},
				},
			},
			vers: "v0.1.0",
			sum:  "h1:dep",
		},
		{
			name: "replace-path-version",
			bi: &debug.BuildInfo{
				Deps: []*debug.Module{
					{
						Path: modPath, Version: "v0.1.0",
						Replace: &debug.Module{Path: "example.org/fork", Version: "v0.1.1", Sum: "h1:fork"},
					},
				},
			},
			vers: "example.org/fork v0.1.1",
			sum:  "h1:fork",
		},
		{
			name: "replace-local",
			bi: &debug.BuildInfo{
				Deps: []*debug.Module{
					{
						Path: modPath, Version: "v0.1.0",
						Replace: &debug.Module{},
					},
				},
			},
			vers: "v0.1.0*",
		},
		{
			name: "missing",
			bi: &debug.BuildInfo{
				Deps: []*debug.Module{{Path: "go-hep.org/x/hep", Version: "v0.32.1"}},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			vers, sum := versionOf(tc.bi)
			if got, want := vers, tc.vers; got != want {
				t.Fatalf("invalid version: got=%q, want=%q", got, want)
			}
			if got, want := sum, tc.sum; got != want {
				t.Fatalf("invalid sum: got=%q, want=%q", got, want)
			}
		})
	}
}
