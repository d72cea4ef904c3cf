// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package check

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.chromium.org/infra/build/hdrcost/report"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fname := filepath.Join(dir, "report.json.zst")
	err := report.Save(ctx, fname, &report.Document{
		Summary: &report.Summary{
			Files:        2,
			TotalCost:    2802,
			TotalWaste:   1500,
			WastePercent: 53.5,
			Opportunities: []report.Opportunity{
				{File: "a.cpp", Header: "iostream", Cost: 1500, Line: 1},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name     string
		maxWaste string
		want     error
	}{
		{name: "fail", maxWaste: "50", want: errThreshold},
		{name: "pass", maxWaste: "60"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := &run{}
			c.init()
			var buf bytes.Buffer
			c.w = &buf
			md := filepath.Join(dir, tc.name+".md")
			if err := c.Flags.Parse([]string{"-markdown", md, "-max_waste", tc.maxWaste}); err != nil {
				t.Fatal(err)
			}
			err := c.run(ctx, []string{fname})
			if !errors.Is(err, tc.want) {
				t.Errorf("run()=%v; want %v", err, tc.want)
			}
			got, err := os.ReadFile(md)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(got), "`a.cpp` line 1: `iostream` (cost: 1500)") {
				t.Errorf("markdown=%q; want opportunity", got)
			}
			if !strings.Contains(buf.String(), "high_cost_unused") {
				t.Errorf("output=%q; want check results", buf.String())
			}
		})
	}
}

func TestRun_errors(t *testing.T) {
	ctx := context.Background()
	c := &run{}
	c.init()
	c.w = &bytes.Buffer{}
	if err := c.run(ctx, nil); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("run(ctx, nil)=%v; want flag.ErrHelp", err)
	}
	if err := c.run(ctx, []string{filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Errorf("run(missing.json)=nil; want error")
	}
}
