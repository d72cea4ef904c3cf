// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package report

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteMarkdown(t *testing.T) {
	for _, tc := range []struct {
		name    string
		summary *Summary
		want    string
	}{
		{
			name:    "clean",
			summary: &Summary{Files: 3, TotalCost: 1200},
			want: "## Include Cost Analysis\n" +
				"\n" +
				"**Build Impact**: 1200 cost units  \n" +
				"**Potential Waste**: 0 units (0.0%)  \n" +
				"**Files Analyzed**: 3\n" +
				"\n" +
				"### No issues found\n" +
				"\n" +
				"All includes appear necessary.\n",
		},
		{
			name: "issues",
			summary: &Summary{
				Files:        2,
				TotalCost:    2802,
				TotalWaste:   2100,
				WastePercent: 74.9,
				Opportunities: []Opportunity{
					{File: "a.cpp", Header: "iostream", Cost: 1500, Line: 1},
					{File: "a.cpp", Header: "regex", Cost: 600, Line: 3},
				},
			},
			want: "## Include Cost Analysis\n" +
				"\n" +
				"**Build Impact**: 2802 cost units  \n" +
				"**Potential Waste**: 2100 units (74.9%)  \n" +
				"**Files Analyzed**: 2\n" +
				"\n" +
				"### Issues Found\n" +
				"\n" +
				"**Medium Priority (2 unused includes)**\n" +
				"- `a.cpp` line 1: `iostream` (cost: 1500)\n" +
				"- `a.cpp` line 3: `regex` (cost: 600)\n" +
				"\n" +
				"### Action Items\n" +
				"\n" +
				"1. **Remove 2 unnecessary includes**\n" +
				"   - Estimated savings: 2100 cost units\n" +
				"\n" +
				"**Overall potential improvement: -74.9% build time**\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteMarkdown(&buf, tc.summary); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, buf.String()); diff != "" {
				t.Errorf("WriteMarkdown diff -want +got:\n%s", diff)
			}
		})
	}
}

func TestWriteMarkdown_highPriority(t *testing.T) {
	s := &Summary{}
	for i := 0; i < 7; i++ {
		s.Opportunities = append(s.Opportunities, Opportunity{File: "x.cc", Header: "boost/asio.hpp", Cost: 3000, Line: i + 1})
	}
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, s); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"**High Priority (7 unused includes)**\n",
		"- `x.cc` line 5: `boost/asio.hpp` (cost: 3000)\n- ... and 2 more\n",
		"1. **Remove 7 unnecessary includes**\n",
	} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("WriteMarkdown=%q; want to contain %q", buf.String(), want)
		}
	}
}
