// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"go.chromium.org/infra/build/hdrcost/cost"
	"go.chromium.org/infra/build/hdrcost/depgraph"
	"go.chromium.org/infra/build/hdrcost/osfs"
	"go.chromium.org/infra/build/hdrcost/scandeps"
)

// analyze runs whole analysis on files written under a temp dir,
// and returns canonical root dir and reports.
func analyze(t *testing.T, files map[string]string) (string, []*FileReport) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	fsys := osfs.New("test")
	facts, err := scandeps.ScanProject(ctx, fsys, root, scandeps.Option{})
	if err != nil {
		t.Fatal(err)
	}
	g := depgraph.Build(ctx, facts)
	usage, err := cost.NewUsageChecker(fsys, 16)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAnalyzer(cost.New(g, cost.DefaultTable, nil), usage, facts)
	reports, err := a.Reports(ctx, facts, 2)
	if err != nil {
		t.Fatal(err)
	}
	return root, reports
}

var scenarioFiles = map[string]string{
	"a.cpp": `#include <iostream>
#include "b.h"

int main() {
  B b;
  return b.size();
}
`,
	"b.h": `#pragma once
#include <vector>
struct B { std::vector<int> v; int size() { return v.size(); } };
`,
}

func TestFileReport(t *testing.T) {
	root, reports := analyze(t, scenarioFiles)
	bh := filepath.Join(root, "b.h")
	iostream := Row{
		Header:             "iostream",
		Line:               1,
		Cost:               1500,
		System:             true,
		Verdict:            cost.VerdictUnused,
		EstimateConfidence: 0.8,
	}
	want := []*FileReport{
		{
			File:         filepath.Join(root, "a.cpp"),
			Includes:     2,
			TotalCost:    2002,
			WastedCost:   1500,
			WastePercent: 74.9,
			Rows: []Row{
				iostream,
				{
					Header: "b.h",
					Line:   2,
					// 300 + 4*0.5 + 1*50
					// transitive: 1*50 + 1*100
					Cost:               502,
					Used:               true,
					Verdict:            cost.VerdictUsed,
					UsageConfidence:    0.33,
					EstimateConfidence: 0.7,
					Path:               bh,
				},
			},
			Opportunities: []Row{iostream},
			Metrics: Metrics{
				TotalLines: 8,
				CodeLines:  6,
			},
		},
		{
			File:      bh,
			Includes:  1,
			TotalCost: 800,
			Rows: []Row{
				{
					Header:             "vector",
					Line:               2,
					Cost:               800,
					System:             true,
					Used:               true,
					Verdict:            cost.VerdictUsed,
					UsageConfidence:    1,
					EstimateConfidence: 0.8,
				},
			},
			Metrics: Metrics{
				TotalLines: 4,
				CodeLines:  3,
			},
		},
	}
	if diff := cmp.Diff(want, reports, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("reports diff -want +got:\n%s", diff)
	}
}

func TestFileReport_noInclusions(t *testing.T) {
	_, reports := analyze(t, map[string]string{
		"empty.cc": "int x;\n",
	})
	if len(reports) != 1 {
		t.Fatalf("reports=%d; want 1", len(reports))
	}
	r := reports[0]
	if r.TotalCost != 0 || r.WastePercent != 0 || len(r.Rows) != 0 {
		t.Errorf("report=%+v; want zero cost", r)
	}
}

func TestFileReport_wasteRange(t *testing.T) {
	_, reports := analyze(t, map[string]string{
		"a.cc": "#include <regex>\n#include <map>\n#include \"c.h\"\nint main() {}\n",
		"c.h":  "#include <boost/spirit.hpp>\n",
		"d.cc": "#include <thread>\nvoid f(std::thread& t) { t.join(); }\n",
	})
	for _, r := range reports {
		if r.WastePercent < 0 || r.WastePercent > 100 {
			t.Errorf("%s: WastePercent=%v; want in [0, 100]", r.File, r.WastePercent)
		}
		for i := 1; i < len(r.Rows); i++ {
			if r.Rows[i-1].Cost < r.Rows[i].Cost {
				t.Errorf("%s: rows not sorted by cost: %v", r.File, r.Rows)
			}
		}
		for _, o := range r.Opportunities {
			if o.Used || o.Cost <= OpportunityThreshold {
				t.Errorf("%s: not opportunity %+v", r.File, o)
			}
		}
	}
}

func TestSummarize(t *testing.T) {
	root, reports := analyze(t, scenarioFiles)
	s := Summarize(reports)
	want := &Summary{
		Files:          2,
		Includes:       3,
		TotalCost:      2802,
		TotalWaste:     1500,
		WastePercent:   53.5,
		AvgCostPerFile: 1401,
		FilesByWaste: []FileWaste{
			{
				File:          filepath.Join(root, "a.cpp"),
				TotalCost:     2002,
				WastedCost:    1500,
				WastePercent:  74.9,
				Opportunities: 1,
			},
			{
				File:      filepath.Join(root, "b.h"),
				TotalCost: 800,
			},
		},
		Opportunities: []Opportunity{
			{
				File:   "a.cpp",
				Path:   filepath.Join(root, "a.cpp"),
				Header: "iostream",
				Cost:   1500,
				Line:   1,
			},
		},
	}
	if diff := cmp.Diff(want, s, cmpopts.IgnoreFields(Summary{}, "RunID", "Created"), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Summarize diff -want +got:\n%s", diff)
	}
	if s.RunID == "" {
		t.Errorf("RunID is empty")
	}
	if Summarize(nil).WastePercent != 0 {
		t.Errorf("Summarize(nil).WastePercent != 0")
	}
}

func TestSummaryTop(t *testing.T) {
	s := &Summary{}
	for i := 0; i < 30; i++ {
		s.FilesByWaste = append(s.FilesByWaste, FileWaste{WastedCost: float64(30 - i)})
		s.Opportunities = append(s.Opportunities, Opportunity{Cost: float64(1000 - i)})
	}
	top := s.Top(TopFiles, TopOpportunities)
	if len(top.FilesByWaste) != 10 || len(top.Opportunities) != 20 {
		t.Errorf("Top: files=%d opportunities=%d; want 10, 20", len(top.FilesByWaste), len(top.Opportunities))
	}
	if len(s.FilesByWaste) != 30 || len(s.Opportunities) != 30 {
		t.Errorf("Top modified original summary")
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	_, reports := analyze(t, scenarioFiles)
	doc := &Document{
		Summary: Summarize(reports),
		Files:   reports,
	}
	dir := t.TempDir()
	for _, name := range []string{"report.json", "report.json.zst"} {
		t.Run(name, func(t *testing.T) {
			fname := filepath.Join(dir, name)
			if err := Save(ctx, fname, doc); err != nil {
				t.Fatalf("Save(ctx, %q)=%v; want nil", fname, err)
			}
			buf, err := os.ReadFile(fname)
			if err != nil {
				t.Fatal(err)
			}
			zstdMagic := []byte{0x28, 0xb5, 0x2f, 0xfd}
			if got, want := bytes.HasPrefix(buf, zstdMagic), filepath.Ext(name) == ".zst"; got != want {
				t.Errorf("zstd compressed=%t; want %t", got, want)
			}
			got, err := Load(ctx, fname)
			if err != nil {
				t.Fatalf("Load(ctx, %q)=%v; want nil", fname, err)
			}
			if diff := cmp.Diff(doc, got, cmpopts.EquateApproxTime(0)); diff != "" {
				t.Errorf("Load diff -want +got:\n%s", diff)
			}
		})
	}
}
