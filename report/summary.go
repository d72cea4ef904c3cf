// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package report

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"go.chromium.org/infra/build/hdrcost/depgraph"
	"go.chromium.org/infra/build/hdrcost/scandeps"
)

// Number of entries kept in exported summary.
const (
	TopFiles         = 10
	TopOpportunities = 20
)

// FileWaste is waste of a file.
type FileWaste struct {
	File          string  `json:"file"`
	TotalCost     float64 `json:"total_estimated_cost"`
	WastedCost    float64 `json:"wasted_cost"`
	WastePercent  float64 `json:"potential_savings_pct"`
	Opportunities int     `json:"optimization_opportunities"`
}

// Opportunity is an optimization opportunity in the project.
type Opportunity struct {
	// File is base name of the including file.
	File   string  `json:"file"`
	Path   string  `json:"full_path"`
	Header string  `json:"header"`
	Cost   float64 `json:"cost"`
	Line   int     `json:"line"`
}

// Summary is a summary of the project.
type Summary struct {
	RunID   string    `json:"run_id"`
	Created time.Time `json:"created"`

	Files          int     `json:"total_files"`
	Includes       int     `json:"total_includes"`
	TotalCost      float64 `json:"total_cost"`
	TotalWaste     float64 `json:"total_waste"`
	WastePercent   float64 `json:"waste_percentage"`
	AvgCostPerFile float64 `json:"avg_cost_per_file"`

	// FilesByWaste are files by wasted cost desc.
	FilesByWaste []FileWaste `json:"top_wasteful_files"`

	// Opportunities are all opportunities by cost desc.
	Opportunities []Opportunity `json:"top_opportunities"`

	Parser *scandeps.Statistics `json:"parser,omitempty"`
	Graph  *depgraph.Stats      `json:"graph,omitempty"`
}

// Summarize summarizes file reports.
func Summarize(reports []*FileReport) *Summary {
	s := &Summary{
		RunID:   uuid.NewString(),
		Created: time.Now(),
		Files:   len(reports),
	}
	var total, waste float64
	for _, r := range reports {
		s.Includes += r.Includes
		total += r.TotalCost
		waste += r.WastedCost
		s.FilesByWaste = append(s.FilesByWaste, FileWaste{
			File:          r.File,
			TotalCost:     r.TotalCost,
			WastedCost:    r.WastedCost,
			WastePercent:  r.WastePercent,
			Opportunities: len(r.Opportunities),
		})
		for _, o := range r.Opportunities {
			s.Opportunities = append(s.Opportunities, Opportunity{
				File:   filepath.Base(r.File),
				Path:   r.File,
				Header: o.Header,
				Cost:   o.Cost,
				Line:   o.Line,
			})
		}
	}
	sort.SliceStable(s.FilesByWaste, func(i, j int) bool {
		return s.FilesByWaste[i].WastedCost > s.FilesByWaste[j].WastedCost
	})
	sort.SliceStable(s.Opportunities, func(i, j int) bool {
		return s.Opportunities[i].Cost > s.Opportunities[j].Cost
	})
	s.TotalCost = round1(total)
	s.TotalWaste = round1(waste)
	if total > 0 {
		s.WastePercent = round1(waste / total * 100)
	}
	if s.Files > 0 {
		s.AvgCostPerFile = round1(total / float64(s.Files))
	}
	return s
}

// Top returns a copy of s keeping only top files and opportunities.
// n <= 0 keeps all.
func (s *Summary) Top(files, opportunities int) *Summary {
	t := *s
	if files > 0 && len(t.FilesByWaste) > files {
		t.FilesByWaste = t.FilesByWaste[:files]
	}
	if opportunities > 0 && len(t.Opportunities) > opportunities {
		t.Opportunities = t.Opportunities[:opportunities]
	}
	return &t
}
