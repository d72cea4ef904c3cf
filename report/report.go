// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package report aggregates estimated include costs into reports.
package report

import (
	"context"
	"math"
	"runtime"
	"sort"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/infra/build/hdrcost/cost"
	"go.chromium.org/infra/build/hdrcost/o11y/clog"
	"go.chromium.org/infra/build/hdrcost/scandeps"
	"go.chromium.org/infra/build/hdrcost/sync/semaphore"
)

// OpportunityThreshold is minimum cost of unused inclusion to be reported
// as an optimization opportunity.
const OpportunityThreshold = 500

// Row is estimated cost of an inclusion.
type Row struct {
	Header             string       `json:"header"`
	Line               int          `json:"line"`
	Cost               float64      `json:"estimated_cost"`
	System             bool         `json:"is_system"`
	Used               bool         `json:"likely_used"`
	Verdict            cost.Verdict `json:"usage_verdict"`
	UsageConfidence    float64      `json:"usage_confidence"`
	EstimateConfidence float64      `json:"estimate_confidence"`
	Path               string       `json:"full_path,omitempty"`
}

// Opportunity reports whether the row is an optimization opportunity.
func (r Row) Opportunity() bool {
	return !r.Used && r.Cost > OpportunityThreshold
}

// Metrics is metrics of a file.
type Metrics struct {
	TotalLines   int  `json:"total_lines"`
	CodeLines    int  `json:"code_lines"`
	HasTemplates bool `json:"has_templates"`
	HasMacros    bool `json:"has_macros"`
}

// FileReport is a cost report of a file.
type FileReport struct {
	File         string  `json:"file"`
	Includes     int     `json:"total_includes"`
	TotalCost    float64 `json:"total_estimated_cost"`
	WastedCost   float64 `json:"wasted_cost"`
	WastePercent float64 `json:"potential_savings_pct"`

	// Opportunities are unused expensive inclusions by cost desc.
	Opportunities []Row `json:"optimization_opportunities"`

	// Rows are all inclusions by cost desc.
	Rows []Row `json:"all_includes"`

	Metrics Metrics `json:"file_metrics"`
}

// TopExpensive returns n most expensive rows.
func (r *FileReport) TopExpensive(n int) []Row {
	if n >= 0 && len(r.Rows) > n {
		return r.Rows[:n]
	}
	return r.Rows
}

// round1 rounds v to 0.1.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 rounds v to 0.01.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Analyzer creates cost reports of files.
type Analyzer struct {
	model *cost.Model
	usage *cost.UsageChecker
	facts map[string]*scandeps.FileFacts
}

// NewAnalyzer creates an analyzer using model and usage checker.
// facts are facts of all analyzed files, used for included files.
func NewAnalyzer(model *cost.Model, usage *cost.UsageChecker, facts []*scandeps.FileFacts) *Analyzer {
	a := &Analyzer{
		model: model,
		usage: usage,
		facts: make(map[string]*scandeps.FileFacts, len(facts)),
	}
	for _, f := range facts {
		a.facts[f.Path] = f
	}
	return a
}

// FileReport creates a cost report of the file of facts.
func (a *Analyzer) FileReport(ctx context.Context, facts *scandeps.FileFacts) *FileReport {
	r := &FileReport{
		File:     facts.Path,
		Includes: len(facts.Inclusions),
		Rows:     make([]Row, 0, len(facts.Inclusions)),
		Metrics: Metrics{
			TotalLines:   facts.TotalLines,
			CodeLines:    facts.CodeLines,
			HasTemplates: facts.HasTemplates,
			HasMacros:    facts.HasMacros,
		},
	}
	for _, inc := range facts.Inclusions {
		var incFacts *scandeps.FileFacts
		if inc.Path != "" {
			incFacts = a.facts[inc.Path]
		}
		usage := a.usage.Check(ctx, facts.Path, inc)
		r.Rows = append(r.Rows, Row{
			Header:             inc.Header,
			Line:               inc.Line,
			Cost:               round1(a.model.Estimate(inc, incFacts)),
			System:             inc.System,
			Used:               usage.Used,
			Verdict:            usage.Verdict,
			UsageConfidence:    round2(usage.Confidence),
			EstimateConfidence: round2(cost.EstimateConfidence(a.model.Table(), inc, incFacts != nil)),
			Path:               inc.Path,
		})
	}
	sort.SliceStable(r.Rows, func(i, j int) bool {
		return r.Rows[i].Cost > r.Rows[j].Cost
	})

	var total, unused float64
	for _, row := range r.Rows {
		total += row.Cost
		if !row.Used {
			unused += row.Cost
		}
		if row.Opportunity() {
			r.Opportunities = append(r.Opportunities, row)
		}
	}
	r.TotalCost = round1(total)
	r.WastedCost = round1(unused)
	if total > 0 {
		r.WastePercent = round1(unused / total * 100)
	}
	if log.V(1) {
		clog.Infof(ctx, "report %s: cost=%.1f waste=%.1f (%.1f%%)", r.File, r.TotalCost, r.WastedCost, r.WastePercent)
	}
	return r
}

// Reports creates cost reports of files of facts in parallel.
// Reports are in the same order as facts. If ctx is canceled, it returns
// reports created so far with ctx's error.
func (a *Analyzer) Reports(ctx context.Context, facts []*scandeps.FileFacts, parallelism int) ([]*FileReport, error) {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	sema := semaphore.New("report", parallelism)
	reports := make([]*FileReport, len(facts))
	eg, gctx := errgroup.WithContext(ctx)
	for i, f := range facts {
		eg.Go(func() error {
			return sema.Do(gctx, func(ctx context.Context) error {
				reports[i] = a.FileReport(ctx, f)
				return nil
			})
		})
	}
	err := eg.Wait()
	done := reports[:0]
	for _, r := range reports {
		if r != nil {
			done = append(done, r)
		}
	}
	return done, err
}
