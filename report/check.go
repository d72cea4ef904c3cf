// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package report

import (
	"fmt"
)

// HighCost is the cost above which an unused include counts as a
// high cost unused include in threshold checks.
const HighCost = 1500

// Thresholds are quality gates of a project summary.
type Thresholds struct {
	// MaxWastePercent fails the check if waste percentage exceeds it.
	MaxWastePercent float64

	// MaxHighCostUnused fails the check if more than this number of
	// top opportunities cost more than HighCost.
	MaxHighCostUnused int
}

// DefaultThresholds are thresholds used for CI checks.
var DefaultThresholds = Thresholds{
	MaxWastePercent:   50,
	MaxHighCostUnused: 5,
}

// CheckResult is a result of a threshold check.
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
}

func (r CheckResult) String() string {
	status := "PASS"
	if !r.Passed {
		status = "FAIL"
	}
	return fmt.Sprintf("%s: %s: %s", status, r.Name, r.Message)
}

// Check checks s against th. Only top opportunities, as exported,
// are considered for the high cost check.
func (s *Summary) Check(th Thresholds) (results []CheckResult, passed bool) {
	passed = true
	waste := CheckResult{
		Name:   "waste",
		Passed: s.WastePercent <= th.MaxWastePercent,
	}
	if waste.Passed {
		waste.Message = fmt.Sprintf("waste %.1f%% (threshold: %.1f%%)", s.WastePercent, th.MaxWastePercent)
	} else {
		waste.Message = fmt.Sprintf("waste %.1f%% exceeds threshold %.1f%%", s.WastePercent, th.MaxWastePercent)
		passed = false
	}
	results = append(results, waste)

	highCost := 0
	for _, o := range s.Top(0, TopOpportunities).Opportunities {
		if o.Cost > HighCost {
			highCost++
		}
	}
	unused := CheckResult{
		Name:   "high_cost_unused",
		Passed: highCost <= th.MaxHighCostUnused,
	}
	if unused.Passed {
		unused.Message = fmt.Sprintf("%d high cost unused headers (threshold: %d)", highCost, th.MaxHighCostUnused)
	} else {
		unused.Message = fmt.Sprintf("%d high cost unused headers exceeds threshold %d", highCost, th.MaxHighCostUnused)
		passed = false
	}
	results = append(results, unused)
	return results, passed
}
