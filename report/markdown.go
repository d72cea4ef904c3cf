// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package report

import (
	"bufio"
	"fmt"
	"io"
)

// Number of entries listed per priority in markdown.
const (
	markdownOpportunities = 15
	markdownHighPriority  = 5
	markdownMedPriority   = 3
)

// WriteMarkdown writes s as a markdown comment for code review.
func WriteMarkdown(w io.Writer, s *Summary) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "## Include Cost Analysis")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "**Build Impact**: %.0f cost units  \n", s.TotalCost)
	fmt.Fprintf(bw, "**Potential Waste**: %.0f units (%.1f%%)  \n", s.TotalWaste, s.WastePercent)
	fmt.Fprintf(bw, "**Files Analyzed**: %d\n", s.Files)
	fmt.Fprintln(bw)

	ops := s.Top(0, markdownOpportunities).Opportunities
	if len(ops) == 0 {
		fmt.Fprintln(bw, "### No issues found")
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "All includes appear necessary.")
		return bw.Flush()
	}

	var high, medium []Opportunity
	var savings float64
	for _, o := range ops {
		savings += o.Cost
		switch {
		case o.Cost > HighCost:
			high = append(high, o)
		case o.Cost > OpportunityThreshold:
			medium = append(medium, o)
		}
	}
	fmt.Fprintln(bw, "### Issues Found")
	fmt.Fprintln(bw)
	writePriority(bw, "High Priority", high, markdownHighPriority)
	writePriority(bw, "Medium Priority", medium, markdownMedPriority)

	fmt.Fprintln(bw, "### Action Items")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "1. **Remove %d unnecessary includes**\n", len(high)+len(medium))
	fmt.Fprintf(bw, "   - Estimated savings: %.0f cost units\n", savings)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "**Overall potential improvement: -%.1f%% build time**\n", s.WastePercent)
	return bw.Flush()
}

func writePriority(w io.Writer, title string, ops []Opportunity, n int) {
	if len(ops) == 0 {
		return
	}
	fmt.Fprintf(w, "**%s (%d unused includes)**\n", title, len(ops))
	for i, o := range ops {
		if i >= n {
			fmt.Fprintf(w, "- ... and %d more\n", len(ops)-n)
			break
		}
		fmt.Fprintf(w, "- `%s` line %d: `%s` (cost: %.0f)\n", o.File, o.Line, o.Header, o.Cost)
	}
	fmt.Fprintln(w)
}
