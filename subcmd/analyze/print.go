// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package analyze

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.chromium.org/infra/build/hdrcost/depgraph"
	"go.chromium.org/infra/build/hdrcost/report"
	"go.chromium.org/infra/build/hdrcost/scandeps"
	"go.chromium.org/infra/build/hdrcost/ui"
)

func section(title string) {
	ui.Default.PrintLines("\n", ui.SGR(ui.Bold, title))
}

func printParserStats(st *scandeps.Statistics) {
	if st == nil {
		return
	}
	section("Parse Statistics")
	t := ui.NewTable().AlignRight(1)
	t.Append("Total Files", strconv.Itoa(st.Files))
	t.Append("Total Includes", strconv.Itoa(st.Includes))
	t.Append("System Includes", strconv.Itoa(st.SystemIncludes))
	t.Append("User Includes", strconv.Itoa(st.UserIncludes))
	t.Append("Total Lines of Code", strconv.Itoa(st.CodeLines))
	t.Append("Avg Includes/File", fmt.Sprintf("%.1f", st.AvgIncludes))
	t.Append("Files with Templates", strconv.Itoa(st.FilesWithTemplate))
	t.Append("Files with Macros", strconv.Itoa(st.FilesWithMacros))
	ui.Default.PrintLines(t.Lines()...)
}

func printGraphStats(g *depgraph.Graph, st *depgraph.Stats) {
	if st == nil {
		return
	}
	section("Dependency Graph")
	cycles := ui.SGR(ui.Green, "0")
	if st.Cycles > 0 {
		cycles = ui.SGR(ui.Red, strconv.Itoa(st.Cycles))
	}
	t := ui.NewTable().AlignRight(1)
	t.Append("Total Nodes", strconv.Itoa(st.Nodes))
	t.Append("Internal Nodes", strconv.Itoa(st.Internals))
	t.Append("External Nodes", strconv.Itoa(st.Externals))
	t.Append("Total Edges", strconv.Itoa(st.Edges))
	t.Append("Avg Dependencies/File", fmt.Sprintf("%.1f", st.AvgDegree))
	t.Append("Max Dependency Depth", strconv.Itoa(st.MaxDepth))
	t.Append("Circular Dependencies", cycles)
	ui.Default.PrintLines(t.Lines()...)

	top := g.MostIncluded(5)
	if len(top) == 0 {
		return
	}
	section("Most Included Headers")
	var lines []string
	for _, c := range top {
		name := c.ID
		if !strings.HasPrefix(name, "<") {
			name = filepath.Base(name)
		}
		lines = append(lines, fmt.Sprintf("  %s: %s times", name, ui.SGR(ui.Green, strconv.Itoa(c.Count))))
	}
	ui.Default.PrintLines(lines...)
}

func printSummary(s *report.Summary) {
	section("Project Cost Summary")
	ui.Default.PrintLines(
		fmt.Sprintf("Total Cost:        %.0f units", s.TotalCost),
		fmt.Sprintf("Wasted Cost:       %s units (%s)", ui.SGR(ui.Red, fmt.Sprintf("%.0f", s.TotalWaste)), ui.SGR(ui.Red, fmt.Sprintf("%.1f%%", s.WastePercent))),
		fmt.Sprintf("Potential Savings: %s of build time", ui.SGR(ui.Green, fmt.Sprintf("%.1f%%", s.WastePercent))),
		ui.SGR(ui.Dim, fmt.Sprintf("Average cost per file: %.1f units", s.AvgCostPerFile)),
	)
}

// costColor colors cost by its magnitude.
func costColor(c float64) string {
	s := fmt.Sprintf("%.0f", c)
	switch {
	case c > 2000:
		return ui.SGR(ui.Red, s)
	case c > 1000:
		return ui.SGR(ui.Yellow, s)
	case c > report.OpportunityThreshold:
		return ui.SGR(ui.Bold, s)
	default:
		return ui.SGR(ui.Green, s)
	}
}

func printOpportunities(s *report.Summary, n int) {
	if len(s.Opportunities) == 0 {
		return
	}
	section("Top Optimization Opportunities")
	t := ui.NewTable("File", "Unused Header", "Est. Cost", "Line").AlignRight(2, 3)
	for _, o := range s.Top(0, n).Opportunities {
		t.Append(o.File, o.Header, costColor(o.Cost), strconv.Itoa(o.Line))
	}
	ui.Default.PrintLines(t.Lines()...)
}

func printWastefulFiles(s *report.Summary, n int) {
	if len(s.FilesByWaste) == 0 {
		return
	}
	section("Most Wasteful Files")
	t := ui.NewTable("Rank", "File", "Total Cost", "Wasted", "Waste %").AlignRight(0, 2, 3, 4)
	for i, f := range s.Top(n, 0).FilesByWaste {
		pct := fmt.Sprintf("%.1f%%", f.WastePercent)
		switch {
		case f.WastePercent > 50:
			pct = ui.SGR(ui.Red, pct)
		case f.WastePercent > 25:
			pct = ui.SGR(ui.Yellow, pct)
		default:
			pct = ui.SGR(ui.Green, pct)
		}
		t.Append(strconv.Itoa(i+1), filepath.Base(f.File), fmt.Sprintf("%.0f", f.TotalCost), fmt.Sprintf("%.0f", f.WastedCost), pct)
	}
	ui.Default.PrintLines(t.Lines()...)
}

func printCheck(results []report.CheckResult) {
	section("Threshold Check")
	var lines []string
	for _, r := range results {
		if r.Passed {
			lines = append(lines, ui.SGR(ui.Green, r.String()))
			continue
		}
		lines = append(lines, ui.SGR(ui.Red, r.String()))
	}
	ui.Default.PrintLines(lines...)
}
