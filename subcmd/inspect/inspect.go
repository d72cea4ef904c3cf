// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package inspect is inspect subcommand to show include costs of a file.
package inspect

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/flag/stringlistflag"

	"go.chromium.org/infra/build/hdrcost/config"
	"go.chromium.org/infra/build/hdrcost/cost"
	"go.chromium.org/infra/build/hdrcost/depgraph"
	"go.chromium.org/infra/build/hdrcost/o11y/clog"
	"go.chromium.org/infra/build/hdrcost/osfs"
	"go.chromium.org/infra/build/hdrcost/report"
	"go.chromium.org/infra/build/hdrcost/scandeps"
	"go.chromium.org/infra/build/hdrcost/ui"
)

const usage = `inspect include costs of a file

 $ hdrcost inspect [-C <dir>] [-follow] [-v] <file>

prints estimated cost of each #include in <file>, whether it looks used,
and recommendations to remove unused expensive includes.

By default, only <file> is parsed, so included files are estimated by
their base costs. With -follow, resolved included files are parsed
recursively and their metrics and dependencies are counted.
`

// Cmd returns the Command for the `inspect` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "inspect [-C <dir>] [-follow] [-v] <file>",
		ShortDesc: "inspect include costs of a file",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	dir         string
	includeDirs stringlistflag.Flag
	follow      bool
	verbose     bool
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "C", "", "project root directory. default is the directory of <file>")
	c.Flags.Var(&c.includeDirs, "I", "include search dir or header map (*.hmap) (repeatable)")
	c.Flags.BoolVar(&c.follow, "follow", false, "parse resolved included files recursively")
	c.Flags.BoolVar(&c.verbose, "v", false, "show cost breakdown")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("need one file: %w", flag.ErrHelp)
	}
	res, err := c.inspect(ctx, args[0])
	if err != nil {
		return err
	}
	res.print(c.verbose)
	return nil
}

// result is a result of inspecting a file.
type result struct {
	facts  *scandeps.FileFacts
	report *report.FileReport
	model  *cost.Model
	files  map[string]*scandeps.FileFacts
}

func (c *run) inspect(ctx context.Context, fname string) (*result, error) {
	fname, err := filepath.Abs(fname)
	if err != nil {
		return nil, err
	}
	fname, err = filepath.EvalSymlinks(fname)
	if err != nil {
		return nil, err
	}
	root := c.dir
	if root == "" {
		root = filepath.Dir(fname)
	}
	cfg, err := config.LoadDir(ctx, root, nil)
	if err != nil {
		return nil, err
	}
	includeDirs := cfg.IncludeDirs
	if len(c.includeDirs) > 0 {
		includeDirs = c.includeDirs
	}

	fsys := osfs.New("fs")
	resolver := scandeps.NewResolver(ctx, fsys, root, includeDirs)
	facts, err := scandeps.ReadFacts(ctx, fsys, resolver, fname)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fname, err)
	}
	all := []*scandeps.FileFacts{facts}
	if c.follow {
		all = follow(ctx, fsys, resolver, facts)
	}
	g := depgraph.Build(ctx, all)
	model := cost.New(g, cfg.Table(), nil)
	checker, err := cost.NewUsageChecker(fsys, 16)
	if err != nil {
		return nil, err
	}
	res := &result{
		facts:  facts,
		report: report.NewAnalyzer(model, checker, all).FileReport(ctx, facts),
		model:  model,
		files:  make(map[string]*scandeps.FileFacts),
	}
	for _, f := range all {
		res.files[f.Path] = f
	}
	clog.Infof(ctx, "inspect %s: %d files parsed %s", fname, len(all), fsys.Stats())
	return res, nil
}

// follow parses files transitively included from facts.
// Files that can't be read are skipped.
func follow(ctx context.Context, fsys scandeps.FS, resolver *scandeps.Resolver, facts *scandeps.FileFacts) []*scandeps.FileFacts {
	all := []*scandeps.FileFacts{facts}
	seen := map[string]bool{facts.Path: true}
	for i := 0; i < len(all); i++ {
		for _, inc := range all[i].Inclusions {
			if inc.Path == "" || seen[inc.Path] {
				continue
			}
			seen[inc.Path] = true
			f, err := scandeps.ReadFacts(ctx, fsys, resolver, inc.Path)
			if err != nil {
				clog.Warningf(ctx, "skip %s: %v", inc.Path, err)
				continue
			}
			all = append(all, f)
		}
	}
	return all
}

func (r *result) print(verbose bool) {
	rep := r.report
	ui.Default.PrintLines(
		"\n",
		fmt.Sprintf("%s %s", ui.SGR(ui.Bold, "File:"), filepath.Base(rep.File)),
		fmt.Sprintf("%s %s", ui.SGR(ui.Bold, "Path:"), rep.File),
		ui.SGR(ui.Dim, fmt.Sprintf("Lines: %d | Code: %d | Includes: %d", rep.Metrics.TotalLines, rep.Metrics.CodeLines, rep.Includes)),
	)

	header := []string{"Header", "Cost", "Used?", "Confidence", "Line"}
	if verbose {
		header = append(header, "Base", "Metrics", "Transitive", "Verdict", "Estimate")
	}
	t := ui.NewTable(header...).AlignRight(1, 3, 4, 5, 6, 7, 9)
	for _, row := range rep.Rows {
		used := ui.SGR(ui.Red, "no")
		if row.Used {
			used = ui.SGR(ui.Green, "yes")
		}
		cells := []string{
			row.Header,
			costColor(row.Cost),
			used,
			fmt.Sprintf("%.0f%%", row.UsageConfidence*100),
			strconv.Itoa(row.Line),
		}
		if verbose {
			inc := scandeps.Inclusion{Header: row.Header, Line: row.Line, System: row.System, Path: row.Path}
			b := r.model.Breakdown(inc, r.files[row.Path])
			cells = append(cells,
				fmt.Sprintf("%.1f", b.Base),
				fmt.Sprintf("%.1f", b.Metrics),
				fmt.Sprintf("%.1f", b.Transitive),
				row.Verdict.String(),
				fmt.Sprintf("%.0f%%", row.EstimateConfidence*100))
		}
		t.Append(cells...)
	}
	ui.Default.PrintLines(append([]string{"\n"}, t.Lines()...)...)

	ui.Default.PrintLines(
		"\n",
		ui.SGR(ui.Bold, "Cost Summary"),
		fmt.Sprintf("Total Estimated Cost: %.0f units", rep.TotalCost),
		fmt.Sprintf("Wasted Cost:          %s units", ui.SGR(ui.Red, fmt.Sprintf("%.0f", rep.WastedCost))),
		fmt.Sprintf("Potential Savings:    %s", ui.SGR(ui.Yellow, fmt.Sprintf("%.1f%%", rep.WastePercent))),
	)

	if len(rep.Opportunities) == 0 {
		ui.Default.PrintLines("\n", ui.SGR(ui.Green, "No obvious optimization opportunities found"))
		return
	}
	lines := []string{"\n", ui.SGR(ui.Bold, "Optimization Recommendations:")}
	for i, o := range rep.Opportunities {
		if i >= 5 {
			break
		}
		lines = append(lines, fmt.Sprintf("%d. Remove %s at line %d (saves %s units)", i+1, ui.SGR(ui.Yellow, o.Header), o.Line, ui.SGR(ui.Red, fmt.Sprintf("%.0f", o.Cost))))
	}
	ui.Default.PrintLines(lines...)
}

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
