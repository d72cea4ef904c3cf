// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package analyze is analyze subcommand to estimate include costs of
// a C/C++ project.
package analyze

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	log "github.com/golang/glog"
	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/flag/stringlistflag"
	"go.chromium.org/luci/common/flag/stringmapflag"

	"go.chromium.org/infra/build/hdrcost/config"
	"go.chromium.org/infra/build/hdrcost/cost"
	"go.chromium.org/infra/build/hdrcost/depgraph"
	"go.chromium.org/infra/build/hdrcost/o11y/clog"
	"go.chromium.org/infra/build/hdrcost/osfs"
	"go.chromium.org/infra/build/hdrcost/report"
	"go.chromium.org/infra/build/hdrcost/scandeps"
	"go.chromium.org/infra/build/hdrcost/ui"
)

const usage = `analyze include costs of a project

 $ hdrcost analyze -C <dir> [-json <file>] [-dot <file>]

scans C/C++ files under <dir>, builds the include graph and estimates
compile cost of each #include without running a compiler.
Includes that look unused and cost more than 500 units are reported as
optimization opportunities.

If <dir>/.hdrcost.star exists, it is loaded as project config.
Flags override the config.
`

// errNoFiles is returned when no source file is found.
var errNoFiles = errors.New("no C/C++ files found")

// errThreshold is returned when -check fails.
var errThreshold = errors.New("quality thresholds exceeded")

// Cmd returns the Command for the `analyze` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "analyze [-C <dir>] [-json <file>] [-dot <file>]",
		ShortDesc: "analyze include costs of a project",
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
	jsonOutput  string
	dotOutput   string
	dotMaxNodes int
	maxFiles    int
	extensions  stringlistflag.Flag
	excludeDirs stringlistflag.Flag
	includeDirs stringlistflag.Flag
	configFlags stringmapflag.Value
	parallelism int
	cacheSize   int
	top         int

	check      bool
	thresholds report.Thresholds
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "project root directory")
	c.Flags.StringVar(&c.jsonOutput, "json", "", "export report as JSON to the file. compressed by zstd if it ends with .zst")
	c.Flags.StringVar(&c.dotOutput, "dot", "", "export include graph in DOT format to the file")
	c.Flags.IntVar(&c.dotMaxNodes, "dot_max_nodes", 100, "export only project files in DOT if graph has more nodes than this")
	c.Flags.IntVar(&c.maxFiles, "max_files", 0, "max number of files to analyze. 0 means no limit")
	c.Flags.Var(&c.extensions, "ext", "file extension to analyze (repeatable). default: .cpp .cc .cxx .c .h .hpp .hxx .hh")
	c.Flags.Var(&c.excludeDirs, "exclude", "directory name to skip (repeatable). default: build, .git, node_modules etc")
	c.Flags.Var(&c.includeDirs, "I", "include search dir or header map (*.hmap) (repeatable)")
	c.Flags.Var(&c.configFlags, "config", "key=value passed to .hdrcost.star as ctx.flags (repeatable)")
	c.Flags.IntVar(&c.parallelism, "j", runtime.NumCPU(), "number of files processed in parallel")
	c.Flags.IntVar(&c.cacheSize, "source_cache", 1024, "number of source texts kept for usage checks")
	c.Flags.IntVar(&c.top, "top", 15, "number of entries shown in ranking tables")

	c.Flags.BoolVar(&c.check, "check", false, "fail if the project exceeds quality thresholds")
	c.Flags.Float64Var(&c.thresholds.MaxWastePercent, "max_waste", report.DefaultThresholds.MaxWastePercent, "max waste percentage for -check")
	c.Flags.IntVar(&c.thresholds.MaxHighCostUnused, "max_high_cost_unused", report.DefaultThresholds.MaxHighCostUnused, "max number of unused includes costing more than 1500 for -check")
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
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments %q: %w", args, flag.ErrHelp)
	}
	root, err := filepath.Abs(c.dir)
	if err != nil {
		return err
	}
	cfg, err := config.LoadDir(ctx, root, c.configFlags)
	if err != nil {
		return err
	}
	opt := c.scanOption(cfg)

	fsys := osfs.New("fs")
	started := time.Now()
	res, err := Analyze(ctx, fsys, root, opt, cfg.Table(), c.parallelism, c.cacheSize)
	if err != nil {
		return err
	}
	clog.Infof(ctx, "analyzed %d files in %s: %s", len(res.Facts), time.Since(started), fsys.Stats())

	printParserStats(res.Summary.Parser)
	printGraphStats(res.Graph, res.Summary.Graph)
	printSummary(res.Summary)
	printOpportunities(res.Summary, c.top)
	printWastefulFiles(res.Summary, c.top)

	if c.jsonOutput != "" {
		err = report.Save(ctx, c.jsonOutput, &report.Document{
			Summary: res.Summary,
			Files:   res.Reports,
		})
		if err != nil {
			return err
		}
		ui.Default.PrintLines(fmt.Sprintf("report saved to %s", ui.SGR(ui.Bold, c.jsonOutput)))
	}
	if c.dotOutput != "" {
		var buf bytes.Buffer
		err = res.Graph.WriteDot(&buf, c.dotMaxNodes)
		if err != nil {
			return err
		}
		err = fsys.WriteFile(ctx, c.dotOutput, buf.Bytes(), 0644)
		if err != nil {
			return fmt.Errorf("failed to write DOT: %w", err)
		}
		ui.Default.PrintLines(fmt.Sprintf("graph saved to %s", ui.SGR(ui.Bold, c.dotOutput)))
	}
	if c.check {
		results, passed := res.Summary.Check(c.thresholds)
		printCheck(results)
		if !passed {
			return errThreshold
		}
	}
	return nil
}

// scanOption merges flags into the project config.
func (c *run) scanOption(cfg *config.Config) scandeps.Option {
	opt := scandeps.Option{
		Extensions:  cfg.Extensions,
		ExcludeDirs: cfg.ExcludeDirs,
		IncludeDirs: cfg.IncludeDirs,
		MaxFiles:    cfg.MaxFiles,
		Parallelism: c.parallelism,
	}
	if len(c.extensions) > 0 {
		opt.Extensions = c.extensions
	}
	if len(c.excludeDirs) > 0 {
		opt.ExcludeDirs = c.excludeDirs
	}
	if len(c.includeDirs) > 0 {
		opt.IncludeDirs = c.includeDirs
	}
	if c.maxFiles > 0 {
		opt.MaxFiles = c.maxFiles
	}
	if log.V(1) {
		log.Infof("scan option: %+v", opt)
	}
	return opt
}

// Result is a result of Analyze.
type Result struct {
	Facts   []*scandeps.FileFacts
	Graph   *depgraph.Graph
	Reports []*report.FileReport
	Summary *report.Summary
}

// Analyze runs whole analysis of the project in root.
func Analyze(ctx context.Context, fsys *osfs.OSFS, root string, opt scandeps.Option, table cost.Table, parallelism, cacheSize int) (*Result, error) {
	res := &Result{}

	spin := ui.Default.NewSpinner()
	spin.Start("parsing C/C++ files in %s", root)
	facts, err := scandeps.ScanProject(ctx, fsys, root, opt)
	if err != nil {
		spin.Stop(err)
		return nil, err
	}
	if len(facts) == 0 {
		spin.Stop(errNoFiles)
		return nil, fmt.Errorf("%w in %s", errNoFiles, root)
	}
	spin.Done("found %d files", len(facts))
	res.Facts = facts

	spin = ui.Default.NewSpinner()
	spin.Start("building dependency graph")
	res.Graph = depgraph.Build(ctx, facts)
	spin.Done("%d nodes, %d edges", res.Graph.NumNodes(), res.Graph.NumEdges())

	spin = ui.Default.NewSpinner()
	spin.Start("estimating build costs for %d files", len(facts))
	cache := cost.NewCache()
	model := cost.New(res.Graph, table, cache)
	usage, err := cost.NewUsageChecker(fsys, cacheSize)
	if err != nil {
		spin.Stop(err)
		return nil, err
	}
	analyzer := report.NewAnalyzer(model, usage, facts)
	res.Reports, err = analyzer.Reports(ctx, facts, parallelism)
	if err != nil {
		spin.Stop(err)
		return nil, err
	}
	hits, misses := cache.Stats()
	spin.Done("cost cache hit=%d miss=%d", hits, misses)

	res.Summary = report.Summarize(res.Reports)
	pstats := scandeps.Stats(facts)
	res.Summary.Parser = &pstats
	gstats := res.Graph.Stats()
	res.Summary.Graph = &gstats
	clog.Infof(ctx, "run %s: %s; %s", res.Summary.RunID, pstats, gstats)
	return res, nil
}
