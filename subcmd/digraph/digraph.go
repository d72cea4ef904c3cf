// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package digraph is digraph subcommand to show include graph of a project
// for https://pkg.go.dev/golang.org/x/tools/cmd/digraph
package digraph

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/flag/stringlistflag"

	"go.chromium.org/infra/build/hdrcost/config"
	"go.chromium.org/infra/build/hdrcost/depgraph"
	"go.chromium.org/infra/build/hdrcost/osfs"
	"go.chromium.org/infra/build/hdrcost/scandeps"
)

const usage = `show include digraph

 $ hdrcost digraph -C <dir> [<files>...]

prints directed include graph of C/C++ files in <dir>.
If <files> are given, it prints only the graph reachable from them.
<files> are relative to <dir>, or <name> for system headers.
Each line contains one or more nodes, and the first node includes
the rest of the nodes on the same line.

This output can be passed to digraph command, installed by
 $ go install golang.org/x/tools/cmd/digraph@latest

See https://pkg.go.dev/golang.org/x/tools/cmd/digraph
for digraph command.

With -cycles, it prints circular includes, one cycle per line.
With -rank, it prints the most included headers and files with most
transitive dependencies.
`

// Cmd returns the Command for the `digraph` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "digraph [-C <dir>] [-cycles|-rank] [<files>...]",
		ShortDesc: "show include digraph",
		LongDesc:  usage,
		Advanced:  true,
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
	cycles      bool
	rank        int
	w           io.Writer
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "project root directory")
	c.Flags.Var(&c.includeDirs, "I", "include search dir or header map (*.hmap) (repeatable)")
	c.Flags.BoolVar(&c.cycles, "cycles", false, "print circular includes")
	c.Flags.IntVar(&c.rank, "rank", 0, "print top N most included headers and heaviest files")
	c.w = os.Stdout
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
	if c.cycles && c.rank > 0 {
		return fmt.Errorf("-cycles and -rank are exclusive: %w", flag.ErrHelp)
	}
	root, err := filepath.Abs(c.dir)
	if err != nil {
		return err
	}
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return err
	}
	cfg, err := config.LoadDir(ctx, root, nil)
	if err != nil {
		return err
	}
	opt := scandeps.Option{
		Extensions:  cfg.Extensions,
		ExcludeDirs: cfg.ExcludeDirs,
		IncludeDirs: cfg.IncludeDirs,
		MaxFiles:    cfg.MaxFiles,
	}
	if len(c.includeDirs) > 0 {
		opt.IncludeDirs = c.includeDirs
	}
	facts, err := scandeps.ScanProject(ctx, osfs.New("fs"), root, opt)
	if err != nil {
		return err
	}
	g := depgraph.Build(ctx, facts)
	switch {
	case c.cycles:
		for _, cycle := range g.Cycles() {
			fmt.Fprintln(c.w, strings.Join(cycle, " "))
		}
		return nil
	case c.rank > 0:
		fmt.Fprintln(c.w, "most included:")
		for _, r := range g.MostIncluded(c.rank) {
			fmt.Fprintf(c.w, " %6d %s\n", r.Count, r.ID)
		}
		fmt.Fprintln(c.w, "heaviest:")
		for _, r := range g.Heaviest(c.rank) {
			fmt.Fprintf(c.w, " %6d %s\n", r.Count, r.ID)
		}
		return nil
	}
	var roots []string
	for _, arg := range args {
		roots = append(roots, nodeID(root, arg))
	}
	return g.WriteDigraph(c.w, roots...)
}

// nodeID converts a command line arg to a node id.
func nodeID(root, arg string) string {
	if strings.HasPrefix(arg, "<") && strings.HasSuffix(arg, ">") {
		return arg
	}
	if !filepath.IsAbs(arg) {
		arg = filepath.Join(root, arg)
	}
	if p, err := filepath.EvalSymlinks(arg); err == nil {
		return p
	}
	return filepath.Clean(arg)
}
