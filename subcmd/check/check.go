// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package check is check subcommand to check a saved report against
// quality thresholds, e.g. on CI.
package check

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/hdrcost/report"
)

const usage = `check a report against quality thresholds

 $ hdrcost check [-markdown <file>] <report.json>

loads a report saved by "hdrcost analyze -json", prints a markdown
summary for code review and fails if waste percentage or number of
high cost unused includes exceed thresholds.
`

// errThreshold is returned when the report doesn't pass thresholds.
var errThreshold = errors.New("quality thresholds exceeded")

// Cmd returns the Command for the `check` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "check [-markdown <file>] <report.json>",
		ShortDesc: "check a report against quality thresholds",
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

	markdown   string
	thresholds report.Thresholds
	w          io.Writer
}

func (c *run) init() {
	c.Flags.StringVar(&c.markdown, "markdown", "", "write markdown summary to the file")
	c.Flags.Float64Var(&c.thresholds.MaxWastePercent, "max_waste", report.DefaultThresholds.MaxWastePercent, "max waste percentage")
	c.Flags.IntVar(&c.thresholds.MaxHighCostUnused, "max_high_cost_unused", report.DefaultThresholds.MaxHighCostUnused, "max number of unused includes costing more than 1500")
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
	if len(args) != 1 {
		return fmt.Errorf("need one report file: %w", flag.ErrHelp)
	}
	doc, err := report.Load(ctx, args[0])
	if err != nil {
		return err
	}
	if doc.Summary == nil {
		return fmt.Errorf("no summary in %s", args[0])
	}
	var buf bytes.Buffer
	err = report.WriteMarkdown(&buf, doc.Summary)
	if err != nil {
		return err
	}
	if c.markdown != "" {
		err = os.WriteFile(c.markdown, buf.Bytes(), 0644)
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(c.w, "%s\n", buf.Bytes())

	results, passed := doc.Summary.Check(c.thresholds)
	for _, r := range results {
		fmt.Fprintln(c.w, r)
	}
	if !passed {
		return errThreshold
	}
	return nil
}
