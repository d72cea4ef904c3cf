// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depgraph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Stats is statistics of the graph.
type Stats struct {
	Nodes     int     `json:"total_nodes"`
	Internals int     `json:"internal_nodes"`
	Externals int     `json:"external_nodes"`
	Edges     int     `json:"total_edges"`
	AvgDegree float64 `json:"avg_degree"`
	Cycles    int     `json:"cycles"`
	MaxDepth  int     `json:"max_depth"`
}

// Stats computes statistics of the graph.
// It enumerates cycles, so it may be slow on dense graph.
func (g *Graph) Stats() Stats {
	st := Stats{
		Nodes: len(g.nodes),
		Edges: g.edges,
	}
	for _, id := range g.order {
		if !g.nodes[id].Internal() {
			continue
		}
		st.Internals++
		st.MaxDepth = max(st.MaxDepth, g.Depth(id))
	}
	st.Externals = st.Nodes - st.Internals
	if st.Nodes > 0 {
		// each edge counts as out-degree and in-degree.
		st.AvgDegree = float64(2*st.Edges) / float64(st.Nodes)
	}
	st.Cycles = len(g.Cycles())
	return st
}

func (st Stats) String() string {
	return fmt.Sprintf("nodes=%d (internal=%d external=%d) edges=%d avg_degree=%.2f cycles=%d max_depth=%d",
		st.Nodes, st.Internals, st.Externals, st.Edges, st.AvgDegree, st.Cycles, st.MaxDepth)
}

// WriteDigraph writes the graph for golang.org/x/tools/cmd/digraph.
// Each line contains a node followed by nodes it includes.
// If roots are given, only nodes reachable from roots are written,
// dependencies first.
func (g *Graph) WriteDigraph(w io.Writer, roots ...string) error {
	bw := bufio.NewWriter(w)
	writeLine := func(id string) {
		bw.WriteString(quote(id))
		for _, s := range g.succs[id] {
			bw.WriteByte(' ')
			bw.WriteString(quote(s))
		}
		bw.WriteByte('\n')
	}
	if len(roots) == 0 {
		for _, id := range g.order {
			writeLine(id)
		}
		return bw.Flush()
	}
	seen := make(map[string]bool)
	var traverse func(id string) error
	traverse = func(id string) error {
		if seen[id] {
			return nil
		}
		seen[id] = true
		if _, ok := g.nodes[id]; !ok {
			return fmt.Errorf("node not found: %q", id)
		}
		for _, s := range g.succs[id] {
			err := traverse(s)
			if err != nil {
				return err
			}
		}
		writeLine(id)
		return nil
	}
	for _, r := range roots {
		err := traverse(r)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteDot writes the graph in Graphviz DOT format.
// If the graph has more than maxNodes nodes, only internal nodes are
// written. maxNodes <= 0 means no limit.
func (g *Graph) WriteDot(w io.Writer, maxNodes int) error {
	internalOnly := maxNodes > 0 && len(g.nodes) > maxNodes
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph includes {")
	for _, id := range g.order {
		n := g.nodes[id]
		if internalOnly && !n.Internal() {
			continue
		}
		attr := ""
		if !n.Internal() {
			attr = " [shape=box, style=dashed]"
		}
		fmt.Fprintf(bw, "  %s%s;\n", strconv.Quote(id), attr)
	}
	for _, id := range g.order {
		if internalOnly && !g.nodes[id].Internal() {
			continue
		}
		for _, s := range g.succs[id] {
			if internalOnly && !g.nodes[s].Internal() {
				continue
			}
			fmt.Fprintf(bw, "  %s -> %s;\n", strconv.Quote(id), strconv.Quote(s))
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// quote quotes id for digraph if it contains spaces.
func quote(id string) string {
	if strings.ContainsAny(id, " \t\"") {
		return strconv.Quote(id)
	}
	return id
}
