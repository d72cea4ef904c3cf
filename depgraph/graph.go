// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package depgraph provides include dependency graph of C/C++ sources.
package depgraph

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"go.chromium.org/infra/build/hdrcost/o11y/clog"
	"go.chromium.org/infra/build/hdrcost/scandeps"
)

// Node is a node of the dependency graph.
type Node struct {
	// ID is the node identifier. See scandeps.Inclusion.NodeID.
	ID string

	// Facts is facts of the file for internal node.
	// nil for external node.
	Facts *scandeps.FileFacts

	// System is true for external node first included with <...>.
	System bool
}

// Internal reports whether the node is an analyzed file.
func (n *Node) Internal() bool {
	return n.Facts != nil
}

// Graph is a directed graph from including file to included target.
// It is immutable after Build, and safe for concurrent queries.
type Graph struct {
	nodes map[string]*Node
	// order is node ids in discovery order.
	order []string
	succs map[string][]string
	preds map[string][]string
	edges int

	// transitive memoizes Transitive per node.
	transitive sync.Map // id -> []string
	tgroup     singleflight.Group
}

// Build builds a graph from facts.
// All facts are registered as internal nodes first, sorted by path, then
// an edge is added per inclusion, creating external nodes as needed.
// Duplicate edges are collapsed. The result doesn't depend on order of
// facts.
func Build(ctx context.Context, facts []*scandeps.FileFacts) *Graph {
	started := time.Now()
	sorted := make([]*scandeps.FileFacts, len(facts))
	copy(sorted, facts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	g := &Graph{
		nodes: make(map[string]*Node),
		succs: make(map[string][]string),
		preds: make(map[string][]string),
	}
	internals := sorted[:0]
	for _, f := range sorted {
		if _, ok := g.nodes[f.Path]; ok {
			clog.Warningf(ctx, "duplicate facts for %s", f.Path)
			continue
		}
		g.addNode(&Node{ID: f.Path, Facts: f})
		internals = append(internals, f)
	}
	seen := make(map[[2]string]bool)
	for _, f := range internals {
		for _, inc := range f.Inclusions {
			target := inc.NodeID()
			if _, ok := g.nodes[target]; !ok {
				g.addNode(&Node{ID: target, System: inc.System})
			}
			e := [2]string{f.Path, target}
			if seen[e] {
				continue
			}
			seen[e] = true
			g.succs[f.Path] = append(g.succs[f.Path], target)
			g.preds[target] = append(g.preds[target], f.Path)
			g.edges++
		}
	}
	clog.Infof(ctx, "graph built: %d nodes, %d edges in %s", len(g.nodes), g.edges, time.Since(started))
	return g
}

func (g *Graph) addNode(n *Node) {
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
}

// Node returns a node for id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in discovery order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NumNodes returns number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns number of edges.
func (g *Graph) NumEdges() int { return g.edges }
