// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depgraph

import (
	"context"
	"fmt"

	"go.chromium.org/infra/build/hdrcost/o11y/clog"
)

// Cycles returns all elementary circuits of the graph by Johnson's
// algorithm. Each circuit starts at its earliest discovered node.
// It returns nil for acyclic graph, or if enumeration failed.
func (g *Graph) Cycles() (cycles [][]string) {
	defer func() {
		if r := recover(); r != nil {
			clog.Warningf(context.Background(), "failed to find cycles: %v", r)
			cycles = nil
		}
	}()

	n := len(g.order)
	index := make(map[string]int, n)
	for i, id := range g.order {
		index[id] = i
	}
	adj := make([][]int, n)
	radj := make([][]int, n)
	for i, id := range g.order {
		for _, s := range g.succs[id] {
			j, ok := index[s]
			if !ok {
				panic(fmt.Sprintf("edge %s -> %s to unknown node", id, s))
			}
			adj[i] = append(adj[i], j)
			radj[j] = append(radj[j], i)
		}
	}

	c := &circuitFinder{
		adj:     adj,
		blocked: make([]bool, n),
		b:       make([]map[int]bool, n),
	}
	for s := 0; s < n; s++ {
		comp := component(adj, radj, s)
		if comp == nil {
			continue
		}
		c.reset(s, comp)
		c.circuit(s)
		for _, circuit := range c.circuits {
			ids := make([]string, 0, len(circuit))
			for _, v := range circuit {
				ids = append(ids, g.order[v])
			}
			cycles = append(cycles, ids)
		}
	}
	return cycles
}

// component returns the strongly connected component containing s in the
// subgraph induced by nodes >= s, or nil if s is on no cycle there.
func component(adj, radj [][]int, s int) map[int]bool {
	fwd := reach(adj, s)
	bwd := reach(radj, s)
	comp := make(map[int]bool)
	for v := range fwd {
		if bwd[v] {
			comp[v] = true
		}
	}
	if len(comp) > 1 {
		return comp
	}
	for _, w := range adj[s] {
		if w == s {
			return comp
		}
	}
	return nil
}

// reach returns nodes >= s reachable from s, including s.
func reach(adj [][]int, s int) map[int]bool {
	seen := map[int]bool{s: true}
	q := []int{s}
	for len(q) > 0 {
		v := q[0]
		q = q[1:]
		for _, w := range adj[v] {
			if w < s || seen[w] {
				continue
			}
			seen[w] = true
			q = append(q, w)
		}
	}
	return seen
}

type circuitFinder struct {
	adj     [][]int
	blocked []bool
	b       []map[int]bool

	start    int
	comp     map[int]bool
	stack    []int
	circuits [][]int
}

func (c *circuitFinder) reset(s int, comp map[int]bool) {
	c.start = s
	c.comp = comp
	c.stack = c.stack[:0]
	c.circuits = nil
	for v := range comp {
		c.blocked[v] = false
		c.b[v] = make(map[int]bool)
	}
}

func (c *circuitFinder) circuit(v int) bool {
	found := false
	c.stack = append(c.stack, v)
	c.blocked[v] = true
	for _, w := range c.adj[v] {
		if !c.comp[w] {
			continue
		}
		if w == c.start {
			c.circuits = append(c.circuits, append([]int(nil), c.stack...))
			found = true
			continue
		}
		if !c.blocked[w] && c.circuit(w) {
			found = true
		}
	}
	if found {
		c.unblock(v)
	} else {
		for _, w := range c.adj[v] {
			if c.comp[w] {
				c.b[w][v] = true
			}
		}
	}
	c.stack = c.stack[:len(c.stack)-1]
	return found
}

func (c *circuitFinder) unblock(v int) {
	c.blocked[v] = false
	for w := range c.b[v] {
		delete(c.b[v], w)
		if c.blocked[w] {
			c.unblock(w)
		}
	}
}
