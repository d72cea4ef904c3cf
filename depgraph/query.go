// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depgraph

import (
	"context"

	log "github.com/golang/glog"

	"go.chromium.org/infra/build/hdrcost/o11y/clog"
)

// Direct returns immediate successors of id, i.e. targets included by id,
// in first inclusion order.
func (g *Graph) Direct(id string) []string {
	return clone(g.succs[id])
}

// Dependents returns immediate predecessors of id, i.e. files that
// include id.
func (g *Graph) Dependents(id string) []string {
	return clone(g.preds[id])
}

// Transitive returns all nodes reachable from id by one or more edges,
// in BFS order. id itself is included only if it is on a cycle.
// The result is memoized per node.
func (g *Graph) Transitive(id string) []string {
	if _, ok := g.nodes[id]; !ok {
		return nil
	}
	if v, ok := g.transitive.Load(id); ok {
		return clone(v.([]string))
	}
	v, _, _ := g.tgroup.Do(id, func() (any, error) {
		if v, ok := g.transitive.Load(id); ok {
			return v, nil
		}
		deps, _ := g.bfs(id)
		if log.V(2) {
			clog.Infof(context.Background(), "transitive %s: %d", id, len(deps))
		}
		g.transitive.Store(id, deps)
		return deps, nil
	})
	return clone(v.([]string))
}

// Depth returns the maximum of shortest path lengths from id to nodes
// reachable from id. 0 if nothing is reachable.
// Note that it is not the longest path.
func (g *Graph) Depth(id string) int {
	if _, ok := g.nodes[id]; !ok {
		return 0
	}
	_, depth := g.bfs(id)
	return depth
}

// bfs returns nodes reachable from id by one or more edges in BFS order,
// and the maximum shortest path length.
func (g *Graph) bfs(id string) ([]string, int) {
	dist := map[string]int{id: 0}
	var deps []string
	self := false
	depth := 0
	q := []string{id}
	for len(q) > 0 {
		n := q[0]
		q = q[1:]
		for _, s := range g.succs[n] {
			if s == id && !self {
				self = true
				deps = append(deps, s)
			}
			if _, ok := dist[s]; ok {
				continue
			}
			d := dist[n] + 1
			dist[s] = d
			depth = max(depth, d)
			deps = append(deps, s)
			q = append(q, s)
		}
	}
	return deps, depth
}

func clone(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return append([]string(nil), s...)
}
