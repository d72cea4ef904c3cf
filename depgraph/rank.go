// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depgraph

import (
	"sort"
)

// Count is a node with its count.
type Count struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// MostIncluded returns top n nodes by number of including files,
// in descending order. Ties are in discovery order. Nodes that are not
// included are not ranked. n <= 0 means all.
func (g *Graph) MostIncluded(n int) []Count {
	var counts []Count
	for _, id := range g.order {
		if c := len(g.preds[id]); c > 0 {
			counts = append(counts, Count{ID: id, Count: c})
		}
	}
	return top(counts, n)
}

// Heaviest returns top n internal nodes by number of transitive
// dependencies, in descending order. Ties are in discovery order. Nodes
// without dependencies are not ranked. n <= 0 means all.
func (g *Graph) Heaviest(n int) []Count {
	var counts []Count
	for _, id := range g.order {
		if !g.nodes[id].Internal() {
			continue
		}
		if c := len(g.Transitive(id)); c > 0 {
			counts = append(counts, Count{ID: id, Count: c})
		}
	}
	return top(counts, n)
}

func top(counts []Count, n int) []Count {
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
