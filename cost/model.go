// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cost

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	log "github.com/golang/glog"

	"go.chromium.org/infra/build/hdrcost/o11y/clog"
	"go.chromium.org/infra/build/hdrcost/scandeps"
)

// Graph is a dependency graph used to estimate transitive cost.
// *depgraph.Graph implements it.
type Graph interface {
	Transitive(id string) []string
	Depth(id string) int
}

// calibration constants.
const (
	costPerLine       = 0.5
	templateFactor    = 1.5
	costPerTemplate   = 200
	macroFactor       = 1.2
	costPerClass      = 50
	costPerNamespace  = 10
	costPerDependency = 50
	costPerDepth      = 100
	deepThreshold     = 5
	costPerDeepLevel  = 200
)

// Breakdown is estimated cost of an inclusion by component.
type Breakdown struct {
	Base float64 `json:"base"`
	// Metrics is cost added by metrics of the included file.
	Metrics    float64 `json:"metrics"`
	Transitive float64 `json:"transitive"`
	Total      float64 `json:"total"`
}

type cacheKey struct {
	node   string
	header string
	system bool
	facts  string
}

// Cache memoizes estimated costs in an analysis run.
// It is safe for concurrent use.
type Cache struct {
	m      sync.Map // cacheKey -> Breakdown
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates new empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Stats returns number of cache hits and misses.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Model estimates build cost of inclusions.
type Model struct {
	table Table
	graph Graph
	cache *Cache
}

// New creates a model on graph g with base cost table.
// If cache is nil, new cache is used.
func New(g Graph, table Table, cache *Cache) *Model {
	if cache == nil {
		cache = NewCache()
	}
	return &Model{
		table: table,
		graph: g,
		cache: cache,
	}
}

// Table returns base cost table of the model.
func (m *Model) Table() Table {
	return m.table
}

// Estimate returns estimated cost of inc.
// facts is facts of the included file if it was analyzed, or nil.
func (m *Model) Estimate(inc scandeps.Inclusion, facts *scandeps.FileFacts) float64 {
	return m.Breakdown(inc, facts).Total
}

// Breakdown returns estimated cost of inc by component.
// The result is memoized by inclusion target and facts.
func (m *Model) Breakdown(inc scandeps.Inclusion, facts *scandeps.FileFacts) Breakdown {
	key := cacheKey{
		node:   inc.NodeID(),
		header: inc.Header,
		system: inc.System,
	}
	if facts != nil {
		key.facts = facts.Path
	}
	if v, ok := m.cache.m.Load(key); ok {
		m.cache.hits.Add(1)
		return v.(Breakdown)
	}
	m.cache.misses.Add(1)
	b := Breakdown{
		Base:       m.table.BaseCost(inc.Header, inc.System),
		Transitive: m.transitiveCost(key.node),
	}
	c := b.Base
	if facts != nil {
		c = metricsCost(b.Base, inc.Header, facts)
		b.Metrics = c - b.Base
	}
	b.Total = c + b.Transitive
	if log.V(1) {
		clog.Infof(context.Background(), "cost %s: %+v", inc, b)
	}
	v, _ := m.cache.m.LoadOrStore(key, b)
	return v.(Breakdown)
}

// metricsCost returns cost of base adjusted by metrics of facts.
// Template and macro factors apply to base cost too.
func metricsCost(base float64, header string, facts *scandeps.FileFacts) float64 {
	c := base + float64(facts.TotalLines)*costPerLine
	if facts.HasTemplates {
		c *= templateFactor
		c += float64(strings.Count(header, "template")) * costPerTemplate
	}
	if facts.HasMacros {
		c *= macroFactor
	}
	c += float64(facts.ClassCount) * costPerClass
	c += float64(facts.NamespaceCount) * costPerNamespace
	return c
}

func (m *Model) transitiveCost(node string) float64 {
	if m.graph == nil {
		return 0
	}
	deps := len(m.graph.Transitive(node))
	depth := m.graph.Depth(node)
	c := float64(deps*costPerDependency + depth*costPerDepth)
	if depth > deepThreshold {
		c += float64((depth - deepThreshold) * costPerDeepLevel)
	}
	return c
}
