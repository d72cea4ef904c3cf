// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package cost estimates build cost of included headers.
package cost

import "strings"

// Entry is a known expensive header pattern and its base cost.
type Entry struct {
	// Pattern is a lower case substring of header name.
	Pattern string
	Cost    float64
}

// Table is an ordered list of entries.
// The first entry whose pattern matches a header wins, so more specific
// pattern listed after a generic one (e.g. "boost/asio" after "boost/")
// never matches.
type Table []Entry

// DefaultTable is relative base costs of well known headers.
var DefaultTable = Table{
	// iostreams
	{"iostream", 1500},
	{"iomanip", 800},
	{"sstream", 700},
	{"fstream", 900},

	// containers
	{"vector", 800},
	{"map", 900},
	{"unordered_map", 1000},
	{"set", 850},
	{"unordered_set", 950},
	{"deque", 750},
	{"list", 700},
	{"array", 500},

	// algorithms and iterators
	{"algorithm", 1200},
	{"iterator", 600},
	{"numeric", 650},
	{"functional", 950},

	{"string", 700},
	{"regex", 2000},

	{"memory", 850},
	{"shared_ptr", 800},
	{"unique_ptr", 700},

	{"chrono", 1100},
	{"ctime", 400},

	// threading
	{"thread", 1200},
	{"mutex", 900},
	{"atomic", 800},
	{"condition_variable", 950},

	{"cmath", 600},
	{"complex", 800},
	{"random", 1300},

	{"utility", 500},
	{"tuple", 700},
	{"variant", 900},
	{"optional", 750},
	{"any", 800},

	{"boost/", 3000},
	{"boost/algorithm", 2500},
	{"boost/asio", 4000},
	{"boost/spirit", 5000},
	{"boost/fusion", 3500},

	{"eigen/", 2500},
	{"opencv", 3500},
	{"tensorflow", 4500},
	{"qt", 2000},
}

// Lookup returns cost of the first entry whose pattern is contained in
// header, case-insensitively.
func (t Table) Lookup(header string) (float64, bool) {
	h := strings.ToLower(header)
	for _, e := range t {
		if strings.Contains(h, e.Pattern) {
			return e.Cost, true
		}
	}
	return 0, false
}

// HasPattern reports whether header is exactly one of patterns.
func (t Table) HasPattern(header string) bool {
	for _, e := range t {
		if e.Pattern == header {
			return true
		}
	}
	return false
}

const (
	systemBaseCost = 300
	userBaseCost   = 150
)

// BaseCost returns base cost of header by t.
// Unknown header costs systemBaseCost if system is true or header has no
// directory part, or userBaseCost otherwise.
func (t Table) BaseCost(header string, system bool) float64 {
	if c, ok := t.Lookup(header); ok {
		return c
	}
	if system || !strings.Contains(header, "/") {
		return systemBaseCost
	}
	return userBaseCost
}
