// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cost

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	log "github.com/golang/glog"
	lru "github.com/hashicorp/golang-lru/v2"

	"go.chromium.org/infra/build/hdrcost/o11y/clog"
	"go.chromium.org/infra/build/hdrcost/scandeps"
)

// Verdict is a verdict of usage check.
type Verdict int

const (
	// VerdictUnused means no usage signal was found.
	VerdictUnused Verdict = iota
	// VerdictUsed means some usage signal was found.
	VerdictUsed
	// VerdictAssumedUsed means the source couldn't be read,
	// so the header is assumed to be used.
	VerdictAssumedUsed
)

func (v Verdict) String() string {
	switch v {
	case VerdictUnused:
		return "unused"
	case VerdictUsed:
		return "used"
	case VerdictAssumedUsed:
		return "assumed-used"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(b []byte) error {
	for _, c := range []Verdict{VerdictUnused, VerdictUsed, VerdictAssumedUsed} {
		if c.String() == string(b) {
			*v = c
			return nil
		}
	}
	return fmt.Errorf("unknown verdict %q", b)
}

// Usage is a result of usage check of an included header in a source.
type Usage struct {
	Verdict Verdict
	// Used is true if header is likely used.
	Used bool
	// Confidence is ratio of found signals, in [0, 1].
	Confidence float64
}

// numSignals is number of usage signals checked.
const numSignals = 3

// usedThreshold is confidence above which the header is considered used.
const usedThreshold = 0.3

// symbol is a header pattern and symbols it declares.
type symbol struct {
	pattern string
	names   []string
}

// knownSymbols are symbols of well known headers.
// The first pattern contained in a header is used.
var knownSymbols = []symbol{
	{"iostream", []string{"cout", "cin", "endl", "cerr"}},
	{"vector", []string{"vector", "push_back", "emplace_back"}},
	{"string", []string{"string", "to_string"}},
	{"map", []string{"map", "unordered_map"}},
	{"algorithm", []string{"sort", "find", "transform", "for_each"}},
	{"memory", []string{"make_shared", "make_unique", "shared_ptr", "unique_ptr"}},
	{"thread", []string{"thread", "join", "detach"}},
	{"mutex", []string{"mutex", "lock_guard", "unique_lock"}},
}

var (
	includeLineRE = regexp.MustCompile(`#include.*`)
	stdRE         = regexp.MustCompile(`\bstd::`)
)

// source is a source text with #include lines stripped.
type source struct {
	text  string
	lower string
}

func newSource(buf []byte) source {
	text := includeLineRE.ReplaceAllString(string(buf), "")
	return source{
		text:  text,
		lower: strings.ToLower(text),
	}
}

// CheckText checks usage of header of inc in source text buf.
func CheckText(buf []byte, inc scandeps.Inclusion) Usage {
	return checkSource(newSource(buf), inc)
}

func checkSource(src source, inc scandeps.Inclusion) Usage {
	found := 0
	if strings.Contains(src.lower, strings.ToLower(stem(inc.Header))) {
		found++
	}
	if inc.System && stdRE.MatchString(src.text) {
		found++
	}
	if hasKnownSymbol(src.text, inc.Header) {
		found++
	}
	u := Usage{
		Confidence: float64(found) / numSignals,
	}
	u.Used = u.Confidence > usedThreshold
	if u.Used {
		u.Verdict = VerdictUsed
	}
	return u
}

// stem returns base name of header without extension.
func stem(header string) string {
	base := path.Base(header)
	ext := path.Ext(base)
	if ext == base {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

func hasKnownSymbol(text, header string) bool {
	for _, s := range knownSymbols {
		if !strings.Contains(header, s.pattern) {
			continue
		}
		for _, name := range s.names {
			if strings.Contains(text, name) {
				return true
			}
		}
		return false
	}
	return false
}

// UsageChecker checks usage of included headers in source files.
// It is safe for concurrent use.
type UsageChecker struct {
	fs      scandeps.FS
	sources *lru.Cache[string, source]
}

// NewUsageChecker creates a checker reading sources from fsys,
// caching up to size sources.
func NewUsageChecker(fsys scandeps.FS, size int) (*UsageChecker, error) {
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New[string, source](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create source cache: %w", err)
	}
	return &UsageChecker{
		fs:      fsys,
		sources: cache,
	}, nil
}

// Check checks usage of inc in source file fname.
// If fname can't be read, it returns VerdictAssumedUsed.
func (u *UsageChecker) Check(ctx context.Context, fname string, inc scandeps.Inclusion) Usage {
	src, ok := u.sources.Get(fname)
	if !ok {
		buf, err := u.fs.ReadFile(ctx, fname)
		if err != nil {
			clog.Warningf(ctx, "assume %s used in %s: %v", inc, fname, err)
			return Usage{
				Verdict: VerdictAssumedUsed,
				Used:    true,
			}
		}
		src = newSource(buf)
		u.sources.Add(fname, src)
	}
	usage := checkSource(src, inc)
	if log.V(1) {
		clog.Infof(ctx, "usage %s in %s: %s %.2f", inc, fname, usage.Verdict, usage.Confidence)
	}
	return usage
}
