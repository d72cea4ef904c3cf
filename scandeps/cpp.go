// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"bytes"
	"context"
	"strings"
	"time"

	log "github.com/golang/glog"

	"go.chromium.org/infra/build/hdrcost/o11y/clog"
)

// Inclusion is one #include directive.
type Inclusion struct {
	// Header is the include target as written, without delimiters.
	Header string `json:"header"`

	// Line is 1-based line number of the directive.
	Line int `json:"line"`

	// System is true for <...> and false for "...".
	System bool `json:"is_system"`

	// Path is the resolved absolute path of the header, or empty
	// if it was not resolved.
	Path string `json:"full_path,omitempty"`
}

// NodeID returns the identifier of the include target in the dependency
// graph: resolved path, `<header>` for system includes, or header as is
// for unresolved quoted includes.
func (inc Inclusion) NodeID() string {
	switch {
	case inc.Path != "":
		return inc.Path
	case inc.System:
		return "<" + inc.Header + ">"
	default:
		return inc.Header
	}
}

func (inc Inclusion) String() string {
	if inc.System {
		return "<" + inc.Header + ">"
	}
	return `"` + inc.Header + `"`
}

// FileFacts is a fact sheet of a source file.
type FileFacts struct {
	// Path is absolute path of the file. It is the identity of the facts.
	Path string `json:"file"`

	Inclusions []Inclusion `json:"includes"`

	TotalLines   int `json:"total_lines"`
	CodeLines    int `json:"code_lines"`
	CommentLines int `json:"comment_lines"`
	BlankLines   int `json:"blank_lines"`

	HasTemplates   bool `json:"has_templates"`
	HasMacros      bool `json:"has_macros"`
	NamespaceCount int  `json:"namespace_count"`
	ClassCount     int  `json:"class_count"`
}

// Extract extracts facts of C/C++ source in buf.
// Inclusions in the returned facts are not resolved.
func Extract(ctx context.Context, fname string, buf []byte) *FileFacts {
	started := time.Now()
	facts := &FileFacts{
		Path:       fname,
		Inclusions: CPPScan(ctx, fname, buf),
	}
	setMetrics(facts, buf)

	if dur := time.Since(started); dur > time.Second {
		clog.Infof(ctx, "slow extract %s %s", fname, dur)
	}
	return facts
}

// CPPScan scans #include directives in buf.
// Directives are recognized only at the start of a line (after optional
// whitespace). Comments are not stripped, so line numbers match buf.
func CPPScan(ctx context.Context, fname string, buf []byte) []Inclusion {
	var incs []Inclusion
	lineno := 0
	for len(buf) > 0 {
		lineno++
		var line []byte
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			line = buf
			buf = nil
		} else {
			line = buf[:i]
			buf = buf[i+1:]
		}
		line = bytes.TrimLeft(line, " \t\f\v\r")
		if len(line) == 0 || line[0] != '#' {
			continue
		}
		lineStart := line
		line = bytes.TrimLeft(line[1:], " \t")
		switch {
		case bytes.HasPrefix(line, []byte("include_next")):
			line = bytes.TrimPrefix(line, []byte("include_next"))
		case bytes.HasPrefix(line, []byte("include")):
			line = bytes.TrimPrefix(line, []byte("include"))
		case bytes.HasPrefix(line, []byte("import")):
			line = bytes.TrimPrefix(line, []byte("import"))
		default:
			// ignore other directives
			if log.V(3) {
				clog.Infof(ctx, "skip %s:%d %q", fname, lineno, lineStart)
			}
			continue
		}
		line = bytes.TrimLeft(line, " \t")
		inc, ok := parseIncludePath(line)
		if !ok {
			if log.V(1) {
				clog.Infof(ctx, "malformed include %s:%d %q", fname, lineno, lineStart)
			}
			continue
		}
		inc.Line = lineno
		if log.V(2) {
			clog.Infof(ctx, "include %s:%d %s", fname, lineno, inc)
		}
		incs = append(incs, inc)
	}
	return incs
}

// parseIncludePath parses `"path.h"` or `<path.h>` at the start of incpath.
// The path runs up to the first `"` or `>`, which must match the
// opening delimiter.
func parseIncludePath(incpath []byte) (Inclusion, bool) {
	if len(incpath) == 0 {
		return Inclusion{}, false
	}
	var closing byte
	switch incpath[0] {
	case '"':
		closing = '"'
	case '<':
		closing = '>'
	default:
		// macro include or garbage.
		return Inclusion{}, false
	}
	i := bytes.IndexAny(incpath[1:], `">`)
	if i <= 0 {
		// unclosed or empty path.
		return Inclusion{}, false
	}
	if incpath[1+i] != closing {
		// mismatched delimiters, e.g. <foo.h"
		return Inclusion{}, false
	}
	return Inclusion{
		Header: strings.Clone(string(incpath[1 : 1+i])),
		System: closing == '>',
	}, true
}
