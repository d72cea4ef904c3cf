// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"path/filepath"
	"strings"

	log "github.com/golang/glog"

	"go.chromium.org/infra/build/hdrcost/o11y/clog"
)

// searchPath is an include search root: a directory or a header map.
type searchPath struct {
	dir  string
	hmap map[string]string
}

// Resolver resolves quoted includes to file paths.
// It is safe for concurrent use.
type Resolver struct {
	fs          *filesystem
	searchPaths []searchPath
}

// NewResolver creates a resolver that searches the project root, then
// dirs in order. A dir ending with ".hmap" is loaded as a header map;
// if it can't be read or parsed, it is ignored.
func NewResolver(ctx context.Context, fsys FS, root string, dirs []string) *Resolver {
	r := &Resolver{
		fs: newFilesystem(fsys),
	}
	if root != "" {
		r.searchPaths = append(r.searchPaths, searchPath{dir: canonicalPath(root)})
	}
	for _, dir := range dirs {
		if !filepath.IsAbs(dir) && root != "" {
			dir = filepath.Join(root, dir)
		}
		if strings.HasSuffix(dir, ".hmap") {
			buf, err := fsys.ReadFile(ctx, dir)
			if err != nil {
				clog.Warningf(ctx, "ignore hmap %s: %v", dir, err)
				continue
			}
			m, err := ParseHeaderMap(buf)
			if err != nil {
				clog.Warningf(ctx, "ignore hmap %s: %v", dir, err)
				continue
			}
			r.searchPaths = append(r.searchPaths, searchPath{dir: dir, hmap: m})
			continue
		}
		r.searchPaths = append(r.searchPaths, searchPath{dir: canonicalPath(dir)})
	}
	return r
}

// Resolve resolves an include of header in including file.
// System includes are not probed and return `<header>`.
// Quoted includes are probed in the including file's dir, then the
// project root and include dirs; first existing file wins and its
// canonical path is returned. Otherwise header is returned as is.
func (r *Resolver) Resolve(ctx context.Context, header, including string, system bool) string {
	if system {
		return "<" + header + ">"
	}
	if p, ok := r.find(ctx, header, including); ok {
		return p
	}
	return header
}

func (r *Resolver) find(ctx context.Context, header, including string) (string, bool) {
	if filepath.IsAbs(header) {
		if r.fs.isFile(ctx, header) {
			return canonicalPath(header), true
		}
		return "", false
	}
	candidate := filepath.Join(filepath.Dir(including), header)
	if r.fs.isFile(ctx, candidate) {
		return canonicalPath(candidate), true
	}
	for _, sp := range r.searchPaths {
		if sp.hmap != nil {
			p, ok := sp.hmap[header]
			if ok && r.fs.isFile(ctx, p) {
				return canonicalPath(p), true
			}
			continue
		}
		candidate := filepath.Join(sp.dir, header)
		if r.fs.isFile(ctx, candidate) {
			return canonicalPath(candidate), true
		}
	}
	if log.V(1) {
		clog.Infof(ctx, "unresolved %q from %s", header, including)
	}
	return "", false
}

// ResolveAll fills Path of resolved quoted inclusions in facts.
func (r *Resolver) ResolveAll(ctx context.Context, facts *FileFacts) {
	for i := range facts.Inclusions {
		inc := &facts.Inclusions[i]
		if inc.System {
			continue
		}
		if p, ok := r.find(ctx, inc.Header, facts.Path); ok {
			inc.Path = p
		}
	}
}

// Resolved reports whether label returned by Resolve for header is a
// resolved file path rather than a system label or header as is.
func (r *Resolver) Resolved(label, header string) bool {
	if label == "" || label == header {
		return false
	}
	return !strings.HasPrefix(label, "<") || !strings.HasSuffix(label, ">")
}
