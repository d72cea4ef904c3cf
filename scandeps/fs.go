// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"

	log "github.com/golang/glog"
	"golang.org/x/sync/singleflight"

	"go.chromium.org/infra/build/hdrcost/o11y/clog"
)

// FS is a filesystem used by scandeps.
// *osfs.OSFS implements it.
type FS interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	Stat(ctx context.Context, name string) (fs.FileInfo, error)
}

// WalkFS is a FS that can walk a directory tree.
type WalkFS interface {
	FS
	WalkDir(ctx context.Context, root string, fn fs.WalkDirFunc) error
}

// filesystem caches existence of files to optimize for include resolution.
// Without this, each include dir would be probed for the same header
// from every including file.
type filesystem struct {
	fs FS

	s     singleflight.Group
	mu    sync.Mutex
	files map[string]bool // fname -> is regular file
}

func newFilesystem(fsys FS) *filesystem {
	return &filesystem{
		fs:    fsys,
		files: make(map[string]bool),
	}
}

// isFile reports whether fname exists and is not a directory.
func (fsys *filesystem) isFile(ctx context.Context, fname string) bool {
	fsys.mu.Lock()
	ok, found := fsys.files[fname]
	fsys.mu.Unlock()
	if found {
		return ok
	}
	v, _, _ := fsys.s.Do(fname, func() (any, error) {
		fi, err := fsys.fs.Stat(ctx, fname)
		ok := err == nil && !fi.IsDir()
		if log.V(2) {
			clog.Infof(ctx, "stat %s: %t %v", fname, ok, err)
		}
		fsys.mu.Lock()
		fsys.files[fname] = ok
		fsys.mu.Unlock()
		return ok, nil
	})
	return v.(bool)
}

// canonicalPath returns absolute path of fname with symlinks evaluated,
// so the same file is identified by the same path from any include dir.
func canonicalPath(fname string) string {
	p, err := filepath.Abs(fname)
	if err != nil {
		return filepath.Clean(fname)
	}
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	return p
}
