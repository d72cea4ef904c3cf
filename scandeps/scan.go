// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/infra/build/hdrcost/o11y/clog"
	"go.chromium.org/infra/build/hdrcost/sync/semaphore"
)

// DefaultExtensions are file extensions of C/C++ sources and headers.
var DefaultExtensions = []string{".cpp", ".cc", ".cxx", ".c", ".h", ".hpp", ".hxx", ".hh"}

// DefaultExcludeDirs are directory names not to scan.
var DefaultExcludeDirs = []string{
	"build", "cmake-build", "cmake-build-debug", "cmake-build-release",
	".git", ".svn", "node_modules", "venv", "env", "__pycache__",
}

// Option is an option of project scanning.
type Option struct {
	// Extensions is allow-list of file extensions, e.g. ".cc".
	// DefaultExtensions if empty.
	Extensions []string

	// ExcludeDirs is a set of directory names to skip.
	// DefaultExcludeDirs if nil.
	ExcludeDirs []string

	// IncludeDirs are additional search roots for quoted includes,
	// relative to the project root or absolute. *.hmap is a header map.
	IncludeDirs []string

	// MaxFiles limits number of files to analyze if positive.
	MaxFiles int

	// Parallelism is max number of files read at once.
	// runtime.NumCPU() if not positive.
	Parallelism int
}

// ReadFacts reads fname and extracts its facts with inclusions resolved.
// Returned error means the file should be skipped.
func ReadFacts(ctx context.Context, fsys FS, r *Resolver, fname string) (*FileFacts, error) {
	buf, err := fsys.ReadFile(ctx, fname)
	if err != nil {
		return nil, err
	}
	facts := Extract(ctx, fname, buf)
	if r != nil {
		r.ResolveAll(ctx, facts)
	}
	return facts, nil
}

// Files lists source files under root matching opt, sorted by path.
func Files(ctx context.Context, fsys WalkFS, root string, opt Option) ([]string, error) {
	exts := opt.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extSet := make(map[string]bool)
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extSet[ext] = true
	}
	excludes := opt.ExcludeDirs
	if excludes == nil {
		excludes = DefaultExcludeDirs
	}
	excludeSet := make(map[string]bool)
	for _, d := range excludes {
		excludeSet[d] = true
	}

	var files []string
	err := fsys.WalkDir(ctx, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			clog.Warningf(ctx, "skip %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && excludeSet[d.Name()] {
				if log.V(1) {
					clog.Infof(ctx, "exclude dir %s", path)
				}
				return fs.SkipDir
			}
			return nil
		}
		if extSet[filepath.Ext(path)] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// ScanProject extracts facts of all source files under root.
// Files are read concurrently; files that can't be read are logged and
// skipped. Returned facts are sorted by path.
//
// If ctx is canceled, ScanProject stops reading new files and returns
// facts of files already extracted with ctx's error.
func ScanProject(ctx context.Context, fsys WalkFS, root string, opt Option) ([]*FileFacts, error) {
	started := time.Now()
	root = canonicalPath(root)
	files, err := Files(ctx, fsys, root, opt)
	if err != nil {
		return nil, err
	}
	if opt.MaxFiles > 0 && len(files) > opt.MaxFiles {
		clog.Warningf(ctx, "limit analysis to %d files out of %d", opt.MaxFiles, len(files))
		files = files[:opt.MaxFiles]
	}
	clog.Infof(ctx, "scan %d files in %s", len(files), root)

	n := opt.Parallelism
	if n <= 0 {
		n = runtime.NumCPU()
	}
	sema := semaphore.New("scandeps", n)
	resolver := NewResolver(ctx, fsys, root, opt.IncludeDirs)

	results := make([]*FileFacts, len(files))
	eg, gctx := errgroup.WithContext(ctx)
	for i, fname := range files {
		eg.Go(func() error {
			return sema.Do(gctx, func(ctx context.Context) error {
				facts, err := ReadFacts(ctx, fsys, resolver, canonicalPath(fname))
				if err != nil {
					clog.Warningf(ctx, "skip %s: %v", fname, err)
					return nil
				}
				results[i] = facts
				return nil
			})
		})
	}
	err = eg.Wait()

	facts := make([]*FileFacts, 0, len(results))
	for _, f := range results {
		if f != nil {
			facts = append(facts, f)
		}
	}
	sort.Slice(facts, func(i, j int) bool {
		return facts[i].Path < facts[j].Path
	})
	clog.Infof(ctx, "scanned %d/%d files in %s", len(facts), len(files), time.Since(started))
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return facts, fmt.Errorf("scan %s: %w", root, err)
	}
	return facts, err
}
