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
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/hdrcost/osfs"
)

// failFS fails to read files named in fail.
type failFS struct {
	WalkFS
	fail map[string]bool
}

func (f failFS) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if f.fail[filepath.Base(name)] {
		return nil, fmt.Errorf("read %s: %w", name, fs.ErrPermission)
	}
	return f.WalkFS.ReadFile(ctx, name)
}

func scanFixture(t *testing.T) string {
	t.Helper()
	return setupFiles(t, t.TempDir(), map[string]string{
		"a.cpp":                 "#include \"b.h\"\n#include <vector>\n",
		"b.h":                   "#pragma once\nclass B {};\n",
		"sub/c.hpp":             "#include \"../b.h\"\n",
		"sub/notes.txt":         "#include \"b.h\"\n",
		"README.md":             "",
		"build/gen.cpp":         "",
		"sub/node_modules/x.cc": "",
		"src/build/y.cc":        "",
	})
}

func relPaths(root string, facts []*FileFacts) []string {
	var paths []string
	for _, f := range facts {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil {
			rel = f.Path
		}
		paths = append(paths, filepath.ToSlash(rel))
	}
	return paths
}

func TestScanProject(t *testing.T) {
	ctx := context.Background()
	root := scanFixture(t)
	fsys := osfs.New("test")

	for _, tc := range []struct {
		name string
		fsys WalkFS
		opt  Option
		want []string
	}{
		{
			name: "default",
			fsys: fsys,
			want: []string{"a.cpp", "b.h", "sub/c.hpp"},
		},
		{
			name: "max_files",
			fsys: fsys,
			opt:  Option{MaxFiles: 2},
			want: []string{"a.cpp", "b.h"},
		},
		{
			name: "extensions",
			fsys: fsys,
			opt:  Option{Extensions: []string{"h", ".txt"}},
			want: []string{"b.h", "sub/notes.txt"},
		},
		{
			name: "no_excludes",
			fsys: fsys,
			opt:  Option{ExcludeDirs: []string{}, Parallelism: 1},
			want: []string{"a.cpp", "b.h", "build/gen.cpp", "src/build/y.cc", "sub/c.hpp", "sub/node_modules/x.cc"},
		},
		{
			name: "unreadable",
			fsys: failFS{WalkFS: fsys, fail: map[string]bool{"b.h": true}},
			want: []string{"a.cpp", "sub/c.hpp"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			facts, err := ScanProject(ctx, tc.fsys, root, tc.opt)
			if err != nil {
				t.Fatalf("ScanProject(ctx, %q, %v)=_, %v; want nil err", root, tc.opt, err)
			}
			if diff := cmp.Diff(tc.want, relPaths(root, facts)); diff != "" {
				t.Errorf("ScanProject paths diff -want +got:\n%s", diff)
			}
		})
	}
}

func TestScanProject_resolved(t *testing.T) {
	ctx := context.Background()
	root := scanFixture(t)

	facts, err := ScanProject(ctx, osfs.New("test"), root, Option{})
	if err != nil {
		t.Fatal(err)
	}
	if len(facts) != 3 {
		t.Fatalf("ScanProject(ctx, %q)=%d facts; want 3", root, len(facts))
	}
	got := map[string][]Inclusion{}
	for _, f := range facts {
		got[f.Path] = f.Inclusions
	}
	want := map[string][]Inclusion{
		filepath.Join(root, "a.cpp"): {
			{Header: "b.h", Line: 1, Path: filepath.Join(root, "b.h")},
			{Header: "vector", Line: 2, System: true},
		},
		filepath.Join(root, "b.h"): nil,
		filepath.Join(root, "sub/c.hpp"): {
			{Header: "../b.h", Line: 1, Path: filepath.Join(root, "b.h")},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("inclusions diff -want +got:\n%s", diff)
	}
	if facts[1].ClassCount != 1 || facts[1].TotalLines != 3 {
		t.Errorf("facts of b.h=%+v; want 1 class, 3 lines", facts[1])
	}
}

func TestScanProject_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := scanFixture(t)

	_, err := ScanProject(ctx, osfs.New("test"), root, Option{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ScanProject(canceled)=%v; want %v", err, context.Canceled)
	}
}

func TestScanProject_missingRoot(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "missing")
	_, err := ScanProject(ctx, osfs.New("test"), root, Option{})
	if err == nil {
		t.Errorf("ScanProject(%q)=nil err; want err", root)
	}
}
