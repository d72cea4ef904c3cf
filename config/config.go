// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config provides project config of hdrcost.
//
// Project config is a starlark file `.hdrcost.star` in the project root.
// It must define `init(ctx)` that returns a struct with optional fields:
//
//	def init(ctx):
//	    return struct(
//	        extensions = [".cc", ".h"],
//	        exclude_dirs = ["out", "third_party"],
//	        include_dirs = ["include", "out/gen/headers.hmap"],
//	        max_files = 1000,
//	        base_costs = [("absl/", 1200)],
//	    )
//
// ctx has `flags` (dict of command line flags) and `root` (project root).
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"go.chromium.org/infra/build/hdrcost/cost"
)

// FileName is file name of project config.
const FileName = ".hdrcost.star"

const configEntryPoint = "init"

// Config is a project config.
type Config struct {
	// Extensions are file extensions to analyze.
	Extensions []string

	// ExcludeDirs are directory names to skip.
	ExcludeDirs []string

	// IncludeDirs are include search roots.
	IncludeDirs []string

	// MaxFiles limits number of files if positive.
	MaxFiles int

	// BaseCosts are base costs checked before the default table.
	BaseCosts cost.Table
}

// Table returns base cost table of the config.
func (c *Config) Table() cost.Table {
	if c == nil || len(c.BaseCosts) == 0 {
		return cost.DefaultTable
	}
	t := make(cost.Table, 0, len(c.BaseCosts)+len(cost.DefaultTable))
	t = append(t, c.BaseCosts...)
	return append(t, cost.DefaultTable...)
}

// LoadDir loads FileName in root dir.
// It returns empty config if the file doesn't exist.
func LoadDir(ctx context.Context, root string, flags map[string]string) (*Config, error) {
	fname := filepath.Join(root, FileName)
	buf, err := os.ReadFile(fname)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(ctx, fname, buf, root, flags)
}

// Parse parses starlark config in buf and runs its init.
func Parse(ctx context.Context, fname string, buf []byte, root string, flags map[string]string) (*Config, error) {
	thread := &starlark.Thread{
		Name: "load",
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: func(*starlark.Thread, string) (starlark.StringDict, error) {
			return nil, fmt.Errorf("load is not allowed in %s", FileName)
		},
	}
	predeclared := starlark.StringDict{
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
	}
	globals, err := starlark.ExecFile(thread, fname, buf, predeclared)
	if err != nil {
		logBacktrace(thread, err)
		return nil, fmt.Errorf("failed to exec %s: %w", fname, err)
	}
	fun, ok := globals[configEntryPoint]
	if !ok {
		return nil, fmt.Errorf("%s is not defined in %s", configEntryPoint, fname)
	}
	if _, ok := fun.(starlark.Callable); !ok {
		return nil, fmt.Errorf("%s %s is not callable in %s", configEntryPoint, fun.Type(), fname)
	}

	thread.Name = configEntryPoint
	cctx := starlarkstruct.FromStringDict(starlark.String("ctx"), starlark.StringDict{
		"flags": starFlags(flags),
		"root":  starlark.String(root),
	})
	ret, err := starlark.Call(thread, fun, starlark.Tuple{cctx}, nil)
	if err != nil {
		logBacktrace(thread, err)
		return nil, fmt.Errorf("failed to run %s in %s: %w", configEntryPoint, fname, err)
	}
	s, ok := ret.(*starlarkstruct.Struct)
	if !ok {
		return nil, fmt.Errorf("%s returned %s, want struct", configEntryPoint, ret.Type())
	}
	cfg, err := fromStruct(s)
	if err != nil {
		return nil, fmt.Errorf("bad config in %s: %w", fname, err)
	}
	log.Infof("config %s: %+v", fname, *cfg)
	return cfg, nil
}

func logBacktrace(thread *starlark.Thread, err error) {
	log.Warnf("thread:%s %v", thread.Name, err)
	var eerr *starlark.EvalError
	if errors.As(err, &eerr) {
		log.Warnf("stacktrace:\n%s", eerr.Backtrace())
	}
}

func starFlags(flags map[string]string) *starlark.Dict {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d := starlark.NewDict(len(flags))
	for _, k := range keys {
		// SetKey on new dict with string key never fails.
		_ = d.SetKey(starlark.String(k), starlark.String(flags[k]))
	}
	d.Freeze()
	return d
}

func fromStruct(s *starlarkstruct.Struct) (*Config, error) {
	cfg := &Config{}
	for _, name := range s.AttrNames() {
		v, err := s.Attr(name)
		if err != nil {
			return nil, err
		}
		switch name {
		case "extensions":
			cfg.Extensions, err = stringList(name, v)
		case "exclude_dirs":
			cfg.ExcludeDirs, err = stringList(name, v)
		case "include_dirs":
			cfg.IncludeDirs, err = stringList(name, v)
		case "max_files":
			cfg.MaxFiles, err = starlark.AsInt32(v)
			if err != nil {
				err = fmt.Errorf("%s: %w", name, err)
			}
		case "base_costs":
			cfg.BaseCosts, err = table(name, v)
		default:
			log.Warnf("unknown config field %q", name)
		}
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func stringList(name string, v starlark.Value) ([]string, error) {
	iter, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("%s: got %s, want list of strings", name, v.Type())
	}
	it := iter.Iterate()
	defer it.Done()
	list := []string{}
	var x starlark.Value
	for it.Next(&x) {
		s, ok := starlark.AsString(x)
		if !ok {
			return nil, fmt.Errorf("%s: got %s in list, want string", name, x.Type())
		}
		list = append(list, s)
	}
	return list, nil
}

func table(name string, v starlark.Value) (cost.Table, error) {
	iter, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("%s: got %s, want list of (pattern, cost)", name, v.Type())
	}
	it := iter.Iterate()
	defer it.Done()
	var t cost.Table
	var x starlark.Value
	for it.Next(&x) {
		tuple, ok := x.(starlark.Tuple)
		if !ok || len(tuple) != 2 {
			return nil, fmt.Errorf("%s: got %s, want (pattern, cost)", name, x)
		}
		pattern, ok := starlark.AsString(tuple[0])
		if !ok || pattern == "" {
			return nil, fmt.Errorf("%s: bad pattern %s", name, tuple[0])
		}
		c, ok := starlark.AsFloat(tuple[1])
		if !ok || c < 0 {
			return nil, fmt.Errorf("%s: bad cost %s for %q", name, tuple[1], pattern)
		}
		t = append(t, cost.Entry{Pattern: strings.ToLower(pattern), Cost: c})
	}
	return t, nil
}
