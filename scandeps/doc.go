// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scandeps provides a compiler-free C/C++ include scanner.
// It extracts a fact sheet per source file: the #include directives
// with their line numbers, and coarse structural metrics used to estimate
// how expensive a file is to include.
//
// It only checks the following forms of directive
//
//	#include "foo.h"
//	#include <foo.h>
//	#include_next <foo.h>
//	#import "foo.h"
//
// `#include FOO_H` is not expanded, and `#if`/`#ifdef` are not evaluated,
// so every directive in the file is counted.
//
// Quoted includes are resolved against the including file's directory,
// the project root and the configured include dirs (or *.hmap header
// maps), in that order. Angle-bracket includes are never resolved and
// are identified by `<name>`.
//
// Structural metrics (templates, macro definitions, namespaces, classes)
// are detected on the raw text, so keywords in comments are counted too.
// This is an accuracy/simplicity tradeoff: it is fast and
// good enough to rank headers.
package scandeps
