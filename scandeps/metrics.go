// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"bytes"
	"regexp"
)

var (
	blockCommentRE = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRE  = regexp.MustCompile(`(?m)//.*$`)
	templateRE     = regexp.MustCompile(`\btemplate\s*<`)
	defineRE       = regexp.MustCompile(`(?m)^[ \t\f\v\r]*#[ \t]*define\s`)
	namespaceRE    = regexp.MustCompile(`\bnamespace\s+\w+`)
	classRE        = regexp.MustCompile(`\b(?:class|struct)\s+\w+`)
)

// setMetrics fills structural metrics of facts from source in buf.
// Keywords in comments are counted too.
func setMetrics(facts *FileFacts, buf []byte) {
	countLines(facts, buf)
	facts.HasTemplates = templateRE.Match(buf)
	facts.HasMacros = defineRE.Match(buf)
	facts.NamespaceCount = len(namespaceRE.FindAllIndex(buf, -1))
	facts.ClassCount = len(classRE.FindAllIndex(buf, -1))
}

// countLines classifies lines of buf into blank, comment and code lines.
// Comments are stripped only to count code lines, block comments first.
func countLines(facts *FileFacts, buf []byte) {
	facts.TotalLines = bytes.Count(buf, []byte("\n")) + 1
	facts.BlankLines = countSegments(buf, true)

	code := blockCommentRE.ReplaceAll(buf, nil)
	code = lineCommentRE.ReplaceAll(code, nil)
	facts.CodeLines = countSegments(code, false)
	facts.CommentLines = facts.TotalLines - facts.CodeLines - facts.BlankLines
}

// countSegments counts \n-separated segments of buf that are blank (only
// whitespace) if blank is true, or non-blank otherwise.
func countSegments(buf []byte, blank bool) int {
	n := 0
	for {
		line := buf
		i := bytes.IndexByte(buf, '\n')
		if i >= 0 {
			line = buf[:i]
		}
		if (len(bytes.TrimSpace(line)) == 0) == blank {
			n++
		}
		if i < 0 {
			return n
		}
		buf = buf[i+1:]
	}
}
