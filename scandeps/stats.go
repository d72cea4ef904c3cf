// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import "fmt"

// Statistics summarizes extracted facts of a project.
type Statistics struct {
	Files             int     `json:"total_files"`
	Includes          int     `json:"total_includes"`
	SystemIncludes    int     `json:"system_includes"`
	UserIncludes      int     `json:"user_includes"`
	Lines             int     `json:"total_lines"`
	CodeLines         int     `json:"code_lines"`
	AvgIncludes       float64 `json:"avg_includes_per_file"`
	AvgLines          float64 `json:"avg_lines_per_file"`
	FilesWithTemplate int     `json:"files_with_templates"`
	FilesWithMacros   int     `json:"files_with_macros"`
}

// Stats computes statistics of facts.
func Stats(facts []*FileFacts) Statistics {
	var st Statistics
	for _, f := range facts {
		st.Files++
		st.Includes += len(f.Inclusions)
		for _, inc := range f.Inclusions {
			if inc.System {
				st.SystemIncludes++
			} else {
				st.UserIncludes++
			}
		}
		st.Lines += f.TotalLines
		st.CodeLines += f.CodeLines
		if f.HasTemplates {
			st.FilesWithTemplate++
		}
		if f.HasMacros {
			st.FilesWithMacros++
		}
	}
	if st.Files > 0 {
		st.AvgIncludes = float64(st.Includes) / float64(st.Files)
		st.AvgLines = float64(st.Lines) / float64(st.Files)
	}
	return st
}

func (st Statistics) String() string {
	return fmt.Sprintf("files=%d includes=%d (system=%d user=%d) lines=%d code=%d avg_includes=%.1f templates=%d macros=%d",
		st.Files, st.Includes, st.SystemIncludes, st.UserIncludes,
		st.Lines, st.CodeLines, st.AvgIncludes,
		st.FilesWithTemplate, st.FilesWithMacros)
}
