// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"strings"
)

// Table formats rows in aligned columns.
// Cells may contain SGR sequences; they don't count toward column width.
type Table struct {
	header []string
	rows   [][]string
	right  map[int]bool
}

// NewTable creates a table with header.
func NewTable(header ...string) *Table {
	return &Table{
		header: header,
		right:  make(map[int]bool),
	}
}

// AlignRight makes columns cols right aligned.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// Append appends a row.
func (t *Table) Append(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns number of rows, excluding header.
func (t *Table) Len() int {
	return len(t.rows)
}

// Lines returns formatted lines, header first.
func (t *Table) Lines() []string {
	var widths []int
	measure := func(cells []string) {
		for i, c := range cells {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], len(StripANSIEscapeCodes(c)))
		}
	}
	measure(t.header)
	for _, r := range t.rows {
		measure(r)
	}
	var lines []string
	if len(t.header) > 0 {
		lines = append(lines, t.format(t.header, widths, Bold))
	}
	for _, r := range t.rows {
		lines = append(lines, t.format(r, widths, -1))
	}
	return lines
}

func (t *Table) format(cells []string, widths []int, sgr SGRCode) string {
	var sb strings.Builder
	for i, c := range cells {
		if i > 0 {
			sb.WriteString("  ")
		}
		pad := strings.Repeat(" ", widths[i]-len(StripANSIEscapeCodes(c)))
		if sgr >= 0 {
			c = SGR(sgr, c)
		}
		if t.right[i] {
			sb.WriteString(pad)
			sb.WriteString(c)
			continue
		}
		sb.WriteString(c)
		if i < len(cells)-1 {
			sb.WriteString(pad)
		}
	}
	return sb.String()
}
