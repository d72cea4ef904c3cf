// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"go.chromium.org/infra/build/hdrcost/o11y/clog"
)

// Document is an exported analysis result.
type Document struct {
	Summary *Summary      `json:"summary"`
	Files   []*FileReport `json:"files"`
}

// Save saves doc in fname as JSON. Summary is truncated to top entries.
// If fname ends with ".zst", it is compressed by zstd.
func Save(ctx context.Context, fname string, doc *Document) error {
	out := *doc
	if out.Summary != nil {
		out.Summary = out.Summary.Top(TopFiles, TopOpportunities)
	}
	var buf bytes.Buffer
	var w io.Writer = &buf
	var zw *zstd.Encoder
	if strings.HasSuffix(fname, ".zst") {
		var err error
		zw, err = zstd.NewWriter(&buf)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w = zw
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to compress report: %w", err)
		}
	}
	if err := os.WriteFile(fname, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	clog.Infof(ctx, "saved report in %s: %d bytes", fname, buf.Len())
	return nil
}

// Load loads a document saved by Save.
func Load(ctx context.Context, fname string) (*Document, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(fname, ".zst") {
		zr, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer zr.Close()
		b, err = zr.DecodeAll(b, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", fname, err)
		}
	}
	doc := &Document{}
	if err := json.Unmarshal(b, doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fname, err)
	}
	clog.Infof(ctx, "loaded report %s: %d files", fname, len(doc.Files))
	return doc, nil
}
