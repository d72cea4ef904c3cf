// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clog_test is a test for clog package.
package clog_test

import (
	"context"
	"sync"
	"testing"

	"cloud.google.com/go/logging"
	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/hdrcost/o11y/clog"
)

func TestSpanLabels(t *testing.T) {
	ctx := context.Background()

	l := clog.FromContext(ctx)
	defer l.Close()
	if l == nil {
		t.Fatal("FromContext(background)=nil; want default logger")
	}

	ctx = clog.NewContext(ctx, clog.New(ctx))
	ctx = clog.NewSpan(ctx, map[string]string{"run": "r1"})
	cctx := clog.NewSpan(ctx, map[string]string{"file": "a.cpp"})

	got := clog.FromContext(cctx).Labels()
	want := map[string]string{"run": "r1", "file": "a.cpp"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("labels diff -want +got:\n%s", diff)
	}
	// parent is not modified.
	if diff := cmp.Diff(map[string]string{"run": "r1"}, clog.FromContext(ctx).Labels()); diff != "" {
		t.Errorf("parent labels diff -want +got:\n%s", diff)
	}
}

func TestFormatter(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var got []string
	logger := clog.New(ctx)
	logger.Formatter = func(e logging.Entry) string {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Labels["id"]+" "+e.Payload.(string))
		return e.Payload.(string)
	}
	ctx = clog.NewContext(ctx, logger)

	var wg sync.WaitGroup
	for _, id := range []string{"id1", "id2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx := clog.NewSpan(ctx, map[string]string{"id": id})
			clog.Infof(cctx, "info")
			clog.Warningf(cctx, "warning")
			clog.Errorf(cctx, "error")
		}()
	}
	wg.Wait()
	if len(got) != 6 {
		t.Errorf("formatted %d entries; want 6: %q", len(got), got)
	}
}
