// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package iometrics

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStats(t *testing.T) {
	m := New("test")
	m.OpsDone(nil)
	m.OpsDone(errors.New("not exist"))
	m.ReadDone(10, nil)
	m.ReadDone(0, errors.New("permission denied"))
	m.WriteDone(5, nil)

	want := Stats{
		Ops:     2,
		OpsErrs: 1,
		ROps:    2,
		RBytes:  10,
		RErrs:   1,
		WOps:    1,
		WBytes:  5,
	}
	if diff := cmp.Diff(want, m.Stats()); diff != "" {
		t.Errorf("Stats diff -want +got:\n%s", diff)
	}

	var nilm *IOMetrics
	nilm.ReadDone(1, nil)
	if got := nilm.Stats(); got != (Stats{}) {
		t.Errorf("nil Stats=%v; want zero", got)
	}
}
