// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cost

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"go.chromium.org/infra/build/hdrcost/osfs"
	"go.chromium.org/infra/build/hdrcost/scandeps"
)

func TestCheckText(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		inc  scandeps.Inclusion
		want Usage
	}{
		{
			name: "unused_system",
			src:  "#include <iostream>\nint main() { return 0; }\n",
			inc:  scandeps.Inclusion{Header: "iostream", System: true},
			want: Usage{Verdict: VerdictUnused},
		},
		{
			name: "std_and_symbol",
			src:  "#include <iostream>\nint main() { std::cout << 1; }\n",
			inc:  scandeps.Inclusion{Header: "iostream", System: true},
			want: Usage{Verdict: VerdictUsed, Used: true, Confidence: 2.0 / 3},
		},
		{
			name: "all_signals",
			src:  "#include <vector>\nstd::vector<int> v;\nvoid f() { v.push_back(1); }\n",
			inc:  scandeps.Inclusion{Header: "vector", System: true},
			want: Usage{Verdict: VerdictUsed, Used: true, Confidence: 1},
		},
		{
			name: "base_name_case_insensitive",
			src:  "#include \"util/Logger.h\"\nLOGGER_INIT();\n",
			inc:  scandeps.Inclusion{Header: "util/Logger.h"},
			want: Usage{Verdict: VerdictUsed, Used: true, Confidence: 1.0 / 3},
		},
		{
			name: "std_only_for_system",
			src:  "void f() { std::sort(x); }\n",
			inc:  scandeps.Inclusion{Header: "vector_util.h"},
			want: Usage{Verdict: VerdictUnused},
		},
		{
			name: "first_symbol_pattern",
			src:  "std::unordered_map<int, int> m;\n",
			inc:  scandeps.Inclusion{Header: "unordered_map", System: true},
			want: Usage{Verdict: VerdictUsed, Used: true, Confidence: 1},
		},
		{
			name: "symbol_case_sensitive",
			src:  "void Join();\n",
			inc:  scandeps.Inclusion{Header: "thread", System: true},
			want: Usage{Verdict: VerdictUnused},
		},
		{
			name: "symbol_only",
			src:  "void f() { t.join(); }\n",
			inc:  scandeps.Inclusion{Header: "thread", System: true},
			want: Usage{Verdict: VerdictUsed, Used: true, Confidence: 1.0 / 3},
		},
		{
			name: "include_next_stripped",
			src:  "#include_next <limits.h>\n",
			inc:  scandeps.Inclusion{Header: "limits.h", System: true},
			want: Usage{Verdict: VerdictUnused},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckText([]byte(tc.src), tc.inc)
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("CheckText diff -want +got:\n%s", diff)
			}
		})
	}
}

func TestStem(t *testing.T) {
	for _, tc := range []struct {
		header, want string
	}{
		{"vector", "vector"},
		{"b.h", "b"},
		{"boost/asio.hpp", "asio"},
		{"foo.pb.h", "foo.pb"},
		{".hidden", ".hidden"},
	} {
		if got := stem(tc.header); got != tc.want {
			t.Errorf("stem(%q)=%q; want %q", tc.header, got, tc.want)
		}
	}
}

func TestUsageChecker(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fname := filepath.Join(dir, "a.cpp")
	if err := os.WriteFile(fname, []byte("#include <iostream>\n#include \"b.h\"\nB b;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	u, err := NewUsageChecker(osfs.New("test"), 16)
	if err != nil {
		t.Fatal(err)
	}

	iostream := scandeps.Inclusion{Header: "iostream", Line: 1, System: true}
	bh := scandeps.Inclusion{Header: "b.h", Line: 2}
	if got := u.Check(ctx, fname, iostream); got.Used || got.Verdict != VerdictUnused {
		t.Errorf("Check(%q, %v)=%+v; want unused", fname, iostream, got)
	}
	// source is cached.
	if err := os.Remove(fname); err != nil {
		t.Fatal(err)
	}
	if got := u.Check(ctx, fname, bh); !got.Used || got.Verdict != VerdictUsed {
		t.Errorf("Check(%q, %v)=%+v; want used", fname, bh, got)
	}

	missing := filepath.Join(dir, "missing.cpp")
	want := Usage{Verdict: VerdictAssumedUsed, Used: true}
	if diff := cmp.Diff(want, u.Check(ctx, missing, iostream)); diff != "" {
		t.Errorf("Check(%q) diff -want +got:\n%s", missing, diff)
	}
}

func TestVerdictText(t *testing.T) {
	for _, v := range []Verdict{VerdictUnused, VerdictUsed, VerdictAssumedUsed} {
		buf, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		var got Verdict
		if err := json.Unmarshal(buf, &got); err != nil || got != v {
			t.Errorf("json round trip %s=%s, %v; want %s", buf, got, err, v)
		}
	}
	var v Verdict
	if err := v.UnmarshalText([]byte("maybe")); err == nil {
		t.Errorf("UnmarshalText(maybe)=nil; want err")
	}
}
