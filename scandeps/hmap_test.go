// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"bytes"
	"encoding/binary"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// buildHeaderMap encodes m in *.hmap format.
// Each entry is split into prefix (dir + "/") and suffix (base name)
// as write_framework_hmap.py does.
func buildHeaderMap(t *testing.T, m map[string]string) []byte {
	t.Helper()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	strs := []byte{0}
	addStr := func(s string) uint32 {
		i := uint32(len(strs))
		strs = append(strs, s...)
		strs = append(strs, 0)
		return i
	}
	type bucket struct{ Key, Prefix, Suffix uint32 }
	// one spare empty bucket, as hash tables are not full.
	buckets := make([]bucket, len(keys)+1)
	for i, k := range keys {
		v := m[k]
		j := bytes.LastIndexByte([]byte(v), '/') + 1
		buckets[i] = bucket{Key: addStr(k), Prefix: addStr(v[:j]), Suffix: addStr(v[j:])}
	}

	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.WriteString("pamh")
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, uint16(0))
	binary.Write(&buf, le, uint32(hmapHeaderSize+12*len(buckets)))
	binary.Write(&buf, le, uint32(len(keys)*3))
	binary.Write(&buf, le, uint32(len(buckets)))
	binary.Write(&buf, le, uint32(0))
	for _, b := range buckets {
		binary.Write(&buf, le, b)
	}
	buf.Write(strs)
	return buf.Bytes()
}

func TestParseHeaderMap(t *testing.T) {
	want := map[string]string{
		"Foo/Foo.h": "/tmp/ios/fooFramework/Foo.h",
		"Foo/Bar.h": "/tmp/ios/fooFramework/Bar.h",
		"Foo.h":     "/tmp/ios/fooFramework/Foo.h",
	}
	got, err := ParseHeaderMap(buildHeaderMap(t, want))
	if err != nil {
		t.Fatalf("ParseHeaderMap=%v, %v; want nil err", got, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseHeaderMap -want +got:\n%s", diff)
	}
}

func TestParseHeaderMap_error(t *testing.T) {
	valid := buildHeaderMap(t, map[string]string{"Foo.h": "/tmp/Foo.h"})
	for _, tc := range []struct {
		name string
		buf  []byte
	}{
		{name: "empty"},
		{name: "magic", buf: []byte("hmap\x01\x00")},
		{name: "version", buf: append([]byte("pamh\x02\x00"), valid[6:]...)},
		{name: "short", buf: valid[:10]},
		{name: "truncated buckets", buf: valid[:hmapHeaderSize+4]},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseHeaderMap(tc.buf)
			if err == nil {
				t.Errorf("ParseHeaderMap=%v, nil; want err", got)
			}
		})
	}
}
