// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Header maps (*.hmap) are produced by Xcode-style builds and passed as
// include dirs. They map an include name (e.g. "Foo/Foo.h") to a path.
//
// layout (little endian):
//
//	magic            [4]byte "pamh"
//	version          uint16  1
//	reserved         uint16
//	string_offset    uint32
//	string_count     uint32
//	hash_capacity    uint32
//	max_value_length uint32
//	buckets          [hash_capacity]{key, prefix, suffix uint32}
//	strings          NUL terminated, at string_offset
//
// string index 0 means empty.

const hmapHeaderSize = 24

var hmapMagic = []byte("pamh")

type hmapReader struct {
	data []byte
	pos  int
	strs []byte
	err  error
}

func (r *hmapReader) next(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("short hmap for %s at %d", field, r.pos)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *hmapReader) u16(field string) uint16 {
	b := r.next(2, field)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *hmapReader) u32(field string) uint32 {
	b := r.next(4, field)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *hmapReader) str(field string) string {
	i := r.u32(field)
	if r.err != nil || i == 0 {
		return ""
	}
	if int(i) >= len(r.strs) {
		r.err = fmt.Errorf("out of index %s=%d", field, i)
		return ""
	}
	v := r.strs[i:]
	e := bytes.IndexByte(v, 0)
	if e < 0 {
		r.err = fmt.Errorf("unterminated %s=%d", field, i)
		return ""
	}
	return string(v[:e])
}

// ParseHeaderMap parses *.hmap file contents into include name -> path.
func ParseHeaderMap(buf []byte) (map[string]string, error) {
	if !bytes.HasPrefix(buf, hmapMagic) {
		return nil, errors.New("wrong hmap magic")
	}
	r := &hmapReader{data: buf, pos: len(hmapMagic)}
	if v := r.u16("version"); r.err == nil && v != 1 {
		return nil, fmt.Errorf("unknown hmap version %d", v)
	}
	r.u16("reserved")
	stringOffset := r.u32("string_offset")
	r.u32("string_count")
	hashCapacity := r.u32("hash_capacity")
	r.u32("max_value_length")
	if r.err != nil {
		return nil, fmt.Errorf("failed to parse hmap header: %w", r.err)
	}
	if len(buf) < int(stringOffset) {
		return nil, fmt.Errorf("invalid string_offset=%d hmap size=%d", stringOffset, len(buf))
	}
	r.strs = buf[stringOffset:]
	m := make(map[string]string)
	for i := 0; i < int(hashCapacity); i++ {
		key := r.str("key")
		prefix := r.str("prefix")
		suffix := r.str("suffix")
		if r.err != nil {
			return nil, fmt.Errorf("failed to get hmap bucket:%d: %w", i, r.err)
		}
		if key == "" {
			continue
		}
		m[key] = prefix + suffix
	}
	return m, nil
}
