// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package segtrie

import (
	"iter"
	"maps"
	"slices"
	"strconv"
)

// TemplateID identifies a registered template. Identifiers are allocated in insertion order, starting at 1,
// and are never reused by the same [Registry].
type TemplateID uint64

func (id TemplateID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Template represents an immutable registered template.
type Template struct {
	meta     map[string]string
	pattern  string
	segments []Segment
	id       TemplateID
}

// ID returns the template identifier.
func (t *Template) ID() TemplateID {
	return t.id
}

// Pattern returns the template string as registered.
func (t *Template) Pattern() string {
	return t.pattern
}

// Segments returns an iterator over the template segments, in order.
func (t *Template) Segments() iter.Seq2[int, Segment] {
	return func(yield func(int, Segment) bool) {
		for i, seg := range t.segments {
			if !yield(i, seg) {
				return
			}
		}
	}
}

// Len returns the number of segments of the template.
func (t *Template) Len() int {
	return len(t.segments)
}

// Meta returns the annotation associated with key, and whether it exists.
func (t *Template) Meta(key string) (string, bool) {
	v, ok := t.meta[key]
	return v, ok
}

// MetaKeys returns an iterator over the annotation keys, in lexicographical order.
func (t *Template) MetaKeys() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(t.meta)))
}

func (t *Template) String() string {
	return t.pattern
}
