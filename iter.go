// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package segtrie

import (
	"cmp"
	"errors"
	"iter"
	"maps"
	"slices"
)

// SkipAll is used as a return value from [WalkFunc] to indicate that all remaining templates are to be skipped.
// It is never returned as an error by [Registry.Walk].
var SkipAll = errors.New("skip everything and stop the walk")

// WalkFunc is the type of the function called by [Registry.Walk] for each registered template.
type WalkFunc func(tpl *Template) error

func newIterator(n *node) *iterator {
	return &iterator{
		stack: []stack{{edges: []*node{n}}},
	}
}

// iterator walks a trie depth first, visiting the children of a node in match priority order: literal
// children by key, then the single wildcard child, then the multi wildcard child.
type iterator struct {
	stack   []stack
	current *node
}

type stack struct {
	edges []*node
}

func (it *iterator) node() *node {
	return it.current
}

func (it *iterator) hasNextLeaf() bool {
	for it.hasNext() {
		if it.current.isLeaf() {
			return true
		}
	}
	return false
}

func (it *iterator) hasNext() bool {
	if len(it.stack) > 0 {
		n := len(it.stack)
		last := it.stack[n-1]
		elem := last.edges[0]

		if len(last.edges) > 1 {
			it.stack[n-1].edges = last.edges[1:]
		} else {
			it.stack = it.stack[:n-1]
		}

		if edges := elem.edges(); len(edges) > 0 {
			it.stack = append(it.stack, stack{edges})
		}

		it.current = elem
		return true
	}

	it.current = nil
	return false
}

// walk calls fn for every template of the trie rooted at root, in trie order. Templates terminating
// on the same node are visited in identifier order.
func walk(root *node, ids map[TemplateID]*Template, fn WalkFunc) error {
	it := newIterator(root)
	for it.hasNextLeaf() {
		for _, id := range it.node().ids {
			if err := fn(ids[id]); err != nil {
				if errors.Is(err, SkipAll) {
					return nil
				}
				return err
			}
		}
	}
	return nil
}

// templatesOf returns an iterator over a point-in-time copy of ids, in identifier order.
func templatesOf(ids map[TemplateID]*Template) iter.Seq[*Template] {
	templates := slices.SortedFunc(maps.Values(ids), func(a, b *Template) int {
		return cmp.Compare(a.id, b.id)
	})
	return slices.Values(templates)
}
