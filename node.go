// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package segtrie

import (
	"slices"
	"sort"
	"strings"
)

type node struct {
	// Literal key of the edge leading to this node. Empty for the root and wildcard nodes.
	key string

	// Literal child nodes sorted in ascending order by key.
	statics []*node

	// Single wildcard child, if any.
	single *node

	// Multi wildcard child, if any. A multi wildcard node never has children.
	multi *node

	// Identifiers of the templates terminating at this node, sorted in ascending order.
	ids []TemplateID
}

func (n *node) isLeaf() bool {
	return len(n.ids) > 0
}

// isEmpty reports whether the node can be pruned.
func (n *node) isEmpty() bool {
	return len(n.ids) == 0 && len(n.statics) == 0 && n.single == nil && n.multi == nil
}

func (n *node) getStaticEdge(key string) (int, *node) {
	num := len(n.statics)
	idx := sort.Search(num, func(i int) bool { return n.statics[i].key >= key })
	if idx < num && n.statics[idx].key == key {
		return idx, n.statics[idx]
	}
	return -1, nil
}

func (n *node) addStaticEdge(child *node) {
	num := len(n.statics)
	idx := sort.Search(num, func(i int) bool {
		return n.statics[i].key >= child.key
	})
	n.statics = append(n.statics, child)
	if idx != num {
		copy(n.statics[idx+1:], n.statics[idx:num])
		n.statics[idx] = child
	}
}

func (n *node) delStaticEdge(key string) {
	idx, _ := n.getStaticEdge(key)
	if idx < 0 {
		panic("internal error: deleting missing edge")
	}
	n.statics = slices.Delete(n.statics, idx, idx+1)
}

func (n *node) hasID(id TemplateID) bool {
	_, found := slices.BinarySearch(n.ids, id)
	return found
}

func (n *node) addID(id TemplateID) bool {
	idx, found := slices.BinarySearch(n.ids, id)
	if found {
		return false
	}
	n.ids = slices.Insert(n.ids, idx, id)
	return true
}

func (n *node) delID(id TemplateID) bool {
	idx, found := slices.BinarySearch(n.ids, id)
	if !found {
		return false
	}
	n.ids = slices.Delete(n.ids, idx, idx+1)
	return true
}

// clone returns a shallow copy of n. Slices are copied, so the clone can be mutated
// without affecting n, while child nodes are shared.
func (n *node) clone() *node {
	nc := &node{
		key:    n.key,
		single: n.single,
		multi:  n.multi,
	}
	if len(n.statics) != 0 {
		nc.statics = make([]*node, len(n.statics))
		copy(nc.statics, n.statics)
	}
	if len(n.ids) != 0 {
		nc.ids = make([]TemplateID, len(n.ids))
		copy(nc.ids, n.ids)
	}
	return nc
}

// edges returns the children of n in match priority order.
func (n *node) edges() []*node {
	if n.single == nil && n.multi == nil {
		return n.statics
	}
	edges := make([]*node, 0, len(n.statics)+2)
	edges = append(edges, n.statics...)
	if n.single != nil {
		edges = append(edges, n.single)
	}
	if n.multi != nil {
		edges = append(edges, n.multi)
	}
	return edges
}

// count returns the number of nodes in the subtree rooted at n, n included.
func (n *node) count() int {
	var total int
	it := newIterator(n)
	for it.hasNext() {
		total++
	}
	return total
}

func (n *node) string(sb *strings.Builder, label string, space int, tk *tokenizer) {
	sb.WriteString(strings.Repeat(" ", space))
	sb.WriteString(label)
	if n.isLeaf() {
		sb.WriteString(" [")
		for i, id := range n.ids {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(id.String())
		}
		sb.WriteByte(']')
	}
	sb.WriteByte('\n')

	for _, child := range n.statics {
		child.string(sb, escapeLiteral(child.key, tk), space+2, tk)
	}
	if n.single != nil {
		n.single.string(sb, tk.single, space+2, tk)
	}
	if n.multi != nil {
		n.multi.string(sb, tk.multi, space+2, tk)
	}
}

// escapeLiteral renders a literal key so that it would be parsed back as the same literal.
func escapeLiteral(key string, tk *tokenizer) string {
	if key == "" {
		return `""`
	}
	if seg, _ := tk.classify(key); seg.Kind != Literal || key[0] == escapeChar {
		return string(escapeChar) + key
	}
	return key
}
