// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package segtrie

import (
	"maps"
)

// tree is an immutable snapshot of the registry. The immutability means that it is safe to concurrently
// read from a tree without any coordination.
type tree struct {
	root     *node
	patterns map[string]*Template
	ids      map[TemplateID]*Template
	nextID   TemplateID
}

func newTree() *tree {
	return &tree{
		root:     new(node),
		patterns: make(map[string]*Template),
		ids:      make(map[TemplateID]*Template),
	}
}

func (t *tree) txn(tk *tokenizer) *tXn {
	return &tXn{
		tk:       tk,
		root:     t.root,
		patterns: t.patterns,
		ids:      t.ids,
		nextID:   t.nextID,
	}
}

// tXn is a transaction on the tree. This transaction is applied atomically and returns
// a new tree when committed. A transaction is not thread safe, and should only be used
// by a single goroutine.
type tXn struct {
	tk       *tokenizer
	root     *node
	patterns map[string]*Template
	ids      map[TemplateID]*Template
	// Nodes created or cloned by this transaction, which can be mutated in place.
	writable map[*node]struct{}
	nextID   TemplateID
	// Whether patterns and ids are private copies.
	cloned bool
}

func (t *tXn) commit() *tree {
	nt := &tree{
		root:     t.root,
		patterns: t.patterns,
		ids:      t.ids,
		nextID:   t.nextID,
	}
	// Everything is now shared with the published tree.
	t.writable = nil
	t.cloned = false
	return nt
}

// insert registers a new template in the transaction and allocates its identifier.
// The template must not be already registered.
func (t *tXn) insert(tpl *Template) {
	t.nextID++
	tpl.id = t.nextID
	t.root = t.insertSegments(t.root, tpl.segments, tpl.id)
	t.writeIndex()
	t.patterns[tpl.pattern] = tpl
	t.ids[tpl.id] = tpl
}

// replace swaps an already registered template for tpl, which has the same pattern and identifier.
// The trie is left unchanged.
func (t *tXn) replace(tpl *Template) {
	t.writeIndex()
	t.patterns[tpl.pattern] = tpl
	t.ids[tpl.id] = tpl
}

// remove unregisters tpl and prunes the branches left empty. The template must be registered.
func (t *tXn) remove(tpl *Template) {
	newRoot, ok := t.deleteSegments(t.root, tpl.segments, tpl.id)
	if !ok {
		// The index and the trie must always agree.
		panic("internal error: registered template not found in the trie")
	}
	t.root = newRoot
	t.writeIndex()
	delete(t.patterns, tpl.pattern)
	delete(t.ids, tpl.id)
}

// truncate removes every template. Identifiers are not reused afterward.
func (t *tXn) truncate() {
	t.root = t.newNode("")
	t.patterns = make(map[string]*Template)
	t.ids = make(map[TemplateID]*Template)
	t.cloned = true
}

// insertSegments performs a recursive copy-on-write insertion of a template into the tree.
// It uses path copying to create a new tree version: only nodes along the path from root
// to the terminal node are cloned, while unmodified subtrees are shared with the previous
// version. This enables lock-free concurrent reads against the old root while the new
// version is being constructed.
func (t *tXn) insertSegments(n *node, segments []Segment, id TemplateID) *node {
	if len(segments) == 0 {
		nc := t.writeNode(n)
		nc.addID(id)
		return nc
	}

	seg := segments[0]
	remaining := segments[1:]

	switch seg.Kind {
	case Literal:
		key := t.tk.key(seg.Text)
		idx, child := n.getStaticEdge(key)
		if child == nil {
			newChild := t.insertSegments(t.newNode(key), remaining, id)
			nc := t.writeNode(n)
			nc.addStaticEdge(newChild)
			return nc
		}

		newChild := t.insertSegments(child, remaining, id)
		nc := t.writeNode(n)
		nc.statics[idx] = newChild
		return nc
	case SingleWildcard:
		child := n.single
		if child == nil {
			child = t.newNode("")
		}
		newChild := t.insertSegments(child, remaining, id)
		nc := t.writeNode(n)
		nc.single = newChild
		return nc
	case MultiWildcard:
		if len(remaining) > 0 {
			panic("internal error: multi wildcard is not the last segment")
		}
		child := n.multi
		if child == nil {
			child = t.newNode("")
		}
		newChild := t.insertSegments(child, remaining, id)
		nc := t.writeNode(n)
		nc.multi = newChild
		return nc
	default:
		panic("internal error: unknown segment kind")
	}
}

// deleteSegments performs a recursive copy-on-write deletion of a template from the tree.
// The deletion proceeds in two phases:
//  1. Descend: traverse the tree (read-only) to find the terminal node
//  2. Ascend: clone and modify nodes along the path during stack unwinding,
//     pruning nodes left without children and template
//
// It returns the new version of n and true if the template was found.
func (t *tXn) deleteSegments(n *node, segments []Segment, id TemplateID) (*node, bool) {
	if len(segments) == 0 {
		if !n.hasID(id) {
			return nil, false
		}
		nc := t.writeNode(n)
		nc.delID(id)
		return nc, true
	}

	seg := segments[0]
	remaining := segments[1:]

	switch seg.Kind {
	case Literal:
		key := t.tk.key(seg.Text)
		idx, child := n.getStaticEdge(key)
		if child == nil {
			return nil, false
		}
		newChild, ok := t.deleteSegments(child, remaining, id)
		if !ok {
			return nil, false
		}
		nc := t.writeNode(n)
		if newChild.isEmpty() {
			nc.delStaticEdge(key)
		} else {
			nc.statics[idx] = newChild
		}
		return nc, true
	case SingleWildcard:
		if n.single == nil {
			return nil, false
		}
		newChild, ok := t.deleteSegments(n.single, remaining, id)
		if !ok {
			return nil, false
		}
		nc := t.writeNode(n)
		nc.single = newChild
		if newChild.isEmpty() {
			nc.single = nil
		}
		return nc, true
	case MultiWildcard:
		if n.multi == nil {
			return nil, false
		}
		newChild, ok := t.deleteSegments(n.multi, remaining, id)
		if !ok {
			return nil, false
		}
		nc := t.writeNode(n)
		nc.multi = newChild
		if newChild.isEmpty() {
			nc.multi = nil
		}
		return nc, true
	default:
		panic("internal error: unknown segment kind")
	}
}

// newNode returns a node owned by this transaction.
func (t *tXn) newNode(key string) *node {
	n := &node{key: key}
	t.markWritable(n)
	return n
}

// writeNode returns a version of n that can be mutated in place: n itself if it was created
// or already cloned by this transaction, a clone otherwise.
func (t *tXn) writeNode(n *node) *node {
	if _, ok := t.writable[n]; ok {
		return n
	}
	nc := n.clone()
	t.markWritable(nc)
	return nc
}

func (t *tXn) markWritable(n *node) {
	if t.writable == nil {
		t.writable = make(map[*node]struct{})
	}
	t.writable[n] = struct{}{}
}

// writeIndex makes the template indexes private to this transaction before the first write.
func (t *tXn) writeIndex() {
	if t.cloned {
		return
	}
	t.patterns = maps.Clone(t.patterns)
	t.ids = maps.Clone(t.ids)
	if t.patterns == nil {
		t.patterns = make(map[string]*Template)
	}
	if t.ids == nil {
		t.ids = make(map[TemplateID]*Template)
	}
	t.cloned = true
}
