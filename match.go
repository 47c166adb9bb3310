// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package segtrie

import (
	"strings"
)

type branch uint8

const (
	enterBranch branch = iota
	literalBranch
	singleBranch
	multiBranch
	doneBranch
)

// frame is a node on the traversal stack.
type frame struct {
	n *node
	// Number of input segments consumed to reach n.
	depth int
	// Length of the capture stack when n was entered.
	ncaps int
	// Next branch to try.
	next branch
}

// capture records the input segments [start, end) bound to the wildcard at template position index.
type capture struct {
	index int
	start int
	end   int
}

// matcher walks a tree snapshot. It is built for a single lookup and is not reused.
type matcher struct {
	tk       *tokenizer
	ids      map[TemplateID]*Template
	segments []string
	keys     []string
	caps     []capture
	results  []Result
	mode     Mode
}

// lookup returns the templates of the trie rooted at root that match the input segments.
//
// The trie is explored depth first with an explicit stack. At each node, branches are tried in a fixed
// order: the literal child equal to the current input segment, then the single wildcard child, then the
// multi wildcard child. Literal branches are exhausted before any wildcard branch is taken, so the first
// terminal node reached is the most specific match, and dead ends backtrack to the next branch.
//
// A multi wildcard node never has children, so taking that branch consumes all the remaining segments
// (possibly none) at once, and the only results it can yield are the templates terminating at that node.
func lookup(root *node, ids map[TemplateID]*Template, tk *tokenizer, segments []string, mode Mode) []Result {
	m := &matcher{
		tk:       tk,
		ids:      ids,
		segments: segments,
		keys:     segments,
		mode:     mode,
	}

	if tk.foldCase {
		m.keys = make([]string, len(segments))
		for i, seg := range segments {
			m.keys[i] = tk.key(seg)
		}
	}

	stack := make([]frame, 1, len(segments)+1)
	stack[0] = frame{n: root}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		n := f.n
		depth := f.depth

		switch f.next {
		case enterBranch:
			f.next = literalBranch
			if depth == len(segments) && n.isLeaf() {
				if m.collect(n) {
					return m.results
				}
			}
		case literalBranch:
			f.next = singleBranch
			if depth < len(segments) {
				if _, child := n.getStaticEdge(m.keys[depth]); child != nil {
					stack = append(stack, frame{n: child, depth: depth + 1, ncaps: len(m.caps)})
				}
			}
		case singleBranch:
			f.next = multiBranch
			if depth < len(segments) && n.single != nil {
				ncaps := len(m.caps)
				m.caps = append(m.caps, capture{index: depth, start: depth, end: depth + 1})
				stack = append(stack, frame{n: n.single, depth: depth + 1, ncaps: ncaps})
			}
		case multiBranch:
			f.next = doneBranch
			if n.multi != nil && n.multi.isLeaf() {
				m.caps = append(m.caps, capture{index: depth, start: depth, end: len(segments)})
				done := m.collect(n.multi)
				m.caps = m.caps[:len(m.caps)-1]
				if done {
					return m.results
				}
			}
		default:
			m.caps = m.caps[:f.ncaps]
			stack = stack[:len(stack)-1]
		}
	}

	return m.results
}

// collect appends a result for every template terminating at n, in ascending identifier order.
// It returns true when the lookup is complete.
func (m *matcher) collect(n *node) bool {
	for _, id := range n.ids {
		tpl, ok := m.ids[id]
		if !ok {
			panic("internal error: template " + id.String() + " not found in the index")
		}
		m.results = append(m.results, m.newResult(tpl))
		if m.mode == FirstBest {
			return true
		}
	}
	return false
}

func (m *matcher) newResult(tpl *Template) Result {
	res := Result{Template: tpl}
	if len(m.caps) == 0 {
		return res
	}

	res.Bindings = make(Bindings, len(m.caps))
	for i, c := range m.caps {
		var value string
		if c.end-c.start == 1 {
			value = m.segments[c.start]
		} else {
			value = strings.Join(m.segments[c.start:c.end], m.tk.delim)
		}
		res.Bindings[i] = Binding{
			Index: c.index,
			Name:  tpl.segments[c.index].Name,
			Value: value,
		}
	}
	return res
}
