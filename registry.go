// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

// Package segtrie matches delimiter-separated strings against a set of templates with single segment (*) and
// trailing multi segment (**) wildcards, indexed in a segment trie. Matches are ranked by specificity: at each
// segment, a literal is preferred over a single wildcard, which is preferred over a multi wildcard.
package segtrie

import (
	"iter"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Registry is a set of templates indexed in a segment trie. It determines which registered templates match
// a concrete input and what each wildcard segment bound.
//
// Lookups never block: they run on an immutable snapshot of the trie, and are safe for concurrent use by
// multiple goroutine and while mutations are ongoing. Mutations are serialized, performed on a private copy
// of the modified trie branches, and published atomically.
type Registry struct {
	tree   atomic.Pointer[tree]
	logger *slog.Logger
	tk     tokenizer
	mu     sync.Mutex
}

// RegistryInfo hold information on the configured options.
type RegistryInfo struct {
	Delimiter      byte
	SingleWildcard string
	MultiWildcard  string
	EmptySegments  EmptySegmentOption
	MaxSegments    int
	CaseSensitive  bool
}

// New returns a ready to use [Registry].
func New(opts ...Option) (*Registry, error) {
	r := new(Registry)
	r.tk = newTokenizer()
	r.logger = slog.New(slog.DiscardHandler)

	for _, opt := range opts {
		if err := opt.applyRegistry(sealedOption{registry: r}); err != nil {
			return nil, err
		}
	}

	if err := validateTokens(r.tk.delim, r.tk.single, r.tk.multi); err != nil {
		return nil, err
	}

	r.tree.Store(newTree())
	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Registry {
	r, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Insert registers a template and returns its identifier. Inserting an already registered template returns
// the same identifier without any structural change. If the template is invalid, Insert returns an error
// that matches [ErrMalformedTemplate], and the registry is left unchanged.
//
// Templates are split on the delimiter. A segment equal to the single wildcard token ("*" by default) matches
// exactly one input segment, and a segment equal to the multi wildcard token ("**" by default) matches zero
// or more trailing input segments. Wildcards can be named by appending {name} to the token, e.g. "*{id}".
// The multi wildcard is only allowed as the last segment. A segment starting with a backslash is a literal
// whose text is the segment without that backslash, e.g. "\*" is the literal "*".
//
// This function is safe for concurrent use by multiple goroutine.
func (r *Registry) Insert(pattern string, opts ...TemplateOption) (TemplateID, error) {
	txn := r.Txn(true)
	defer txn.Abort()
	id, err := txn.Insert(pattern, opts...)
	if err != nil {
		return 0, err
	}
	txn.Commit()
	return id, nil
}

// MustInsert is like [Registry.Insert] but panics on error.
func (r *Registry) MustInsert(pattern string, opts ...TemplateOption) TemplateID {
	id, err := r.Insert(pattern, opts...)
	if err != nil {
		panic(err)
	}
	return id
}

// Remove unregisters the template registered with the exact same pattern, and prunes the trie branches
// left empty. It returns false if the template is not registered. This function is safe for concurrent
// use by multiple goroutine.
func (r *Registry) Remove(pattern string) bool {
	txn := r.Txn(true)
	defer txn.Abort()
	ok, _ := txn.Remove(pattern)
	if ok {
		txn.Commit()
	}
	return ok
}

// RemoveID is like [Registry.Remove] but locates the template by identifier.
func (r *Registry) RemoveID(id TemplateID) bool {
	txn := r.Txn(true)
	defer txn.Abort()
	ok, _ := txn.RemoveID(id)
	if ok {
		txn.Commit()
	}
	return ok
}

// Reset removes every template. Identifiers are not reused by later insertions.
func (r *Registry) Reset() {
	txn := r.Txn(true)
	defer txn.Abort()
	_ = txn.Truncate()
	txn.Commit()
}

// Match returns the templates matching input. Every input segment is a literal: wildcard tokens and
// backslashes have no special meaning in an input.
//
// With [FirstBest], Match returns at most one result, the most specific match: at each segment, a literal
// is preferred over a single wildcard, which is preferred over a multi wildcard. When several templates end
// on the same trie node (e.g. "a/*" and "a/*{name}"), the one registered first wins. With [All], Match returns
// every match, most specific first.
//
// No match is not an error and returns an empty result. Match returns an error that matches
// [ErrMalformedInput] if the input violates the empty segment policy or the segment limit. This function is
// safe for concurrent use by multiple goroutine and while mutations are ongoing.
func (r *Registry) Match(input string, mode Mode) ([]Result, error) {
	segments, err := r.tk.parseInput(input)
	if err != nil {
		return nil, err
	}
	t := r.tree.Load()
	return lookup(t.root, t.ids, &r.tk, segments, mode), nil
}

// MatchFirst returns the most specific template matching input, and true if there is one.
// See [Registry.Match].
func (r *Registry) MatchFirst(input string) (Result, bool, error) {
	results, err := r.Match(input, FirstBest)
	if err != nil || len(results) == 0 {
		return Result{}, false, err
	}
	return results[0], true, nil
}

// Parse validates pattern and returns its segments, without registering it.
func (r *Registry) Parse(pattern string) ([]Segment, error) {
	return r.tk.parseTemplate(pattern)
}

// Size returns the number of registered templates.
func (r *Registry) Size() int {
	return len(r.tree.Load().patterns)
}

// Has reports whether a template with the exact same pattern is registered.
func (r *Registry) Has(pattern string) bool {
	_, ok := r.tree.Load().patterns[pattern]
	return ok
}

// Template returns the registered template with the given identifier.
func (r *Registry) Template(id TemplateID) (*Template, bool) {
	tpl, ok := r.tree.Load().ids[id]
	return tpl, ok
}

// Templates returns an iterator over the registered templates, in identifier order. It works on a point-in-time
// snapshot of the registry and does not observe subsequent writes.
func (r *Registry) Templates() iter.Seq[*Template] {
	return templatesOf(r.tree.Load().ids)
}

// Walk calls fn for each registered template, in match priority order: templates sharing a prefix are visited
// together, literal segments before single wildcards, and single wildcards before multi wildcards. If fn returns
// [SkipAll], the walk stops without error. Any other error stops the walk and is returned by Walk. It works on a
// point-in-time snapshot of the registry and does not observe subsequent writes.
func (r *Registry) Walk(fn WalkFunc) error {
	t := r.tree.Load()
	return walk(t.root, t.ids, fn)
}

// NodeCount returns the number of nodes in the trie, root included.
func (r *Registry) NodeCount() int {
	return r.tree.Load().root.count()
}

// Info returns information on the configured options.
func (r *Registry) Info() RegistryInfo {
	return RegistryInfo{
		Delimiter:      r.tk.delim[0],
		SingleWildcard: r.tk.single,
		MultiWildcard:  r.tk.multi,
		EmptySegments:  r.tk.empty,
		MaxSegments:    r.tk.maxSegments,
		CaseSensitive:  !r.tk.foldCase,
	}
}

// String returns a human-readable dump of the trie. Each line is an edge, with the identifiers of the templates
// terminating on it between brackets.
func (r *Registry) String() string {
	sb := new(strings.Builder)
	r.tree.Load().root.string(sb, "root", 0, &r.tk)
	return sb.String()
}

// Txn creates an unmanaged transaction. A write transaction holds the registry write lock until it is committed
// or aborted, so there is at most one write transaction at a time. Read transactions never block. The caller
// must always call [Txn.Abort] at the end. See also [Registry.Updates] and [Registry.View] for managed
// transactions.
func (r *Registry) Txn(write bool) *Txn {
	if write {
		r.mu.Lock()
	}

	return &Txn{
		r:       r,
		write:   write,
		rootTxn: r.tree.Load().txn(&r.tk),
	}
}

// Updates executes a function within the context of a read-write managed transaction. If no error is returned from the
// function then the transaction is committed. If an error is returned then the entire transaction is aborted.
// Updates returns any error returned by fn. This function is safe for concurrent use by multiple goroutine.
// However [Txn] itself is NOT tread-safe.
func (r *Registry) Updates(fn func(txn *Txn) error) error {
	txn := r.Txn(true)
	defer func() {
		if p := recover(); p != nil {
			txn.Abort()
			panic(p)
		}
		txn.Abort()
	}()
	if err := fn(txn); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// View executes a function within the context of a read-only managed transaction. View returns any error returned
// by fn. This function is safe for concurrent use by multiple goroutine and while mutations are ongoing.
// However [Txn] itself is NOT tread-safe.
func (r *Registry) View(fn func(txn *Txn) error) error {
	txn := r.Txn(false)
	defer func() {
		if p := recover(); p != nil {
			txn.Abort()
			panic(p)
		}
		txn.Abort()
	}()
	return fn(txn)
}
