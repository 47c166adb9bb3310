// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package segtrie

import (
	"context"
	"iter"
	"log/slog"
)

// Txn is a read or write transaction on the registry. A write transaction works on a private copy of the
// registry: its changes are visible to its own reads immediately, and to everyone else only once committed.
// A read transaction sees a consistent snapshot of the registry for its whole lifetime.
//
// A Txn is NOT safe for concurrent use. Abort must always be called at the end of the transaction,
// calling Abort after Commit is a no-op.
type Txn struct {
	r       *Registry
	rootTxn *tXn
	write   bool
}

// Insert registers a template and returns its identifier. Inserting an already registered template returns
// the existing identifier. If [TemplateOption] are provided, the registered template is replaced by a new one
// with the same identifier and the new options. If the template is invalid, Insert returns an error that
// matches [ErrMalformedTemplate] and leaves the transaction unchanged. Insert returns [ErrReadOnlyTxn] on a
// read-only transaction and [ErrSettledTxn] after the transaction is committed or aborted.
func (txn *Txn) Insert(pattern string, opts ...TemplateOption) (TemplateID, error) {
	if txn.rootTxn == nil {
		return 0, ErrSettledTxn
	}
	if !txn.write {
		return 0, ErrReadOnlyTxn
	}

	segments, err := txn.r.tk.parseTemplate(pattern)
	if err != nil {
		return 0, err
	}

	tpl := &Template{
		pattern:  pattern,
		segments: segments,
	}
	for _, opt := range opts {
		if err := opt.applyTemplate(sealedOption{registry: txn.r, template: tpl}); err != nil {
			return 0, err
		}
	}

	if existing, ok := txn.rootTxn.patterns[pattern]; ok {
		if len(opts) == 0 {
			return existing.id, nil
		}
		tpl.id = existing.id
		txn.rootTxn.replace(tpl)
		txn.r.log(slog.LevelDebug, "template updated", tpl)
		return tpl.id, nil
	}

	txn.rootTxn.insert(tpl)
	txn.r.log(slog.LevelDebug, "template inserted", tpl)
	return tpl.id, nil
}

// Remove unregisters the template and prunes the trie branches left empty. It returns false if the template
// is not registered, including when the pattern is not a valid template.
func (txn *Txn) Remove(pattern string) (bool, error) {
	if txn.rootTxn == nil {
		return false, ErrSettledTxn
	}
	if !txn.write {
		return false, ErrReadOnlyTxn
	}

	tpl, ok := txn.rootTxn.patterns[pattern]
	if !ok {
		return false, nil
	}
	txn.rootTxn.remove(tpl)
	txn.r.log(slog.LevelDebug, "template removed", tpl)
	return true, nil
}

// RemoveID is like [Txn.Remove] but locates the template by identifier.
func (txn *Txn) RemoveID(id TemplateID) (bool, error) {
	if txn.rootTxn == nil {
		return false, ErrSettledTxn
	}
	if !txn.write {
		return false, ErrReadOnlyTxn
	}

	tpl, ok := txn.rootTxn.ids[id]
	if !ok {
		return false, nil
	}
	txn.rootTxn.remove(tpl)
	txn.r.log(slog.LevelDebug, "template removed", tpl)
	return true, nil
}

// Truncate removes every template. Identifiers are not reused by later insertions.
func (txn *Txn) Truncate() error {
	if txn.rootTxn == nil {
		return ErrSettledTxn
	}
	if !txn.write {
		return ErrReadOnlyTxn
	}
	txn.rootTxn.truncate()
	return nil
}

// Match returns the templates matching input, as seen by this transaction. See [Registry.Match].
func (txn *Txn) Match(input string, mode Mode) ([]Result, error) {
	if txn.rootTxn == nil {
		return nil, ErrSettledTxn
	}

	segments, err := txn.r.tk.parseInput(input)
	if err != nil {
		return nil, err
	}
	return lookup(txn.rootTxn.root, txn.rootTxn.ids, &txn.r.tk, segments, mode), nil
}

// Has reports whether pattern is registered.
func (txn *Txn) Has(pattern string) bool {
	if txn.rootTxn == nil {
		return false
	}
	_, ok := txn.rootTxn.patterns[pattern]
	return ok
}

// Template returns the registered template with the given identifier.
func (txn *Txn) Template(id TemplateID) (*Template, bool) {
	if txn.rootTxn == nil {
		return nil, false
	}
	tpl, ok := txn.rootTxn.ids[id]
	return tpl, ok
}

// Templates returns an iterator over the registered templates, in identifier order. The iterator does not
// observe changes made to the transaction after its creation.
func (txn *Txn) Templates() iter.Seq[*Template] {
	if txn.rootTxn == nil {
		return func(yield func(*Template) bool) {}
	}
	return templatesOf(txn.rootTxn.ids)
}

// Walk calls fn for each template of the transaction, in match priority order. See [Registry.Walk].
// The transaction must not be modified until Walk returns.
func (txn *Txn) Walk(fn WalkFunc) error {
	if txn.rootTxn == nil {
		return ErrSettledTxn
	}
	return walk(txn.rootTxn.root, txn.rootTxn.ids, fn)
}

// Size returns the number of registered templates.
func (txn *Txn) Size() int {
	if txn.rootTxn == nil {
		return 0
	}
	return len(txn.rootTxn.patterns)
}

// Commit publishes the changes of a write transaction. Once committed, new lookups on the registry observe
// the changes atomically, while in-flight lookups complete on the previous version. Commit on a read-only or
// settled transaction is a no-op.
func (txn *Txn) Commit() {
	if txn.rootTxn == nil {
		return
	}
	if txn.write {
		txn.r.tree.Store(txn.rootTxn.commit())
		txn.r.mu.Unlock()
	}
	txn.rootTxn = nil
}

// Abort discards the transaction. Calling Abort on a committed or aborted transaction is a no-op.
func (txn *Txn) Abort() {
	if txn.rootTxn == nil {
		return
	}
	if txn.write {
		txn.r.mu.Unlock()
	}
	txn.rootTxn = nil
}

func (r *Registry) log(level slog.Level, msg string, tpl *Template) {
	r.logger.LogAttrs(
		context.Background(),
		level,
		msg,
		slog.Uint64("id", uint64(tpl.id)),
		slog.String("template", tpl.pattern),
	)
}
