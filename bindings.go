// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package segtrie

// Binding is the input text bound to a wildcard segment.
type Binding struct {
	// Name is the wildcard name, or empty for an anonymous wildcard.
	Name string
	// Value is the bound text. For a multi wildcard, it is the consumed segments joined with the delimiter,
	// and the empty string when no segment was consumed.
	Value string
	// Index is the position of the wildcard segment in the template.
	Index int
}

// Bindings holds the wildcard bindings of a match, ordered by segment position.
type Bindings []Binding

// Get returns the value bound to the wildcard name.
func (b Bindings) Get(name string) string {
	for i := range b {
		if b[i].Name == name {
			return b[i].Value
		}
	}
	return ""
}

// Has checks whether a wildcard named name was bound.
func (b Bindings) Has(name string) bool {
	for i := range b {
		if b[i].Name == name {
			return true
		}
	}
	return false
}

// At returns the value bound to the wildcard at the given template segment position.
func (b Bindings) At(index int) (string, bool) {
	for i := range b {
		if b[i].Index == index {
			return b[i].Value, true
		}
	}
	return "", false
}

// Clone make a copy of Bindings.
func (b Bindings) Clone() Bindings {
	cloned := make(Bindings, len(b))
	copy(cloned, b)
	return cloned
}

// Result is a template matching an input, with the text bound to its wildcards.
type Result struct {
	Template *Template
	Bindings Bindings
}

// ID returns the identifier of the matched template.
func (r Result) ID() TemplateID {
	return r.Template.id
}

// Mode selects how many results a match returns.
type Mode uint8

const (
	// FirstBest returns only the most specific match.
	FirstBest Mode = iota
	// All returns every matching template, most specific first.
	All
)

func (m Mode) String() string {
	switch m {
	case FirstBest:
		return "first-best"
	case All:
		return "all"
	default:
		return "unknown"
	}
}
