// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package segtrie

import (
	"fmt"
	"strings"
)

const (
	defaultDelimiter byte = '/'
	defaultSingle         = "*"
	defaultMulti          = "**"

	escapeChar  byte = '\\'
	bracketOpen byte = '{'
	bracketEnd  byte = '}'
)

// SegmentKind classifies a template segment.
type SegmentKind uint8

const (
	// Literal matches only an identical input segment.
	Literal SegmentKind = iota
	// SingleWildcard matches exactly one input segment, whatever its content.
	SingleWildcard
	// MultiWildcard matches zero or more trailing input segments. It is only valid as the last segment.
	MultiWildcard
)

func (k SegmentKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case SingleWildcard:
		return "single wildcard"
	case MultiWildcard:
		return "multi wildcard"
	default:
		return fmt.Sprintf("SegmentKind(%d)", uint8(k))
	}
}

// Segment is one delimiter-separated element of a template. For a [Literal], Text holds the unescaped text. For
// wildcards, Text holds the configured token and Name the optional wildcard name.
type Segment struct {
	Text string
	Name string
	Kind SegmentKind
}

// IsWildcard reports whether the segment is a [SingleWildcard] or a [MultiWildcard].
func (s Segment) IsWildcard() bool {
	return s.Kind != Literal
}

// EmptySegmentOption defines how empty segments, produced by leading, trailing or consecutive delimiters,
// are handled. The same policy applies to templates and inputs.
type EmptySegmentOption uint8

const (
	// StrictSegments rejects the empty string and any empty segment.
	StrictSegments EmptySegmentOption = iota
	// TrimSegments removes one leading and one trailing delimiter before splitting. What remains must not
	// contain empty segments. An empty remainder is the zero-segment (root) template or input.
	TrimSegments
	// KeepSegments treats empty segments as ordinary empty literals. The empty string is a single empty segment.
	KeepSegments

	emptyOptionSentinel
)

func (o EmptySegmentOption) String() string {
	switch o {
	case StrictSegments:
		return "strict"
	case TrimSegments:
		return "trim"
	case KeepSegments:
		return "keep"
	default:
		return fmt.Sprintf("EmptySegmentOption(%d)", uint8(o))
	}
}

// tokenizer splits templates and inputs according to the registry configuration.
// Once the registry is created, a tokenizer is read only.
type tokenizer struct {
	delim       string
	single      string
	multi       string
	maxSegments int
	empty       EmptySegmentOption
	foldCase    bool
}

func newTokenizer() tokenizer {
	return tokenizer{
		delim:  string(defaultDelimiter),
		single: defaultSingle,
		multi:  defaultMulti,
		empty:  StrictSegments,
	}
}

// split returns the raw segments of s. If s violates the empty segment policy, split returns
// the index of the first offending segment, or -1 otherwise.
func (tk *tokenizer) split(s string) ([]string, int) {
	switch tk.empty {
	case StrictSegments:
		if s == "" {
			return nil, 0
		}
	case TrimSegments:
		s = strings.TrimPrefix(s, tk.delim)
		if s == "" {
			return nil, -1
		}
		s = strings.TrimSuffix(s, tk.delim)
		if s == "" {
			// e.g. "//"
			return nil, 0
		}
	}

	parts := strings.Split(s, tk.delim)
	if tk.empty != KeepSegments {
		for i, part := range parts {
			if part == "" {
				return nil, i
			}
		}
	}
	return parts, -1
}

// parseTemplate tokenizes and validates a template pattern.
func (tk *tokenizer) parseTemplate(pattern string) ([]Segment, error) {
	parts, bad := tk.split(pattern)
	if bad >= 0 {
		return nil, newTemplateError(pattern, bad, "", "empty segment")
	}

	if tk.maxSegments > 0 && len(parts) > tk.maxSegments {
		return nil, &SegmentError{
			Kind:   ErrMalformedTemplate,
			Cause:  ErrTooManySegments,
			Value:  pattern,
			Index:  -1,
			Reason: fmt.Sprintf("%d segments exceed the limit of %d", len(parts), tk.maxSegments),
		}
	}

	segments := make([]Segment, len(parts))
	for i, part := range parts {
		seg, reason := tk.classify(part)
		if reason != "" {
			return nil, newTemplateError(pattern, i, part, reason)
		}
		if seg.Kind == Literal && seg.Text == "" && part != "" && tk.empty != KeepSegments {
			return nil, newTemplateError(pattern, i, part, "empty escaped segment")
		}

		if seg.Kind == MultiWildcard && i != len(parts)-1 {
			return nil, newTemplateError(pattern, i, part, "multi wildcard must be the last segment")
		}

		if seg.Name != "" {
			for j := 0; j < i; j++ {
				if segments[j].Name == seg.Name {
					return nil, newTemplateError(pattern, i, part, "duplicate wildcard name")
				}
			}
		}

		segments[i] = seg
	}

	return segments, nil
}

// classify returns the segment for a raw template segment, or a non-empty reason if the segment is invalid.
// The escaping rule is: a segment starting with a backslash is a literal whose text is the segment without
// that first backslash. A segment that only starts with a wildcard token, without being the token alone or
// the token followed by {name}, is a literal.
func (tk *tokenizer) classify(raw string) (Segment, string) {
	if len(raw) > 0 && raw[0] == escapeChar {
		return Segment{Kind: Literal, Text: raw[1:]}, ""
	}

	if name, ok, reason := wildcardName(raw, tk.multi); ok || reason != "" {
		return Segment{Kind: MultiWildcard, Text: tk.multi, Name: name}, reason
	}

	if name, ok, reason := wildcardName(raw, tk.single); ok || reason != "" {
		return Segment{Kind: SingleWildcard, Text: tk.single, Name: name}, reason
	}

	return Segment{Kind: Literal, Text: raw}, ""
}

// wildcardName reports whether raw is the given token, optionally followed by a {name}. If raw looks like a named
// wildcard but the name is invalid, a non-empty reason is returned.
func wildcardName(raw, token string) (name string, ok bool, reason string) {
	if !strings.HasPrefix(raw, token) {
		return "", false, ""
	}

	rest := raw[len(token):]
	if rest == "" {
		return "", true, ""
	}

	if rest[0] != bracketOpen || rest[len(rest)-1] != bracketEnd {
		return "", false, ""
	}

	name = rest[1 : len(rest)-1]
	if name == "" {
		return "", false, "missing wildcard name"
	}
	if strings.IndexByte(name, bracketOpen) >= 0 || strings.IndexByte(name, bracketEnd) >= 0 {
		return "", false, "illegal character in wildcard name"
	}

	return name, true, ""
}

// parseInput tokenizes a concrete input. Every input segment is a literal.
func (tk *tokenizer) parseInput(input string) ([]string, error) {
	parts, bad := tk.split(input)
	if bad >= 0 {
		return nil, newInputError(input, bad, "empty segment")
	}

	if tk.maxSegments > 0 && len(parts) > tk.maxSegments {
		return nil, &SegmentError{
			Kind:   ErrMalformedInput,
			Cause:  ErrTooManySegments,
			Value:  input,
			Index:  -1,
			Reason: fmt.Sprintf("%d segments exceed the limit of %d", len(parts), tk.maxSegments),
		}
	}

	return parts, nil
}

// key returns the trie key for a literal text.
func (tk *tokenizer) key(text string) string {
	if tk.foldCase {
		return strings.ToLower(text)
	}
	return text
}

// validateTokens checks that the wildcard tokens can be told apart from each other and from literals.
func validateTokens(delim, single, multi string) error {
	if single == "" || multi == "" {
		return fmt.Errorf("%w: wildcard token cannot be empty", ErrInvalidConfig)
	}
	if single == multi {
		return fmt.Errorf("%w: single and multi wildcard tokens must differ", ErrInvalidConfig)
	}
	for _, token := range []string{single, multi} {
		if strings.Contains(token, delim) {
			return fmt.Errorf("%w: wildcard token %q contains the delimiter", ErrInvalidConfig, token)
		}
		if token[0] == escapeChar {
			return fmt.Errorf("%w: wildcard token %q starts with the escape character", ErrInvalidConfig, token)
		}
		if strings.IndexByte(token, bracketOpen) >= 0 || strings.IndexByte(token, bracketEnd) >= 0 {
			return fmt.Errorf("%w: wildcard token %q contains a bracket", ErrInvalidConfig, token)
		}
	}
	return nil
}
