// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package segtrie

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrMalformedTemplate = errors.New("malformed template")
	ErrMalformedInput    = errors.New("malformed input")
	ErrTooManySegments   = errors.New("too many segments")
	ErrInvalidConfig     = errors.New("invalid config")
	ErrReadOnlyTxn       = errors.New("write on read-only transaction")
	ErrSettledTxn        = errors.New("transaction settled")
)

// SegmentError reports a tokenization failure. Kind is either [ErrMalformedTemplate] or [ErrMalformedInput],
// so callers can use errors.Is on the returned error to discriminate template and input failures.
type SegmentError struct {
	// Kind is the sentinel error this failure belongs to.
	Kind error
	// Cause is an optional, more specific sentinel (e.g. [ErrTooManySegments]).
	Cause error
	// Value is the template or input being tokenized.
	Value string
	// Segment is the offending segment text, if any.
	Segment string
	// Reason is a human-readable description of the failure.
	Reason string
	// Index is the position of the offending segment, or -1 if the failure is not tied to a segment.
	Index int
}

func (e *SegmentError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	if e.Index >= 0 {
		sb.WriteString(" at segment ")
		sb.WriteString(strconv.Itoa(e.Index))
		if e.Segment != "" {
			sb.WriteString(" (")
			sb.WriteString(strconv.Quote(e.Segment))
			sb.WriteByte(')')
		}
	}
	sb.WriteString(" in ")
	sb.WriteString(strconv.Quote(e.Value))
	return sb.String()
}

// Unwrap returns the sentinel [SegmentError.Kind] and, when set, the [SegmentError.Cause].
func (e *SegmentError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func newTemplateError(pattern string, index int, segment, reason string) error {
	return &SegmentError{
		Kind:    ErrMalformedTemplate,
		Value:   pattern,
		Index:   index,
		Segment: segment,
		Reason:  reason,
	}
}

func newInputError(input string, index int, reason string) error {
	return &SegmentError{
		Kind:   ErrMalformedInput,
		Value:  input,
		Index:  index,
		Reason: reason,
	}
}
