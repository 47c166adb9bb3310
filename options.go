// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package segtrie

import (
	"fmt"
	"log/slog"
)

// Option configures a [Registry].
type Option interface {
	applyRegistry(sealedOption) error
}

// TemplateOption configures a [Template] on insertion.
type TemplateOption interface {
	applyTemplate(sealedOption) error
}

type sealedOption struct {
	registry *Registry
	template *Template
}

type optionFunc func(sealedOption) error

func (o optionFunc) applyRegistry(s sealedOption) error {
	return o(s)
}

type templateOptionFunc func(sealedOption) error

func (o templateOptionFunc) applyTemplate(s sealedOption) error {
	return o(s)
}

// WithDelimiter sets the byte separating segments in templates and inputs. By default, '/' is used.
// The delimiter cannot be the escape character '\' or a bracket.
func WithDelimiter(delim byte) Option {
	return optionFunc(func(s sealedOption) error {
		if delim == escapeChar || delim == bracketOpen || delim == bracketEnd {
			return fmt.Errorf("%w: %q cannot be used as delimiter", ErrInvalidConfig, delim)
		}
		s.registry.tk.delim = string(delim)
		return nil
	})
}

// WithWildcardTokens sets the reserved tokens for the single and multi wildcard segments. By default,
// "*" and "**" are used. Tokens must be non-empty, distinct, and must not contain the delimiter or a bracket.
func WithWildcardTokens(single, multi string) Option {
	return optionFunc(func(s sealedOption) error {
		s.registry.tk.single = single
		s.registry.tk.multi = multi
		return nil
	})
}

// WithEmptySegments configures how empty segments are handled in templates and inputs.
//
// Available policies:
//   - StrictSegments: the empty string and any empty segment are rejected (default).
//   - TrimSegments: one leading and one trailing delimiter are ignored, e.g. "/a/b/" is equivalent to "a/b".
//   - KeepSegments: empty segments are regular empty literals, e.g. "a//b" has 3 segments.
func WithEmptySegments(opt EmptySegmentOption) Option {
	return optionFunc(func(s sealedOption) error {
		if opt >= emptyOptionSentinel {
			return fmt.Errorf("%w: invalid empty segment option", ErrInvalidConfig)
		}
		s.registry.tk.empty = opt
		return nil
	})
}

// WithMaxSegments rejects templates and inputs with more than max segments, which bounds the cost of a match.
// A value of 0 disables the limit (default).
func WithMaxSegments(max int) Option {
	return optionFunc(func(s sealedOption) error {
		if max < 0 {
			return fmt.Errorf("%w: max segments must be positive", ErrInvalidConfig)
		}
		s.registry.tk.maxSegments = max
		return nil
	})
}

// WithCaseInsensitive enables case-insensitive comparison of literal segments. Bindings always hold the
// input text unchanged.
func WithCaseInsensitive() Option {
	return optionFunc(func(s sealedOption) error {
		s.registry.tk.foldCase = true
		return nil
	})
}

// WithLogger sets the logger used to report registry mutations at debug level. By default, nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(s sealedOption) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
		}
		s.registry.logger = logger
		return nil
	})
}

// WithMeta attaches a key/value annotation to the template, reported back with every [Result].
// Re-inserting an already registered template with WithMeta replaces all of its annotations.
func WithMeta(key, value string) TemplateOption {
	return templateOptionFunc(func(s sealedOption) error {
		if key == "" {
			return fmt.Errorf("%w: empty meta key", ErrInvalidConfig)
		}
		if s.template.meta == nil {
			s.template.meta = make(map[string]string, 1)
		}
		s.template.meta[key] = value
		return nil
	})
}

// WithMetaMap attaches all key/value annotations of m to the template. See [WithMeta].
func WithMetaMap(m map[string]string) TemplateOption {
	return templateOptionFunc(func(s sealedOption) error {
		for k, v := range m {
			if err := WithMeta(k, v).applyTemplate(s); err != nil {
				return err
			}
		}
		return nil
	})
}
