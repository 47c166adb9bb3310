// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package segtrie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lit(text string) Segment {
	return Segment{Kind: Literal, Text: text}
}

func single(name string) Segment {
	return Segment{Kind: SingleWildcard, Text: defaultSingle, Name: name}
}

func multi(name string) Segment {
	return Segment{Kind: MultiWildcard, Text: defaultMulti, Name: name}
}

func TestParseTemplate(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		want    []Segment
	}{
		{
			name:    "single literal",
			pattern: "a",
			want:    []Segment{lit("a")},
		},
		{
			name:    "literals and wildcards",
			pattern: "a/*/b/**",
			want:    []Segment{lit("a"), single(""), lit("b"), multi("")},
		},
		{
			name:    "named wildcards",
			pattern: "users/*{id}/files/**{path}",
			want:    []Segment{lit("users"), single("id"), lit("files"), multi("path")},
		},
		{
			name:    "escaped single wildcard",
			pattern: `a/\*`,
			want:    []Segment{lit("a"), lit("*")},
		},
		{
			name:    "escaped multi wildcard",
			pattern: `\**/b`,
			want:    []Segment{lit("**"), lit("b")},
		},
		{
			name:    "escaped backslash",
			pattern: `\\x`,
			want:    []Segment{lit(`\x`)},
		},
		{
			name:    "backslash not leading",
			pattern: `a\b/c\*`,
			want:    []Segment{lit(`a\b`), lit(`c\*`)},
		},
		{
			name:    "token prefix is a literal",
			pattern: "*a/**b/***",
			want:    []Segment{lit("*a"), lit("**b"), lit("***")},
		},
		{
			name:    "unterminated name is a literal",
			pattern: "*{id/x",
			want:    []Segment{lit("*{id"), lit("x")},
		},
		{
			name:    "multi wildcard only",
			pattern: "**",
			want:    []Segment{multi("")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tk := newTokenizer()
			got, err := tk.parseTemplate(tc.pattern)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseTemplateError(t *testing.T) {
	cases := []struct {
		name      string
		pattern   string
		wantIndex int
	}{
		{name: "empty template", pattern: "", wantIndex: 0},
		{name: "leading delimiter", pattern: "/a", wantIndex: 0},
		{name: "trailing delimiter", pattern: "a/", wantIndex: 1},
		{name: "consecutive delimiters", pattern: "a//b", wantIndex: 1},
		{name: "multi wildcard not last", pattern: "a/**/b", wantIndex: 1},
		{name: "two multi wildcards", pattern: "**/**", wantIndex: 0},
		{name: "empty wildcard name", pattern: "a/*{}", wantIndex: 1},
		{name: "bracket in wildcard name", pattern: "*{a{b}", wantIndex: 0},
		{name: "duplicate wildcard name", pattern: "*{id}/x/**{id}", wantIndex: 2},
		{name: "escaped empty segment", pattern: `a/\`, wantIndex: 1},
		{name: "escaped empty first segment", pattern: `\/a`, wantIndex: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tk := newTokenizer()
			_, err := tk.parseTemplate(tc.pattern)
			require.ErrorIs(t, err, ErrMalformedTemplate)
			assert.NotErrorIs(t, err, ErrMalformedInput)
			var segErr *SegmentError
			require.ErrorAs(t, err, &segErr)
			assert.Equal(t, tc.wantIndex, segErr.Index)
			assert.Equal(t, tc.pattern, segErr.Value)
		})
	}
}

func TestEscapedEmptySegmentPolicy(t *testing.T) {
	tk := newTokenizer()
	tk.empty = TrimSegments
	_, err := tk.parseTemplate(`/a/\/`)
	require.ErrorIs(t, err, ErrMalformedTemplate)

	tk.empty = KeepSegments
	segments, err := tk.parseTemplate(`a/\`)
	require.NoError(t, err)
	assert.Equal(t, []Segment{lit("a"), lit("")}, segments)
}

func TestEmptySegmentPolicy(t *testing.T) {
	cases := []struct {
		name    string
		policy  EmptySegmentOption
		input   string
		want    []string
		wantErr bool
	}{
		{name: "strict simple", policy: StrictSegments, input: "a/b", want: []string{"a", "b"}},
		{name: "strict empty string", policy: StrictSegments, input: "", wantErr: true},
		{name: "strict leading", policy: StrictSegments, input: "/a", wantErr: true},
		{name: "strict trailing", policy: StrictSegments, input: "a/", wantErr: true},
		{name: "strict doubled", policy: StrictSegments, input: "a//b", wantErr: true},
		{name: "trim leading and trailing", policy: TrimSegments, input: "/a/b/", want: []string{"a", "b"}},
		{name: "trim without delimiters", policy: TrimSegments, input: "a/b", want: []string{"a", "b"}},
		{name: "trim empty string is root", policy: TrimSegments, input: "", want: nil},
		{name: "trim single delimiter is root", policy: TrimSegments, input: "/", want: nil},
		{name: "trim double delimiter", policy: TrimSegments, input: "//", wantErr: true},
		{name: "trim doubled inside", policy: TrimSegments, input: "/a//b/", wantErr: true},
		{name: "trim only one leading", policy: TrimSegments, input: "//a", wantErr: true},
		{name: "keep empty string", policy: KeepSegments, input: "", want: []string{""}},
		{name: "keep leading", policy: KeepSegments, input: "/a", want: []string{"", "a"}},
		{name: "keep doubled", policy: KeepSegments, input: "a//b", want: []string{"a", "", "b"}},
		{name: "keep single delimiter", policy: KeepSegments, input: "/", want: []string{"", ""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tk := newTokenizer()
			tk.empty = tc.policy
			got, err := tk.parseInput(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrMalformedInput)
				assert.NotErrorIs(t, err, ErrMalformedTemplate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			// Templates follow the same policy.
			segments, err := tk.parseTemplate(tc.input)
			require.NoError(t, err)
			assert.Len(t, segments, len(tc.want))
		})
	}
}

func TestMaxSegments(t *testing.T) {
	tk := newTokenizer()
	tk.maxSegments = 2

	_, err := tk.parseTemplate("a/b")
	require.NoError(t, err)
	_, err = tk.parseInput("a/b")
	require.NoError(t, err)

	_, err = tk.parseTemplate("a/b/c")
	assert.ErrorIs(t, err, ErrTooManySegments)
	assert.ErrorIs(t, err, ErrMalformedTemplate)

	_, err = tk.parseInput("a/b/c")
	assert.ErrorIs(t, err, ErrTooManySegments)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestCustomTokens(t *testing.T) {
	tk := newTokenizer()
	tk.delim = "."
	tk.single = "+"
	tk.multi = "#"

	got, err := tk.parseTemplate(`a.+{x}.*.\#.#`)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		lit("a"),
		{Kind: SingleWildcard, Text: "+", Name: "x"},
		lit("*"),
		lit("#"),
		{Kind: MultiWildcard, Text: "#"},
	}, got)
}

func TestValidateTokens(t *testing.T) {
	cases := []struct {
		name    string
		delim   string
		single  string
		multi   string
		wantErr bool
	}{
		{name: "default tokens", delim: "/", single: "*", multi: "**"},
		{name: "multi is a prefix of single", delim: "/", single: "**", multi: "*"},
		{name: "empty single", delim: "/", single: "", multi: "**", wantErr: true},
		{name: "empty multi", delim: "/", single: "*", multi: "", wantErr: true},
		{name: "same tokens", delim: "/", single: "*", multi: "*", wantErr: true},
		{name: "token with delimiter", delim: "/", single: "*/", multi: "**", wantErr: true},
		{name: "token with escape", delim: "/", single: `\*`, multi: "**", wantErr: true},
		{name: "token with bracket", delim: "/", single: "*", multi: "{**}", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateTokens(tc.delim, tc.single, tc.multi)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSegmentErrorMessage(t *testing.T) {
	tk := newTokenizer()
	_, err := tk.parseTemplate("a/**/b")
	require.Error(t, err)
	assert.Equal(t, `malformed template: multi wildcard must be the last segment at segment 1 ("**") in "a/**/b"`, err.Error())

	_, err = tk.parseInput("a//b")
	require.Error(t, err)
	assert.Equal(t, `malformed input: empty segment at segment 1 in "a//b"`, err.Error())
}
