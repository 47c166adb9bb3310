package tmplfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tigerwill90/segtrie"
)

const textTemplates = `# users
users/*{id}	handler=user, version=2

static/**
  users/me  
`

const yamlTemplates = `templates:
  - template: users/*{id}
    meta:
      handler: user
      version: "2"
  - template: static/**
  - template: users/me
`

func TestDecodeText(t *testing.T) {
	defs, err := DecodeText("templates.txt", strings.NewReader(textTemplates))
	require.NoError(t, err)
	require.Len(t, defs, 3)

	assert.Equal(t, Definition{
		Template: "users/*{id}",
		Meta:     map[string]string{"handler": "user", "version": "2"},
		Source:   "templates.txt:2",
	}, defs[0])
	assert.Equal(t, Definition{Template: "static/**", Source: "templates.txt:4"}, defs[1])
	assert.Equal(t, Definition{Template: "users/me", Source: "templates.txt:5"}, defs[2])
}

func TestDecodeTextInvalidMeta(t *testing.T) {
	_, err := DecodeText("bad.txt", strings.NewReader("a/b\tkey\n"))
	require.ErrorIs(t, err, ErrInvalidFile)
	assert.Contains(t, err.Error(), "bad.txt:1")
}

func TestDecodeYAML(t *testing.T) {
	defs, err := DecodeYAML("templates.yaml", strings.NewReader(yamlTemplates))
	require.NoError(t, err)
	require.Len(t, defs, 3)

	assert.Equal(t, "users/*{id}", defs[0].Template)
	assert.Equal(t, map[string]string{"handler": "user", "version": "2"}, defs[0].Meta)
	assert.Equal(t, "templates.yaml#0", defs[0].Source)
	assert.Equal(t, "static/**", defs[1].Template)
	assert.Nil(t, defs[1].Meta)
}

func TestDecodeYAMLEmpty(t *testing.T) {
	defs, err := DecodeYAML("empty.yaml", strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestDecodeYAMLUnknownField(t *testing.T) {
	_, err := DecodeYAML("bad.yaml", strings.NewReader("templates:\n  - pattern: a/b\n"))
	require.ErrorIs(t, err, ErrInvalidFile)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		file    string
		content string
	}{
		{name: "text file", file: "templates.txt", content: textTemplates},
		{name: "yaml file", file: "templates.yaml", content: yamlTemplates},
		{name: "yml file", file: "templates.YML", content: yamlTemplates},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.file)
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600))

			defs, err := Load(path)
			require.NoError(t, err)
			require.Len(t, defs, 3)

			r := segtrie.MustNew()
			require.NoError(t, Apply(r, defs))
			assert.Equal(t, 3, r.Size())

			res, ok, err := r.MatchFirst("users/42")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "users/*{id}", res.Template.Pattern())
			assert.Equal(t, "42", res.Bindings.Get("id"))
			handler, _ := res.Template.Meta("handler")
			assert.Equal(t, "user", handler)

			res, ok, err = r.MatchFirst("users/me")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "users/me", res.Template.Pattern())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyIsAtomic(t *testing.T) {
	r := segtrie.MustNew()
	defs := []Definition{
		{Template: "a/b", Source: "f.txt:1"},
		{Template: "a/**/c", Source: "f.txt:2"},
	}

	err := Apply(r, defs)
	require.ErrorIs(t, err, segtrie.ErrMalformedTemplate)
	assert.Contains(t, err.Error(), "f.txt:2")
	assert.Equal(t, 0, r.Size())
	assert.False(t, r.Has("a/b"))
}

func TestExportRoundTrip(t *testing.T) {
	r := segtrie.MustNew()
	r.MustInsert("users/*{id}", segtrie.WithMeta("handler", "user"))
	r.MustInsert("static/**")
	r.MustInsert(`\*/x`)

	defs := Export(r)
	require.Len(t, defs, 3)

	t.Run("text", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		require.NoError(t, EncodeText(buf, defs))
		assert.Equal(t, "users/*{id}\thandler=user\nstatic/**\n\\*/x\n", buf.String())

		decoded, err := DecodeText("export.txt", buf)
		require.NoError(t, err)
		r2 := segtrie.MustNew()
		require.NoError(t, Apply(r2, decoded))
		assertSameTemplates(t, r, r2)
	})

	t.Run("yaml", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		require.NoError(t, EncodeYAML(buf, defs))

		decoded, err := DecodeYAML("export.yaml", buf)
		require.NoError(t, err)
		r2 := segtrie.MustNew()
		require.NoError(t, Apply(r2, decoded))
		assertSameTemplates(t, r, r2)
	})
}

func TestEncodeTextRejectsUnrepresentable(t *testing.T) {
	for _, tpl := range []string{"", "a\tb", "#a", " a", "a\nb", "a\rb"} {
		err := EncodeText(bytes.NewBuffer(nil), []Definition{{Template: tpl}})
		assert.ErrorIsf(t, err, ErrInvalidFile, "template %q", tpl)
	}

	metas := []map[string]string{
		{"tags": "a,b"},
		{"a=b": "c"},
		{"a,b": "c"},
		{"k": "a\nb"},
		{"k": "a\tb"},
		{"k\t": "v"},
		{"": "v"},
		{" k": "v"},
		{"k": "v "},
	}
	for _, meta := range metas {
		buf := bytes.NewBuffer(nil)
		err := EncodeText(buf, []Definition{{Template: "a/b", Meta: meta}})
		assert.ErrorIsf(t, err, ErrInvalidFile, "meta %q", meta)
		assert.Zerof(t, buf.Len(), "meta %q", meta)
	}
}

func TestEncodeTextMetaRoundTrip(t *testing.T) {
	defs := []Definition{
		{Template: "users/*{id}", Meta: map[string]string{"handler": "user", "path": "a=b/c", "empty": ""}},
		{Template: "a/b"},
	}

	buf := bytes.NewBuffer(nil)
	require.NoError(t, EncodeText(buf, defs))

	got, err := DecodeText("x.txt", buf)
	require.NoError(t, err)
	require.Len(t, got, len(defs))
	for i := range defs {
		assert.Equal(t, defs[i].Template, got[i].Template)
		assert.Equal(t, defs[i].Meta, got[i].Meta)
	}
}

func TestDecodeTextMissingTemplate(t *testing.T) {
	for _, text := range []string{"\thandler=x\n", "a/b\n   \thandler=x\n"} {
		_, err := DecodeText("x.txt", strings.NewReader(text))
		require.ErrorIsf(t, err, ErrInvalidFile, "text %q", text)
	}

	_, err := DecodeText("x.txt", strings.NewReader("\thandler=x\n"))
	assert.ErrorContains(t, err, "x.txt:1")
}

func assertSameTemplates(t *testing.T, want, got *segtrie.Registry) {
	t.Helper()
	require.Equal(t, want.Size(), got.Size())
	for tpl := range want.Templates() {
		assert.Truef(t, got.Has(tpl.Pattern()), "missing %s", tpl.Pattern())
	}
	assert.Equal(t, want.String(), got.String())
}
