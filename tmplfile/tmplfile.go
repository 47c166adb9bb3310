// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

// Package tmplfile loads template definitions from files and registers them in a [segtrie.Registry].
//
// Two formats are supported. The YAML format holds a top-level templates list:
//
//	templates:
//	  - template: users/*{id}
//	    meta:
//	      handler: user
//	  - template: static/**
//
// The text format holds one template per line, optionally followed by a tab and comma separated key=value
// annotations. Blank lines and lines starting with '#' are ignored:
//
//	# users
//	users/*{id}	handler=user,version=2
//	static/**
package tmplfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tigerwill90/segtrie"
	"gopkg.in/yaml.v3"
)

var ErrInvalidFile = errors.New("invalid template file")

// Definition is a template and its annotations, as read from a file.
type Definition struct {
	Template string            `yaml:"template"`
	Meta     map[string]string `yaml:"meta,omitempty"`
	// Source locates the definition in its file, e.g. "templates.txt:12".
	Source string `yaml:"-"`
}

// File is the YAML document layout.
type File struct {
	Templates []Definition `yaml:"templates"`
}

// Load reads the template definitions of the file at path. Files with a .yaml or .yml extension are decoded
// as YAML, any other file as text.
func Load(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(name, bytes.NewReader(data))
	default:
		return DecodeText(name, bytes.NewReader(data))
	}
}

// DecodeYAML reads YAML template definitions from r. The name is used to annotate errors and definitions.
func DecodeYAML(name string, r io.Reader) ([]Definition, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFile, name, err)
	}

	for i := range f.Templates {
		f.Templates[i].Source = fmt.Sprintf("%s#%d", name, i)
	}
	return f.Templates, nil
}

// DecodeText reads text template definitions from r. The name is used to annotate errors and definitions.
func DecodeText(name string, r io.Reader) ([]Definition, error) {
	var defs []Definition
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if trimmed := strings.TrimSpace(text); trimmed == "" || trimmed[0] == '#' {
			continue
		}

		pattern, annotations, _ := strings.Cut(text, "\t")
		def := Definition{
			Template: strings.TrimSpace(pattern),
			Source:   fmt.Sprintf("%s:%d", name, line),
		}
		if def.Template == "" {
			return nil, fmt.Errorf("%w: %s: missing template before annotations", ErrInvalidFile, def.Source)
		}

		meta, err := parseMeta(strings.TrimSpace(annotations))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFile, def.Source, err)
		}
		def.Meta = meta
		defs = append(defs, def)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFile, name, err)
	}
	return defs, nil
}

func parseMeta(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}

	meta := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("annotation %q is not a key=value pair", pair)
		}
		meta[k] = strings.TrimSpace(v)
	}
	return meta, nil
}

// EncodeText writes definitions in the text format. Annotation keys are written in lexicographical order.
func EncodeText(w io.Writer, defs []Definition) error {
	bw := bufio.NewWriter(w)
	for _, def := range defs {
		if def.Template == "" || strings.ContainsAny(def.Template, "\t\r\n") || strings.HasPrefix(def.Template, "#") ||
			strings.TrimSpace(def.Template) != def.Template {
			return fmt.Errorf("%w: template %q cannot be written as text", ErrInvalidFile, def.Template)
		}
		keys := slices.Sorted(maps.Keys(def.Meta))
		for _, k := range keys {
			if !textKey(k) || !textValue(def.Meta[k]) {
				return fmt.Errorf("%w: template %q: annotation %q=%q cannot be written as text", ErrInvalidFile, def.Template, k, def.Meta[k])
			}
		}
		bw.WriteString(def.Template)
		if len(keys) > 0 {
			bw.WriteByte('\t')
			for i, k := range keys {
				if i > 0 {
					bw.WriteByte(',')
				}
				bw.WriteString(k)
				bw.WriteByte('=')
				bw.WriteString(def.Meta[k])
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// textKey reports whether k reads back unchanged through parseMeta.
func textKey(k string) bool {
	return k != "" && !strings.ContainsAny(k, ",=\t\r\n") && strings.TrimSpace(k) == k
}

// textValue reports whether v reads back unchanged through parseMeta. The first '=' splits a pair, so
// values may contain it.
func textValue(v string) bool {
	return !strings.ContainsAny(v, ",\t\r\n") && strings.TrimSpace(v) == v
}

// EncodeYAML writes definitions in the YAML format.
func EncodeYAML(w io.Writer, defs []Definition) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Templates: defs}); err != nil {
		return err
	}
	return enc.Close()
}

// Apply registers every definition in r within a single transaction. If a definition is rejected, no template
// is registered and the returned error is annotated with the definition source.
func Apply(r *segtrie.Registry, defs []Definition) error {
	return r.Updates(func(txn *segtrie.Txn) error {
		for _, def := range defs {
			var opts []segtrie.TemplateOption
			if len(def.Meta) > 0 {
				opts = append(opts, segtrie.WithMetaMap(def.Meta))
			}
			if _, err := txn.Insert(def.Template, opts...); err != nil {
				return fmt.Errorf("%s: %w", def.Source, err)
			}
		}
		return nil
	})
}

// Export returns the definitions of every template registered in r, in identifier order. Applying them to an
// empty registry with the same options registers the same templates.
func Export(r *segtrie.Registry) []Definition {
	defs := make([]Definition, 0, r.Size())
	for tpl := range r.Templates() {
		def := Definition{Template: tpl.Pattern()}
		for k := range tpl.MetaKeys() {
			if def.Meta == nil {
				def.Meta = make(map[string]string)
			}
			def.Meta[k], _ = tpl.Meta(k)
		}
		defs = append(defs, def)
	}
	return defs
}
