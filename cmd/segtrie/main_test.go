package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tigerwill90/segtrie"
)

const templates = `# sample
users/*{id}	handler=user
users/me
static/**{path}
*/*
`

func writeTemplates(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := bytes.NewBuffer(nil)
	stderr := bytes.NewBuffer(nil)

	cmd := newRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommandHelp(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "check")
	assert.Contains(t, out, "match")
	assert.Contains(t, out, "dump")
	assert.Contains(t, out, "export")
}

func TestCheckCommand(t *testing.T) {
	path := writeTemplates(t, templates)

	out, _, err := execute(t, "check", path)
	require.NoError(t, err)
	assert.Equal(t, "4 templates, 8 nodes\n", out)
}

func TestCheckCommandMalformed(t *testing.T) {
	path := writeTemplates(t, "a/**/b\n")

	_, stderr, err := execute(t, "check", path)
	require.ErrorIs(t, err, segtrie.ErrMalformedTemplate)
	assert.Contains(t, err.Error(), "templates.txt:1")
	assert.Contains(t, stderr, "check failed")
}

func TestMatchCommand(t *testing.T) {
	path := writeTemplates(t, templates)

	cases := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "first best literal",
			args: []string{"match", "-t", path, "users/me"},
			want: "users/me\t2\tusers/me\n",
		},
		{
			name: "first best named wildcard",
			args: []string{"match", "-t", path, "users/42"},
			want: "users/42\t1\tusers/*{id}\tid=\"42\"\n",
		},
		{
			name: "all matches",
			args: []string{"match", "-t", path, "--all", "users/me"},
			want: "users/me\t2\tusers/me\nusers/me\t1\tusers/*{id}\tid=\"me\"\nusers/me\t4\t*/*\t$0=\"users\" $1=\"me\"\n",
		},
		{
			name: "multi wildcard",
			args: []string{"match", "-t", path, "static/css/main.css"},
			want: "static/css/main.css\t3\tstatic/**{path}\tpath=\"css/main.css\"\n",
		},
		{
			name: "no match",
			args: []string{"match", "-t", path, "a/b/c"},
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := execute(t, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestMatchCommandMalformedInput(t *testing.T) {
	path := writeTemplates(t, templates)

	_, _, err := execute(t, "match", "-t", path, "a//b")
	assert.ErrorIs(t, err, segtrie.ErrMalformedInput)
}

func TestMatchCommandOptions(t *testing.T) {
	path := writeTemplates(t, "Users.List\nusers.#\n")

	out, _, err := execute(t, "--delimiter", ".", "--single", "#", "--multi", "##", "--ignore-case", "match", "-t", path, "--all", "USERS.list")
	require.NoError(t, err)
	assert.Equal(t, "USERS.list\t1\tUsers.List\nUSERS.list\t2\tusers.#\t$1=\"list\"\n", out)
}

func TestGlobalFlagsInvalid(t *testing.T) {
	path := writeTemplates(t, templates)

	cases := []struct {
		name string
		args []string
	}{
		{name: "delimiter too long", args: []string{"--delimiter", "::", "check", path}},
		{name: "unknown empty policy", args: []string{"--empty", "drop", "check", path}},
		{name: "same wildcard tokens", args: []string{"--single", "+", "--multi", "+", "check", path}},
		{name: "negative max segments", args: []string{"--max-segments", "-1", "check", path}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			assert.ErrorIs(t, err, segtrie.ErrInvalidConfig)
		})
	}
}

func TestDumpCommand(t *testing.T) {
	path := writeTemplates(t, "a/b\na/*\na/**\n")

	out, _, err := execute(t, "dump", "-t", path)
	require.NoError(t, err)
	assert.Equal(t, "root\n  a\n    b [1]\n    * [2]\n    ** [3]\n", out)
}

func TestExportCommand(t *testing.T) {
	path := writeTemplates(t, templates)

	out, _, err := execute(t, "export", "-t", path, "-o", "text")
	require.NoError(t, err)
	assert.Equal(t, "users/*{id}\thandler=user\nusers/me\nstatic/**{path}\n*/*\n", out)

	out, _, err = execute(t, "export", "-t", path)
	require.NoError(t, err)
	assert.Contains(t, out, "templates:")
	assert.Contains(t, out, "handler: user")
}
