package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/guidenav/internal/outline"
)

func TestWriteOutput(t *testing.T) {
	data := []outline.GroupSnapshot{{
		Title:   "Week 1",
		Entries: []outline.Entry{{Title: "Setup", DocumentPath: "w1/setup.md", GroupTitle: "Week 1"}},
	}}

	var y bytes.Buffer
	require.NoError(t, writeOutput(&y, "yaml", data))
	assert.Contains(t, y.String(), "- title: Week 1\n")
	assert.Contains(t, y.String(), "document: w1/setup.md")

	var j bytes.Buffer
	require.NoError(t, writeOutput(&j, "json", data))
	assert.Contains(t, j.String(), `"document": "w1/setup.md"`)

	assert.Error(t, writeOutput(&j, "xml", data))
}

func writeWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".guide"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".guide", "toc.json"), []byte(
		`[{"label":"Module A","lessons":[{"label":"Intro","markdown":"docs/intro.md"}]}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "intro.md"), []byte("# Welcome\n\nHello there.\n"), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(func() {
		workspaceDir, outputFormat, logLevel, cfgFile, openPage = "", "yaml", "", "", 0
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestOutlineCommand(t *testing.T) {
	dir := writeWorkspace(t)

	out, err := execute(t, "outline", "-w", dir, "--log-level", "error")
	require.NoError(t, err)

	var groups []outline.GroupSnapshot
	require.NoError(t, yaml.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "Module A", groups[0].Title)
	require.Len(t, groups[0].Entries, 1)
	assert.Equal(t, "docs/intro.md", groups[0].Entries[0].DocumentPath)
}

func TestOpenCommand(t *testing.T) {
	dir := writeWorkspace(t)

	out, err := execute(t, "open", "module-a", "intro", "-w", dir, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "MODULE A\nIntro\n")
	assert.Contains(t, out, "Hello there.")
}

func TestOpenCommand_UnknownEntry(t *testing.T) {
	dir := writeWorkspace(t)

	_, err := execute(t, "open", "module-a", "missing", "-w", dir, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no entry "missing"`)
}
