// Copyright 2026 The distcheck Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestConfig(dir string, args []string, stdout, stderr *os.File) *Config {
	return &Config{WorkingDir: dir, Args: args, Stdout: stdout, Stderr: stderr}
}

// captured runs fn with two temp files to use as stdout and stderr and
// returns their contents, the way golang-dep's cmd tests capture CLI output.
func captured(t *testing.T, fn func(stdout, stderr *os.File)) (string, string) {
	t.Helper()
	dir := t.TempDir()

	outFile, err := os.Create(filepath.Join(dir, "stdout"))
	require.NoError(t, err)
	defer outFile.Close()
	errFile, err := os.Create(filepath.Join(dir, "stderr"))
	require.NoError(t, err)
	defer errFile.Close()

	fn(outFile, errFile)

	var out, errb bytes.Buffer
	outFile.Seek(0, 0)
	out.ReadFrom(outFile)
	errFile.Seek(0, 0)
	errb.ReadFrom(errFile)
	return out.String(), errb.String()
}

func TestCheckCommandReportsInstallable(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "Packages_amd64"),
		"Package: foo\nVersion: 1.0\nDepends: bar\n\nPackage: bar\nVersion: 1.0\n\n")

	var exit int
	out, _ := captured(t, func(stdout, stderr *os.File) {
		c := newTestConfig(dir, []string{"distcheck", "check", "-arch=amd64", dir}, stdout, stderr)
		exit = c.Run()
	})
	assert.Equal(t, 0, exit)
	assert.Contains(t, out, "foo: Yes")
	assert.Contains(t, out, "bar: Yes")
}

func TestCheckCommandReportsUnsatisfiable(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "Packages_amd64"),
		"Package: foo\nVersion: 1.0\nDepends: missing\n\n")

	var exit int
	out, _ := captured(t, func(stdout, stderr *os.File) {
		c := newTestConfig(dir, []string{"distcheck", "check", "-arch=amd64", dir, "foo"}, stdout, stderr)
		exit = c.Run()
	})
	assert.NotEqual(t, 0, exit)
	assert.Contains(t, out, "foo: No")
}

func TestUpgradeCommandWritesTarget(t *testing.T) {
	from := t.TempDir()
	writeTestFile(t, filepath.Join(from, "Sources"), "Package: s1\nVersion: 1.0\n\n")
	writeTestFile(t, filepath.Join(from, "Packages_amd64"), "Package: b1\nVersion: 1.0\nSource: s1\n\n")

	target := t.TempDir()
	cfgPath := filepath.Join(target, "distcheck.toml")
	writeTestFile(t, cfgPath, "[catalogue]\narches = [\"amd64\"]\n")

	var exit int
	out, _ := captured(t, func(stdout, stderr *os.File) {
		c := newTestConfig(target, []string{"distcheck", "upgrade", "-config=" + cfgPath, from, target, "s1"}, stdout, stderr)
		exit = c.Run()
	})
	require.Equal(t, 0, exit)
	assert.Contains(t, out, "upgraded s1")

	data, err := os.ReadFile(filepath.Join(target, "Packages_amd64"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Package: b1")
}

func TestApplyCommandUndoesLastOperation(t *testing.T) {
	from := t.TempDir()
	writeTestFile(t, filepath.Join(from, "Sources"), "Package: s1\nVersion: 1.0\n\n")
	writeTestFile(t, filepath.Join(from, "Packages_amd64"), "Package: b1\nVersion: 1.0\nSource: s1\n\n")

	target := t.TempDir()
	cfgPath := filepath.Join(target, "distcheck.toml")
	writeTestFile(t, cfgPath, "[catalogue]\narches = [\"amd64\"]\n")

	op := "upgrade:" + from + ":s1,undo"
	var exit int
	captured(t, func(stdout, stderr *os.File) {
		c := newTestConfig(target, []string{"distcheck", "apply", "-config=" + cfgPath, target, op}, stdout, stderr)
		exit = c.Run()
	})
	require.Equal(t, 0, exit)

	data, err := os.ReadFile(filepath.Join(target, "Packages_amd64"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Package: b1")
}
