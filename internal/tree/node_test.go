package tree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestEnsureLoadedSortsDirectoriesFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "zeta.go", "package zeta")
	writeFile(t, dir, "Alpha.go", "package alpha")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "src"), 0o755))

	root := NewRoot("proj", NewFSLoader(dir, false))
	require.NoError(t, root.EnsureLoaded())

	names := make([]string, 0, len(root.Children))
	for _, child := range root.Children {
		names = append(names, child.Name)
	}
	assert.Equal(t, []string{"src", "Alpha.go", "zeta.go"}, names)
	assert.True(t, root.Children[0].IsDir)
}

func TestLoaderSkipsHiddenAndVCSDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, ".env", "SECRET=1")
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "node_modules"), 0o755))

	root := NewRoot("proj", NewFSLoader(dir, false))
	require.NoError(t, root.EnsureLoaded())
	require.Len(t, root.Children, 1)
	assert.Equal(t, "main.go", root.Children[0].Name)
}

func TestLoaderShowHiddenKeepsDotfiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "SECRET=1")
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	root := NewRoot("proj", NewFSLoader(dir, true))
	require.NoError(t, root.EnsureLoaded())

	// VCS directories stay skipped even with hidden files visible.
	require.Len(t, root.Children, 1)
	assert.Equal(t, ".env", root.Children[0].Name)
}

func TestEnsureLoadedCachesChildren(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a")

	root := NewRoot("proj", NewFSLoader(dir, false))
	require.NoError(t, root.EnsureLoaded())
	require.Len(t, root.Children, 1)

	writeFile(t, dir, "b.go", "package b")
	require.NoError(t, root.EnsureLoaded())
	assert.Len(t, root.Children, 1, "loaded nodes must not re-read the directory")
}

func TestInvalidateReloadsAndPreservesOpenState(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "pkg.go", "package pkg")
	writeFile(t, dir, "a.go", "package a")

	root := NewRoot("proj", NewFSLoader(dir, false))
	require.NoError(t, root.EnsureLoaded())

	pkg := root.ChildByName("pkg")
	require.NotNil(t, pkg)
	pkg.Open = true
	require.NoError(t, pkg.EnsureLoaded())
	require.Len(t, pkg.Children, 1)

	writeFile(t, dir, "b.go", "package b")
	require.NoError(t, root.Invalidate())

	assert.NotNil(t, root.ChildByName("b.go"))
	fresh := root.ChildByName("pkg")
	require.NotNil(t, fresh)
	assert.True(t, fresh.Open)
	assert.Len(t, fresh.Children, 1, "open subdirectory keeps its loaded children")
	assert.Equal(t, fresh, fresh.Children[0].Parent)
}

func TestFindDir(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeFile(t, nested, "c.go", "package c")

	root := NewRoot("proj", NewFSLoader(dir, false))
	require.NoError(t, root.EnsureLoaded())
	require.NoError(t, root.ChildByName("a").EnsureLoaded())

	assert.Equal(t, root, root.FindDir(""))
	assert.Equal(t, root, root.FindDir("."))
	assert.Equal(t, "a/b", root.FindDir("a/b").Path)
	assert.Nil(t, root.FindDir("a/missing"))
	assert.Nil(t, root.FindDir("a/b/c.go"), "files are not directories")
}
