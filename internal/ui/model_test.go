package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkhr/codeview/internal/render"
	"github.com/tkhr/codeview/internal/tree"
)

func newTestModel(t *testing.T, files map[string][]byte) (*Model, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, content, 0o644))
	}

	root := tree.NewRoot(filepath.Base(dir), tree.NewFSLoader(dir, false))
	m := NewModel(State{
		TreeVisible: true,
		TreeRoot:    root,
		RootDir:     dir,
		DisplayRoot: filepath.Base(dir),
		Theme:       render.ThemeDark,
		FocusTree:   true,
	})
	m.resize(100, 30)
	return m, dir
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// selectEntry positions the tree cursor on relPath and activates it.
func selectEntry(t *testing.T, m *Model, relPath string) tea.Cmd {
	t.Helper()
	idx := m.indexForPath(relPath)
	require.GreaterOrEqual(t, idx, 0, "entry %s not in tree", relPath)
	m.treeSelection = idx
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func tenLines() []byte {
	var b strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "x%d = %d\n", i, i)
	}
	return []byte(b.String())
}

func TestInitialStateHasNoSelection(t *testing.T) {
	m, _ := newTestModel(t, map[string][]byte{"main.py": tenLines()})

	assert.Empty(t, m.activePath)
	assert.Empty(t, m.statusText)
	assert.True(t, m.treeVisible)

	status := ansi.Strip(m.statusBar())
	assert.NotContains(t, status, "main.py")
	assert.Contains(t, status, "q quit")
}

func TestSelectFileRendersContentAndStatus(t *testing.T) {
	m, dir := newTestModel(t, map[string][]byte{"main.py": tenLines()})

	selectEntry(t, m, "main.py")

	assert.False(t, m.statusIsError)
	assert.Equal(t, filepath.Base(dir)+"/main.py", m.statusText)
	assert.Equal(t, 10, m.lineCount)
	assert.Equal(t, "Python", m.language)
	assert.Equal(t, 0, m.contentVP.YOffset)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "x1 = 1")
	assert.Contains(t, view, "x10 = 10")
	assert.Contains(t, view, "10 │ ")
}

func TestSelectBinaryShowsDiagnosticAndStaysAlive(t *testing.T) {
	m, _ := newTestModel(t, map[string][]byte{
		"blob.bin": {0x00, 0x01, 0x02, 0x03},
		"ok.go":    []byte("package ok\n"),
	})

	selectEntry(t, m, "blob.bin")

	assert.True(t, m.statusIsError)
	assert.Equal(t, statusError, m.statusText)
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "render failed")
	assert.Contains(t, view, statusError)

	// The session must remain interactive: navigation and a follow-up
	// selection still work.
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	_, _ = m.Update(runeKey("j"))
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	selectEntry(t, m, "ok.go")
	assert.False(t, m.statusIsError)
	assert.Equal(t, "Go", m.language)
}

func TestRepeatedSelectionIsIdempotent(t *testing.T) {
	m, _ := newTestModel(t, map[string][]byte{
		"a.go": []byte("package a\n\nvar A = 1\n"),
		"b.go": []byte("package b\n"),
	})

	selectEntry(t, m, "a.go")
	first := m.View()
	firstStatus := m.statusText

	selectEntry(t, m, "b.go")
	selectEntry(t, m, "a.go")

	assert.Equal(t, first, m.View())
	assert.Equal(t, firstStatus, m.statusText)
}

func TestToggleTreeTwiceRestoresLayout(t *testing.T) {
	m, _ := newTestModel(t, map[string][]byte{"main.go": []byte("package main\n")})
	selectEntry(t, m, "main.go")

	// Hiding the tree also blurs it, so take the baseline without focus.
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	before := m.View()
	_, _ = m.Update(runeKey("t"))
	assert.False(t, m.treeVisible)
	assert.NotEqual(t, before, m.View())

	_, _ = m.Update(runeKey("t"))
	assert.True(t, m.treeVisible)
	assert.Equal(t, before, m.View())
}

func TestDirectoryActivationExpandsInsteadOfSelecting(t *testing.T) {
	m, _ := newTestModel(t, map[string][]byte{"pkg/util.go": []byte("package pkg\n")})

	idx := m.indexForPath("pkg")
	require.GreaterOrEqual(t, idx, 0)
	m.treeSelection = idx
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, m.activePath, "activating a directory must not select a file")
	assert.GreaterOrEqual(t, m.indexForPath("pkg/util.go"), 0, "directory expanded")
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t, map[string][]byte{"main.go": []byte("package main\n")})
	_, cmd := m.Update(runeKey("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestHelpOverlay(t *testing.T) {
	m, _ := newTestModel(t, map[string][]byte{"main.go": []byte("package main\n")})

	_, _ = m.Update(runeKey("?"))
	assert.True(t, m.showHelp)
	assert.Contains(t, ansi.Strip(m.View()), "toggle tree pane")

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showHelp)
}

func TestFileEventReloadsActiveFile(t *testing.T) {
	m, dir := newTestModel(t, map[string][]byte{"main.py": tenLines()})
	selectEntry(t, m, "main.py")
	require.Equal(t, 10, m.lineCount)

	abs := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(abs, append(tenLines(), []byte("x11 = 11\n")...), 0o644))

	_ = m.handleFileEvent(fileEventMsg{path: abs, op: fsnotify.Write})
	assert.Equal(t, 11, m.lineCount)
}

func TestCreateEventRefreshesTree(t *testing.T) {
	m, dir := newTestModel(t, map[string][]byte{"main.go": []byte("package main\n")})
	selectEntry(t, m, "main.go")

	fresh := filepath.Join(dir, "new.go")
	require.NoError(t, os.WriteFile(fresh, []byte("package main\n"), 0o644))

	_ = m.handleFileEvent(fileEventMsg{path: fresh, op: fsnotify.Create})
	assert.GreaterOrEqual(t, m.indexForPath("new.go"), 0)
}

func TestAtomicSaveReloadsActiveFile(t *testing.T) {
	m, dir := newTestModel(t, map[string][]byte{"main.py": tenLines()})
	selectEntry(t, m, "main.py")
	require.Equal(t, 10, m.lineCount)

	// Editors that save atomically replace the file, which surfaces as a
	// create or rename on the watched path rather than a write.
	abs := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(abs, append(tenLines(), []byte("x11 = 11\n")...), 0o644))

	_ = m.handleFileEvent(fileEventMsg{path: abs, op: fsnotify.Create})
	assert.Equal(t, 11, m.lineCount)
}

type failingLoader struct{ err error }

func (l failingLoader) List(string) ([]*tree.Node, error) { return nil, l.err }

func TestUnreadableDirectorySurfacesStatusError(t *testing.T) {
	root := tree.NewRoot("locked", failingLoader{err: errors.New("permission denied")})
	m := NewModel(State{
		TreeVisible: true,
		TreeRoot:    root,
		RootDir:     "/nonexistent",
		DisplayRoot: "locked",
		Theme:       render.ThemeDark,
		FocusTree:   true,
	})
	m.resize(100, 30)

	require.Error(t, m.err)
	assert.Contains(t, ansi.Strip(m.View()), "permission denied")
}

type flakyLoader struct {
	inner tree.Loader
	fails int
}

func (l *flakyLoader) List(path string) ([]*tree.Node, error) {
	if l.fails > 0 {
		l.fails--
		return nil, errors.New("permission denied")
	}
	return l.inner.List(path)
}

func TestErrorLineClearsAfterRecovery(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	loader := &flakyLoader{inner: tree.NewFSLoader(dir, false), fails: 1}
	m := NewModel(State{
		TreeVisible: true,
		TreeRoot:    tree.NewRoot(filepath.Base(dir), loader),
		RootDir:     dir,
		DisplayRoot: filepath.Base(dir),
		Theme:       render.ThemeDark,
		FocusTree:   true,
	})
	m.resize(100, 30)
	require.Error(t, m.err)
	assert.Contains(t, ansi.Strip(m.View()), "permission denied")

	// The directory becomes readable again: a refreshed tree and a clean
	// render must drop the error line.
	m.refreshTreeViewWithSelection("")
	selectEntry(t, m, "main.go")

	assert.False(t, m.statusIsError)
	assert.NoError(t, m.err)
	assert.NotContains(t, ansi.Strip(m.View()), "permission denied")
}
