package ui

import (
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

type fileEventMsg struct {
	path string
	op   fsnotify.Op
}

type fileWatchErrMsg struct {
	err error
}

// fsWatcher follows the tree root and the active file's directory. Events
// are pumped into a channel and surfaced to Update as tea.Msgs; the goroutine
// never touches model state.
type fsWatcher struct {
	fsw     *fsnotify.Watcher
	ch      chan tea.Msg
	rootDir string
	fileDir string
	file    string
}

func (m *Model) ensureWatcher() error {
	if m.watcher != nil {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	m.watcher = &fsWatcher{fsw: fsw, ch: make(chan tea.Msg, 10)}
	go m.watcher.loop()
	return nil
}

func (w *fsWatcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.ch <- fileEventMsg{path: event.Name, op: event.Op}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.ch <- fileWatchErrMsg{err: err}
		}
	}
}

// startWatchingRoot registers the tree root so entries created or removed
// under it show up without a manual refresh.
func (m *Model) startWatchingRoot() tea.Cmd {
	if err := m.ensureWatcher(); err != nil {
		m.err = err
		return nil
	}
	if err := m.watcher.fsw.Add(m.rootDir); err != nil {
		m.err = err
		return nil
	}
	m.watcher.rootDir = m.rootDir
	return m.waitForFileEvent()
}

// startWatching follows the active file's directory so on-disk edits are
// reflected in the content pane.
func (m *Model) startWatching(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	path = filepath.Clean(path)
	if err := m.ensureWatcher(); err != nil {
		m.err = err
		return nil
	}

	w := m.watcher
	dir := filepath.Dir(path)
	if dir != w.fileDir {
		if w.fileDir != "" && w.fileDir != w.rootDir {
			_ = w.fsw.Remove(w.fileDir)
		}
		if dir != w.rootDir {
			if err := w.fsw.Add(dir); err != nil {
				m.err = err
				return nil
			}
		}
		w.fileDir = dir
	}

	w.file = path
	return m.waitForFileEvent()
}

func (m *Model) waitForFileEvent() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	ch := m.watcher.ch
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) handleFileEvent(msg fileEventMsg) tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	path := filepath.Clean(msg.path)

	// Atomic saves arrive as create or rename rather than write, so any
	// matching op on the active file triggers a reload.
	if m.watcher.file != "" && path == m.watcher.file {
		m.reloadActiveFile()
	}
	if msg.op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		m.refreshDir(filepath.Dir(path))
	}
	return m.waitForFileEvent()
}

// reloadActiveFile re-renders the active selection after an on-disk change,
// keeping the reader's place when the render still succeeds.
func (m *Model) reloadActiveFile() {
	if m.activePath == "" {
		return
	}
	offset := m.contentVP.YOffset
	m.showFile(m.activePath, m.activeRelPath)
	if !m.statusIsError {
		m.contentVP.SetYOffset(offset)
	}
}

// refreshDir re-reads one directory of the tree after a create/remove event.
// Directories that were never expanded have nothing cached to refresh.
func (m *Model) refreshDir(absDir string) {
	if m.treeRoot == nil || m.rootDir == "" {
		return
	}
	rel, err := filepath.Rel(m.rootDir, absDir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	node := m.treeRoot.FindDir(filepath.ToSlash(rel))
	if node == nil {
		return
	}
	if err := node.Invalidate(); err != nil {
		logrus.WithField("dir", absDir).WithError(err).Warn("tree refresh failed")
		m.err = err
		return
	}
	m.err = nil

	selected := ""
	if entry := m.currentTreeEntry(); entry != nil {
		selected = entry.Path
	}
	maxWidth := m.rebuildFlatTree()
	if idx := m.indexForPath(selected); idx >= 0 {
		m.treeSelection = idx
	} else {
		m.treeSelection = clamp(m.treeSelection, 0, len(m.flatTree)-1)
	}
	m.treeContentWidth = maxWidth
	m.updateTreeContent(maxWidth)
}
