package tree

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var errNotDir = errors.New("path is not a directory")

// FSLoader loads tree nodes by reading the filesystem under the given root.
type FSLoader struct {
	root       string
	showHidden bool
}

// NewFSLoader creates a loader that reads from the provided root directory.
// Hidden (dot-prefixed) entries are omitted unless showHidden is set.
func NewFSLoader(root string, showHidden bool) *FSLoader {
	return &FSLoader{
		root:       root,
		showHidden: showHidden,
	}
}

// List returns immediate child entries for the provided relative path.
func (l *FSLoader) List(relPath string) ([]*Node, error) {
	dir := l.abs(relPath)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errNotDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var nodes []*Node
	for _, entry := range entries {
		name := entry.Name()
		if !l.showHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			if shouldSkipDir(name) {
				continue
			}
			nodes = append(nodes, &Node{
				Name:  name,
				Path:  join(relPath, name),
				IsDir: true,
			})
			continue
		}
		nodes = append(nodes, &Node{
			Name:  name,
			Path:  join(relPath, name),
			IsDir: false,
		})
	}
	return nodes, nil
}

func (l *FSLoader) abs(relPath string) string {
	if relPath == "" {
		return l.root
	}
	return filepath.Join(l.root, filepath.FromSlash(relPath))
}

func join(base, part string) string {
	if base == "" {
		return part
	}
	return base + "/" + part
}

func shouldSkipDir(name string) bool {
	switch strings.ToLower(name) {
	case ".git", "node_modules", ".hg", ".svn", ".idea", ".vscode":
		return true
	default:
		return false
	}
}
