package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tkhr/codeview/internal/render"
	"github.com/tkhr/codeview/internal/tree"
	"github.com/tkhr/codeview/internal/ui"
)

// LoadInitialState analyses the target path and prepares the UI state. The
// browser always starts with no selection and an empty content view; passing
// a file positions the tree cursor on it without opening it.
func LoadInitialState(target string, theme render.Theme, showHidden bool) (ui.State, error) {
	if target == "" {
		target = "."
	}

	info, err := os.Stat(target)
	if err != nil {
		return ui.State{}, fmt.Errorf("start path: %w", err)
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return ui.State{}, err
	}

	rootDir := absTarget
	selection := ""
	if !info.IsDir() {
		rootDir = filepath.Dir(absTarget)
		selection = filepath.Base(absTarget)
	}

	rootName := filepath.Base(rootDir)
	loader := tree.NewFSLoader(rootDir, showHidden)
	root := tree.NewRoot(rootName, loader)

	return ui.State{
		TreeVisible:       true,
		TreeRoot:          root,
		TreeSelectionPath: selection,
		RootDir:           rootDir,
		DisplayRoot:       rootName,
		Theme:             theme,
		FocusTree:         true,
	}, nil
}
