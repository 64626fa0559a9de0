package ui

import (
	"github.com/tkhr/codeview/internal/render"
	"github.com/tkhr/codeview/internal/tree"
)

// State contains the data required to bootstrap the Bubble Tea model.
type State struct {
	TreeVisible        bool
	TreePreferredWidth int
	TreeRoot           *tree.Node
	TreeSelectionPath  string
	RootDir            string
	DisplayRoot        string
	Theme              render.Theme
	FocusTree          bool
}
