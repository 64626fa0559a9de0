package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/tkhr/codeview/internal/render"
	"github.com/tkhr/codeview/internal/ui"
)

// Options carries the CLI configuration into the application.
type Options struct {
	Root       string
	Theme      string
	ShowHidden bool
	LogFile    string
}

// Run executes the Bubble Tea program for the code browser.
func Run(opts Options) error {
	if err := setupLogging(opts.LogFile); err != nil {
		return err
	}

	theme, err := render.ParseTheme(opts.Theme)
	if err != nil {
		return err
	}

	state, err := LoadInitialState(opts.Root, theme, opts.ShowHidden)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"root":  state.RootDir,
		"theme": theme.String(),
	}).Info("starting browser")

	return runProgram(state)
}

func runProgram(state ui.State) error {
	program := tea.NewProgram(ui.NewModel(state), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
