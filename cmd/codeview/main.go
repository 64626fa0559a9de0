package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tkhr/codeview/internal/app"
)

func newRootCmd() *cobra.Command {
	opts := app.Options{}

	cmd := &cobra.Command{
		Use:          "codeview [path]",
		Short:        "Browse a directory tree with syntax-highlighted file previews",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Root = args[0]
			}
			return app.Run(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Theme, "theme", "auto", "highlight theme: dark, light or auto")
	cmd.Flags().BoolVar(&opts.ShowHidden, "hidden", false, "show hidden files and directories")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "append debug logs to this file")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
