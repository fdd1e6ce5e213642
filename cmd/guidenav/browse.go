package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dgallion1/guidenav/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the guide in an interactive terminal UI",
	Long: `Browse the guide outline in the terminal. Enter opens a step in the
content pane, r reloads the guide and q quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Log lines would corrupt the alternate screen.
		s, err := newSession(io.Discard, "text", nil)
		if err != nil {
			return err
		}

		host := tui.NewHost(s.fsys, s.cfg.PagerConfig(), s.runner, s.log)
		nav := s.navigator(s.dispatcher(host, nil))
		opts := tui.Options{
			Workspace: s.fsys != nil,
			TOCPath:   s.source.TOCPath(),
		}
		if err := nav.Refresh(cmd.Context()); err != nil {
			opts.Status = err.Error()
		}
		return tui.Run(cmd.Context(), nav, host, opts)
	},
}
