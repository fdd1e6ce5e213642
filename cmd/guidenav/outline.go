package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/guidenav/internal/navigator"
)

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Print the normalized guide outline",
	Long: `Print the guide outline after normalization: groups in display order,
each with its entries and the document, notebook and dependency check they
point at.

Examples:
  guidenav outline
  guidenav outline -o json
  guidenav outline -w ~/courses/edsml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd.ErrOrStderr(), "text", nil)
		if err != nil {
			return err
		}

		nav := s.navigator(nil)
		var reason string
		nav.Subscribe(func(ev navigator.Event) {
			if ev.Kind == navigator.OutlineLoaded {
				reason = ev.Reason
			}
		})
		if err := nav.Refresh(cmd.Context()); err != nil {
			return err
		}
		if reason != "" {
			s.log.Warn("empty outline", "reason", reason)
		}
		return writeOutput(cmd.OutOrStdout(), outputFormat, nav.Tree().Snapshot())
	},
}
