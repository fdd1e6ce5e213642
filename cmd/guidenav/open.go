package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/guidenav/internal/terminal"
)

// errReported marks a failure already shown to the user.
var errReported = errors.New("reported")

var openPage int

var openCmd = &cobra.Command{
	Use:   "open <group> <entry>",
	Short: "Open a guide entry in the terminal",
	Long: `Resolve a guide entry and run its actions: documents are printed as
pages, notebooks are opened with notebook.opener (or previewed), and
flagged entries run the dependency check.

Group and entry are matched by title or slug, or by zero-based index.

Examples:
  guidenav open "Week 1" Setup
  guidenav open week-1 setup --page 2
  guidenav open 0 3`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd.ErrOrStderr(), "text", nil)
		if err != nil {
			return err
		}

		host := terminal.New(s.fsys, cmd.OutOrStdout(), cmd.ErrOrStderr(), terminal.Options{
			Root:           s.cfg.Workspace,
			NotebookOpener: s.cfg.Notebook.Opener,
			Pager:          s.cfg.PagerConfig(),
			Page:           openPage,
			Runner:         s.runner,
			Logger:         s.log,
		})
		nav := s.navigator(s.dispatcher(host, nil))
		if err := nav.Refresh(cmd.Context()); err != nil {
			return err
		}

		ref, ok := nav.Lookup(args[0], args[1])
		if !ok {
			if nav.Tree().IsEmpty() {
				return fmt.Errorf("no entries: %s not found in %s", s.source.TOCPath(), s.cfg.Workspace)
			}
			return fmt.Errorf("no entry %q in group %q", args[1], args[0])
		}

		_, err = nav.Select(cmd.Context(), ref)
		host.Wait()
		if err != nil || len(host.Errors()) > 0 {
			return errReported
		}
		return nil
	},
}

func init() {
	openCmd.Flags().IntVarP(&openPage, "page", "p", 0, "print only this page (1-based)")
}
