package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	workspaceDir string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "guidenav",
	Short: "Browse a course guide defined in .guide/toc.json",
	Long: `guidenav reads a course outline from the workspace's .guide directory
and opens its steps: markdown and other documents, Jupyter notebooks, and
an environment dependency check.

The outline may be written as an object with "categories" of steps or as
an array of modules with lessons. An optional .guide/assignments.json is
appended as a final group.`,
	Version:       gitRelease,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./guidenav.yaml or ~/.guidenav/guidenav.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&workspaceDir, "workspace", "w", "", "workspace root (default: current directory)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn or error",
	)

	rootCmd.AddCommand(outlineCmd, openCmd, serveCmd, browseCmd, versionCmd)
}
