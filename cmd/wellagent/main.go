package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "wellagent",
		Short:         "Wellness agent orchestration and adaptation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("WELLAGENT_CONFIG"), "path to a YAML config file")
	cfg := func() string { return configPath }

	root.AddCommand(
		newServeCmd(cfg),
		newCycleCmd(cfg),
		newReflectCmd(cfg),
		newMigrateCmd(cfg),
		newMCPCmd(cfg),
		newPromptsCmd(cfg),
		newEvalCmd(cfg),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "wellagent %s (commit=%s, date=%s)\n", version, commit, date)
			},
		},
	)
	return root
}
