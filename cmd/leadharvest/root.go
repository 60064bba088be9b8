package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "leadharvest",
		Short: "Concurrent contact harvester with anti-detection browser sessions",
		Long: `leadharvest visits a list of URLs with fingerprinted Chrome sessions,
extracts contact information from each page, and writes the results to the
configured sinks. Sessions are pooled, paced and recycled to keep the
traffic looking human.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newHarvestCmd())
	root.AddCommand(newValidateCmd())
	return root
}
