package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kvolkov/leadharvest/internal/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Check a configuration file without running anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s is valid (workers=%d, pool=%d, batch=%d)\n",
				args[0], cfg.Engine.MaxWorkers, cfg.Engine.SessionPoolSize, cfg.Engine.BatchSize)
			return nil
		},
	}
}
