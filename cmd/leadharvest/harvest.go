package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kvolkov/leadharvest/internal/config"
	"github.com/kvolkov/leadharvest/internal/monitoring"
	"github.com/kvolkov/leadharvest/internal/output"
	"github.com/kvolkov/leadharvest/internal/scraper"
	"github.com/kvolkov/leadharvest/internal/store"
	"github.com/kvolkov/leadharvest/internal/utils"
)

func newHarvestCmd() *cobra.Command {
	var (
		configPath string
		urlsPath   string
		jsonOut    string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Run a harvesting pass over a URL list",
		Example: `  leadharvest harvest --urls targets.txt --config leadharvest.yaml
  leadharvest harvest --urls targets.txt --json results.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if jsonOut != "" {
				cfg.Output.JSONFile = jsonOut
			}

			urls, err := utils.ReadURLList(urlsPath)
			if err != nil {
				return err
			}

			return runHarvest(cmd.Context(), cfg, urls, !noProgress)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration")
	cmd.Flags().StringVarP(&urlsPath, "urls", "u", "", "path to URL list, one per line")
	cmd.Flags().StringVar(&jsonOut, "json", "", "write results to this JSON file")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	_ = cmd.MarkFlagRequired("urls")

	return cmd
}

func runHarvest(parent context.Context, cfg *config.Config, urls []string, progress bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := utils.NewLogger(cfg.Logging)

	var metrics *monitoring.Metrics
	if cfg.Monitoring.Enabled {
		metrics = monitoring.NewMetrics("leadharvest")
		srv := monitoring.NewServer(cfg.Monitoring.Addr, metrics, logger)
		srv.Start()
		defer srv.Shutdown(context.Background())
	}

	sinks, err := output.NewManager(ctx, cfg.Output, logger)
	if err != nil {
		return err
	}
	defer sinks.Close()

	opts := []scraper.Option{
		scraper.WithLogger(logger),
		scraper.WithMetrics(metrics),
	}

	if cfg.Status.Enabled() {
		st, err := store.NewRedisStore(ctx, cfg.Status)
		if err != nil {
			return err
		}
		defer st.Close()
		opts = append(opts, scraper.WithStatusStore(st))
	}

	var bar *progressbar.ProgressBar
	if progress {
		bar = progressbar.NewOptions(len(urls),
			progressbar.OptionSetDescription("harvesting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		opts = append(opts, scraper.WithTerminalHook(func() {
			_ = bar.Add(1)
		}))
	}

	engine, err := scraper.NewEngine(cfg, opts...)
	if err != nil {
		return err
	}

	result, runErr := engine.Submit(ctx, urls)
	if bar != nil {
		_ = bar.Finish()
	}
	if runErr != nil {
		return runErr
	}

	if sinks.Sinks() > 0 {
		if err := sinks.Write(ctx, result); err != nil {
			return err
		}
	}

	printSummary(result)
	return nil
}

func printSummary(result *scraper.RunResult) {
	m := result.Metrics
	fmt.Printf("\nharvested %d of %d urls in %s (%.2f urls/s, %.0f%% success)\n",
		m.TasksCompleted, m.TasksCompleted+m.TasksFailed, m.Elapsed.Round(10*time.Millisecond),
		m.Throughput, m.SuccessRate*100)
	fmt.Printf("sessions: %d created, %d recycled\n", m.SessionsCreated, m.SessionsRecycled)
	if len(result.Failures) > 0 {
		fmt.Printf("failed urls:\n")
		for _, f := range result.Failures {
			fmt.Printf("  %s (%d attempts): %s\n", f.URL, f.Attempts, f.Reason)
		}
	}
}
