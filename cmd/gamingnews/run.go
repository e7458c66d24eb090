package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pevans/gamingnews"
	"github.com/pevans/gamingnews/config"
	"github.com/pevans/gamingnews/logger"
)

type runOptions struct {
	count    int
	maxPages int
	seed     uint64
	date     string
}

func newRunCmd(cli *cliOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect new articles and write today's content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if opts.date != "" {
				d, err := time.ParseInLocation(gamingnews.DateLayout, opts.date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				now = d
			}

			cfg, err := cli.loadConfig(func(cfg *config.Config) {
				if cmd.Flags().Changed("count") {
					cfg.Crawl.NewsCount = opts.count
				}
				if cmd.Flags().Changed("max-pages") {
					cfg.Crawl.MaxPages = opts.maxPages
				}
				if cmd.Flags().Changed("seed") {
					cfg.Crawl.Seed = opts.seed
				}
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runOnce(ctx, cmd, cfg, now)
		},
	}

	cmd.Flags().IntVar(&opts.count, "count", 0, "number of articles to collect")
	cmd.Flags().IntVar(&opts.maxPages, "max-pages", 0, "listing page ceiling")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (0 uses real entropy)")
	cmd.Flags().StringVar(&opts.date, "date", "", "date of the content directory (YYYY-MM-DD)")

	return cmd
}

func runOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, now time.Time) error {
	log, err := newRunLogger(cfg, now)
	if err != nil {
		return err
	}
	defer log.Sync()

	runner, err := gamingnews.NewRunner(cfg, gamingnews.Options{Logger: log})
	if err != nil {
		log.Error("Failed to start", logger.Err(err))
		return err
	}
	defer runner.Close()

	res, err := runner.Run(ctx, now)
	if err != nil {
		log.Error("Run failed", logger.Err(err))
		return err
	}

	printRunSummary(cmd.OutOrStdout(), res)
	return nil
}

// newRunLogger logs to the configured outputs and to the day's log file.
func newRunLogger(cfg *config.Config, now time.Time) (logger.Logger, error) {
	lc := cfg.Log
	lc.OutputPaths = append([]string(nil), lc.OutputPaths...)
	if len(lc.OutputPaths) == 0 {
		lc.OutputPaths = append(lc.OutputPaths, logger.DefaultOutputPaths...)
	}
	lc.OutputPaths = append(lc.OutputPaths, filepath.Join(cfg.LogDir(), now.Format(gamingnews.DateLayout)+".log"))

	log, err := logger.New(lc)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}
