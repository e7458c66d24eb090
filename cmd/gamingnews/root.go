package main

import (
	"github.com/spf13/cobra"

	"github.com/pevans/gamingnews/config"
)

// cliOptions holds flags shared by every command.
type cliOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "gamingnews",
		Short: "Collect gaming news and write ready-to-post content",
		Long: `gamingnews crawls the configured news listing for articles it has not
seen before, enriches them from their own pages and writes a dated content
directory with news.json, captions, descriptions and images.

Configuration is read from ~/.gamingnews/config.yaml (or GAMINGNEWS_CONFIG),
then GAMINGNEWS_* environment variables, then command-line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.gamingnews/config.yaml)")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newInitCmd(opts))

	return cmd
}

// loadConfig loads and validates the configuration named by --config.
func (o *cliOptions) loadConfig(apply func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
