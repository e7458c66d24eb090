package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pevans/gamingnews/history"
)

func newHistoryCmd(cli *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or reset the ids of already published articles",
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "List remembered article ids, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistory(cli)
			if err != nil {
				return err
			}
			defer store.Close()

			switch format {
			case "table":
				printHistoryTable(cmd.OutOrStdout(), store.IDs())
			case "json":
				return printHistoryJSON(cmd.OutOrStdout(), store.IDs())
			default:
				return fmt.Errorf("unknown format %q (expected table or json)", format)
			}
			return nil
		},
	}
	show.Flags().StringVar(&format, "format", "table", "output format: table or json")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every remembered article id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistory(cli)
			if err != nil {
				return err
			}
			defer store.Close()

			n := store.Len()
			store.Clear()
			if err := store.Save(); err != nil {
				return fmt.Errorf("failed to save history: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %d ids\n", n)
			return nil
		},
	}

	cmd.AddCommand(show, clearCmd)
	return cmd
}

func openHistory(cli *cliOptions) (history.Store, error) {
	cfg, err := cli.loadConfig(nil)
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.HistoryConfig(), nil)
}
