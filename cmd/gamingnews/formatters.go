package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pevans/gamingnews"
	"github.com/pevans/gamingnews/caption"
)

const summaryTitleWidth = 70

// printRunSummary prints what a run produced in human-readable form
func printRunSummary(w io.Writer, res *gamingnews.RunResult) {
	fmt.Fprintf(w, "✓ %d news from %s (%d duplicates skipped)\n", len(res.New), res.Source, len(res.Duplicates))
	fmt.Fprintf(w, "  Run: %s\n", res.RunID)
	fmt.Fprintf(w, "  Directory: %s\n", res.Dir)
	fmt.Fprintf(w, "  Captions: %s\n", res.CaptionsPath)
	fmt.Fprintln(w)

	for i, item := range res.New {
		fmt.Fprintf(w, "%2d. %s\n", i+1, caption.Truncate(item.Title, summaryTitleWidth))
		fmt.Fprintf(w, "    %s\n", item.Link)
	}
}

// printHistoryTable prints ids in table format, oldest first
func printHistoryTable(w io.Writer, ids []string) {
	if len(ids) == 0 {
		fmt.Fprintln(w, "History is empty.")
		return
	}

	fmt.Fprintf(w, "%-6s %s\n", "#", "NEWS ID")
	fmt.Fprintln(w, "----------------------------------------")
	for i, id := range ids {
		fmt.Fprintf(w, "%-6d %s\n", i+1, id)
	}
	fmt.Fprintf(w, "\n%d ids\n", len(ids))
}

// printHistoryJSON prints ids in the history file's JSON shape
func printHistoryJSON(w io.Writer, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	output := map[string]any{
		"news_ids": ids,
		"total":    len(ids),
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	fmt.Fprintln(w, string(data))
	return nil
}
