package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/nudgekit/internal/nudge"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the retained nudge history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		h := nudge.LoadHistory(cmdContext(cmd), d.storage, d.historyConfig())
		printHistory(cmd.OutOrStdout(), h.Entries(), limit)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of most recent entries to show (0 = all)")
}

// printHistory prints the newest limit entries, newest first.
func printHistory(out io.Writer, entries []nudge.HistoryEntry, limit int) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No nudges shown yet.")
		return
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	fmt.Fprintf(out, "%-19s  %-24s  %-10s  %s\n", "Shown", "Type", "Outcome", "ID")
	fmt.Fprintln(out, strings.Repeat("─", 96))

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Fprintf(out, "%-19s  %-24s  %-10s  %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Type,
			outcomeLabel(e),
			e.ID,
		)
	}
}

func outcomeLabel(e nudge.HistoryEntry) string {
	switch {
	case e.Converted:
		return "converted"
	case e.Preempted:
		return "preempted"
	case e.Dismissed:
		return "dismissed"
	default:
		return "-"
	}
}
