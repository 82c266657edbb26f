package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/nudgekit/internal/store"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the local nudge event log",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent nudge events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		event, _ := cmd.Flags().GetString("event")
		typ, _ := cmd.Flags().GetString("type")

		repo, d, err := openEventRepo(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		events, err := repo.QueryNudgeEvents(cmdContext(cmd), store.QueryOpts{
			Limit: limit,
			Event: event,
			Type:  typ,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		printEvents(cmd.OutOrStdout(), events)
		return nil
	},
}

var eventsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show event counts per nudge type",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, d, err := openEventRepo(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		counts, err := repo.NudgeEventCounts(cmdContext(cmd))
		if err != nil {
			return fmt.Errorf("count events: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(counts) == 0 {
			fmt.Fprintln(out, "No nudge events found.")
			return nil
		}
		fmt.Fprintf(out, "%-24s  %-10s  %6s\n", "Type", "Event", "Count")
		fmt.Fprintln(out, strings.Repeat("─", 44))
		for _, c := range counts {
			fmt.Fprintf(out, "%-24s  %-10s  %6d\n", c.NudgeType, c.Event, c.Count)
		}
		return nil
	},
}

func init() {
	eventsListCmd.Flags().IntP("limit", "n", 20, "Maximum number of events to show")
	eventsListCmd.Flags().String("event", "", "Filter by event: shown, dismissed or converted")
	eventsListCmd.Flags().String("type", "", "Filter by nudge type")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsStatsCmd)
}

// openEventRepo opens the deps and returns the event log, which only the
// sqlite driver keeps.
func openEventRepo(cmd *cobra.Command) (store.EventRepo, *deps, error) {
	d, err := openDeps(cmd)
	if err != nil {
		return nil, nil, err
	}
	if d.events == nil {
		d.Close()
		return nil, nil, fmt.Errorf("the %s storage driver keeps no event log", d.cfg.Storage.Driver)
	}
	return d.events, d, nil
}

func printEvents(out io.Writer, events []store.NudgeEventRecord) {
	if len(events) == 0 {
		fmt.Fprintln(out, "No nudge events found.")
		return
	}

	// Header.
	fmt.Fprintf(out, "%-5s  %-19s  %-10s  %-24s  %-5s  %s\n",
		"ID", "Timestamp", "Event", "Type", "Tier", "Fields")
	fmt.Fprintln(out, strings.Repeat("─", 100))

	for _, e := range events {
		fields := "-"
		if len(e.Fields) > 0 {
			b, err := json.Marshal(e.Fields)
			if err == nil {
				fields = string(b)
			}
		}
		fmt.Fprintf(out, "%-5d  %-19s  %-10s  %-24s  %-5s  %s\n",
			e.ID,
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Event,
			e.NudgeType,
			e.Tier,
			fields,
		)
	}
}
