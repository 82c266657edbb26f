package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abhisek/nudgekit/internal/nudge"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show nudge statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		loc, err := d.cfg.Scheduler.Location()
		if err != nil {
			return err
		}
		h := nudge.LoadHistory(cmdContext(cmd), d.storage, d.historyConfig())
		st := nudge.ComputeStats(h.Entries(), d.catalog.Types(), time.Now().In(loc))
		printStats(cmd.OutOrStdout(), st)
		return nil
	},
}

func printStats(out io.Writer, st nudge.Stats) {
	fmt.Fprintf(out, "Shown:       %d (%d in 24h, %d in 7d)\n", st.Total, st.Last24h, st.Last7d)
	fmt.Fprintf(out, "Dismissed:   %d (%s)\n", st.Dismissed, percent(st.DismissalRate))
	fmt.Fprintf(out, "Converted:   %d (%s)\n", st.Converted, percent(st.ConversionRate))

	if len(st.ByType) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-24s  %6s  %9s  %9s  %8s\n", "Type", "Shown", "Dismissed", "Converted", "Conv %")
	fmt.Fprintln(out, strings.Repeat("─", 64))
	for _, t := range sortedTypes(st.ByType) {
		ts := st.ByType[t]
		fmt.Fprintf(out, "%-24s  %6d  %9d  %9d  %8s\n",
			t, ts.Shown, ts.Dismissed, ts.Converted, percent(ts.ConversionRate))
	}
}

var hundred = decimal.NewFromInt(100)

// percent formats a 0..1 rate as a percentage with one decimal place.
func percent(rate decimal.Decimal) string {
	return rate.Mul(hundred).StringFixed(1) + "%"
}
