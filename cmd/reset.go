package cmd

import (
	"fmt"

	"github.com/abhisek/nudgekit/internal/nudge"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the nudge history",
	Long:  "Clear the persisted nudge history so every nudge is eligible again. The event log is kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmdContext(cmd)
		h := nudge.LoadHistory(ctx, d.storage, d.historyConfig())
		n := h.Len()
		if err := h.Reset(ctx); err != nil {
			return fmt.Errorf("reset history: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d history entries.\n", n)
		return nil
	},
}
