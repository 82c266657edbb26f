package cmd

import (
	"github.com/abhisek/nudgekit/internal/nudge"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <type>",
	Short: "Explain whether a nudge could be shown now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, err := tierFlag(cmd)
		if err != nil {
			return err
		}
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		sched, err := d.newScheduler(cmdContext(cmd), tier)
		if err != nil {
			return err
		}
		defer sched.Close()

		decision, err := sched.Check(nudge.TriggerType(args[0]))
		if err != nil {
			return err
		}
		printDecision(cmd.OutOrStdout(), decision)
		return nil
	},
}

func init() {
	checkCmd.Flags().String("tier", "base", "Subscription tier: base, mid or top")
}
