package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/nudgekit/internal/nudge"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the configured nudges",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		c := nudge.DefaultCatalog()
		if path := cfg.Scheduler.CatalogFile; path != "" {
			if c, err = nudge.LoadCatalogFile(path); err != nil {
				return err
			}
		}
		printCatalog(cmd.OutOrStdout(), c)
		return nil
	},
}

func printCatalog(out io.Writer, c *nudge.Catalog) {
	// Header.
	fmt.Fprintf(out, "%-24s  %-36s  %-6s  %8s  %8s  %7s\n",
		"Type", "Title", "Plan", "Priority", "Cooldown", "Per day")
	fmt.Fprintln(out, strings.Repeat("─", 100))

	configs := c.Configs()
	for _, cfg := range configs {
		title := cfg.Title
		if len(title) > 36 {
			title = title[:33] + "..."
		}
		fmt.Fprintf(out, "%-24s  %-36s  %-6s  %8d  %8s  %7d\n",
			cfg.Type, title, cfg.TargetTier.PlanName(), cfg.Priority,
			cfg.Cooldown, cfg.MaxPerDay)
	}

	fmt.Fprintf(out, "\n%d nudges\n", len(configs))
}
