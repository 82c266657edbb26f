package cmd

import (
	"github.com/abhisek/nudgekit/internal/config"
	"github.com/abhisek/nudgekit/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nudgekit",
	Short: "Contextual upgrade nudges for the productivity app",
	Long: `nudgekit decides whether, which and when a single upgrade prompt is shown,
honoring per-nudge cooldowns, daily caps, priorities and debounced triggers.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides NUDGEKIT_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (default $XDG_CONFIG_HOME/nudgekit/config.yaml)")
	rootCmd.PersistentFlags().String("storage", "", "Storage driver: sqlite, redis or memory (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.Flags().String("tier", "base", "Subscription tier: base, mid or top")

	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if v, _ := cmd.Flags().GetString("storage"); v != "" {
		cfg.Storage.Driver = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	return cfg, cfg.Validate()
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the config file / NUDGEKIT_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Storage.Path != "" {
		return cfg.Storage.Path, store.EnsureDir(cfg.Storage.Path)
	}
	return store.DefaultDBPath()
}
