package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/nudgekit/internal/config"
	"github.com/abhisek/nudgekit/internal/logging"
	"github.com/abhisek/nudgekit/internal/nudge"
	"github.com/abhisek/nudgekit/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// deps holds everything a command needs to build a scheduler.
type deps struct {
	cfg     config.Config
	logger  *zap.Logger
	storage nudge.Storage
	events  store.EventRepo // nil unless the sqlite driver is in use
	catalog *nudge.Catalog
	closers []func() error
}

// openDeps loads configuration and opens the configured storage backend.
func openDeps(cmd *cobra.Command) (*deps, error) {
	ctx := cmdContext(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	d := &deps{cfg: cfg, logger: logging.Must(cfg.Logging)}

	switch cfg.Storage.Driver {
	case "sqlite":
		dbPath, err := resolveDBPath(cmd, cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		d.storage = st.KV()
		d.events = st.EventRepo()
		d.closers = append(d.closers, st.Close)
	case "redis":
		client, err := store.OpenRedis(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisDB)
		if err != nil {
			return nil, err
		}
		d.storage = store.NewRedisKV(client, cfg.Storage.KeyPrefix)
		d.closers = append(d.closers, client.Close)
	case "memory":
		d.storage = store.NewMemoryKV()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	d.catalog = nudge.DefaultCatalog()
	if path := cfg.Scheduler.CatalogFile; path != "" {
		c, err := nudge.LoadCatalogFile(path)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.catalog = c
	}
	return d, nil
}

// tracker returns the analytics sink: the structured log, plus the local
// event log when one is available.
func (d *deps) tracker() nudge.Tracker {
	trackers := []nudge.Tracker{nudge.NewLogTracker(d.logger)}
	if d.events != nil {
		trackers = append(trackers, nudge.NewEventLogTracker(d.events))
	}
	return nudge.MultiTracker(trackers...)
}

// historyConfig returns the history settings for a standalone History.
func (d *deps) historyConfig() nudge.HistoryConfig {
	hc := nudge.DefaultHistoryConfig()
	if d.cfg.Scheduler.HistoryCap > 0 {
		hc.Cap = d.cfg.Scheduler.HistoryCap
	}
	hc.Logger = d.logger
	return hc
}

// newScheduler builds a scheduler for tier from the loaded configuration.
func (d *deps) newScheduler(ctx context.Context, tier nudge.Tier) (*nudge.Scheduler, error) {
	debounce, err := d.cfg.Scheduler.DebounceDuration()
	if err != nil {
		return nil, err
	}
	exitDelay, err := d.cfg.Scheduler.ExitDelayDuration()
	if err != nil {
		return nil, err
	}
	loc, err := d.cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}
	return nudge.New(ctx, nudge.Options{
		Catalog:    d.catalog,
		Storage:    d.storage,
		HistoryCap: d.cfg.Scheduler.HistoryCap,
		Tracker:    d.tracker(),
		Logger:     d.logger,
		Tier:       tier,
		Debounce:   debounce,
		ExitDelay:  exitDelay,
		Location:   loc,
	}), nil
}

// Close releases storage connections and flushes the logger.
func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	_ = d.logger.Sync()
	return errors.Join(errs...)
}

// tierFlag parses the --tier flag.
func tierFlag(cmd *cobra.Command) (nudge.Tier, error) {
	v, _ := cmd.Flags().GetString("tier")
	if v == "" {
		return nudge.TierBase, nil
	}
	return nudge.ParseTier(v)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
