package nudge

import (
	"fmt"
	"time"
)

// Catalog maps trigger types to their static configuration. A Catalog is
// built once at startup and only read afterwards.
type Catalog struct {
	order   []TriggerType
	configs map[TriggerType]Config
}

// NewCatalog builds a catalog from configs, preserving their order.
func NewCatalog(configs []Config) (*Catalog, error) {
	c := &Catalog{configs: make(map[TriggerType]Config, len(configs))}
	for _, cfg := range configs {
		if cfg.Type == "" {
			return nil, fmt.Errorf("catalog entry with empty type")
		}
		if _, dup := c.configs[cfg.Type]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", cfg.Type)
		}
		if cfg.MaxPerDay < 1 {
			return nil, fmt.Errorf("catalog entry %q: max per day must be at least 1", cfg.Type)
		}
		if cfg.Cooldown < 0 {
			return nil, fmt.Errorf("catalog entry %q: negative cooldown", cfg.Type)
		}
		c.order = append(c.order, cfg.Type)
		c.configs[cfg.Type] = cfg
	}
	return c, nil
}

// Lookup returns the configuration for t.
func (c *Catalog) Lookup(t TriggerType) (Config, error) {
	cfg, ok := c.configs[t]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownTrigger, t)
	}
	return cloneConfig(cfg), nil
}

// Has reports whether t is in the catalog.
func (c *Catalog) Has(t TriggerType) bool {
	_, ok := c.configs[t]
	return ok
}

// Types returns the catalog's trigger types in declaration order.
func (c *Catalog) Types() []TriggerType {
	out := make([]TriggerType, len(c.order))
	copy(out, c.order)
	return out
}

// Configs returns all entries in declaration order.
func (c *Catalog) Configs() []Config {
	out := make([]Config, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, cloneConfig(c.configs[t]))
	}
	return out
}

func cloneConfig(cfg Config) Config {
	if cfg.Variants != nil {
		vs := make([]Variant, len(cfg.Variants))
		copy(vs, cfg.Variants)
		cfg.Variants = vs
	}
	return cfg
}

// DefaultCatalog returns the built-in nudge table.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultConfigs())
	if err != nil {
		panic(fmt.Sprintf("default catalog: %v", err))
	}
	return c
}

func defaultConfigs() []Config {
	return []Config{
		{
			Type:        TriggerSecondAccount,
			Title:       "Ready for Multiple Accounts?",
			Description: "Track all your accounts in one place with Lite. Perfect for managing checking, savings, and credit cards together.",
			TargetTier:  TierMid,
			CTAText:     "Upgrade to Lite",
			Priority:    2,
			Cooldown:    24 * time.Hour,
			MaxPerDay:   1,
			Variants: []Variant{
				{
					Requires:    []string{"accountCount"},
					Min:         map[string]float64{"accountCount": 1},
					Description: "You currently have {{.accountCount}} {{plural .accountCount \"account\" \"accounts\"}}. Add more accounts with Lite to get the full picture of your finances.",
				},
			},
		},
		{
			Type:        TriggerExport,
			Title:       "Export Your Data",
			Description: "Get your financial data in CSV or Google Sheets format. Keep your records organized and accessible.",
			TargetTier:  TierMid,
			CTAText:     "Upgrade to Lite",
			Priority:    2,
			Cooldown:    12 * time.Hour,
			MaxPerDay:   2,
			Variants: []Variant{
				{
					Requires:    []string{"exportType"},
					Title:       "Export to {{formatName .exportType}}",
					Description: "Download your data in {{formatName .exportType}} format. Lite users get unlimited exports plus advanced filtering options.",
				},
			},
		},
		{
			Type:        TriggerPDFExport,
			Title:       "Professional Reports",
			Description: "Generate beautiful PDF reports with charts and insights. Perfect for sharing with advisors or personal records.",
			TargetTier:  TierTop,
			CTAText:     "Upgrade to Pro",
			Priority:    3,
			Cooldown:    8 * time.Hour,
			MaxPerDay:   1,
			Variants: []Variant{
				{
					Requires:    []string{"featureName"},
					Description: "Generate professional PDF reports with {{.featureName}} and other Pro features. Perfect for sharing or keeping records.",
				},
			},
		},
		{
			Type:        TriggerStreak,
			Title:       "Amazing 7-Day Streak!",
			Description: "You're building great habits! Pro users get advanced analytics and goal tracking to level up even more.",
			TargetTier:  TierTop,
			CTAText:     "See Pro Features",
			Priority:    1,
			Cooldown:    72 * time.Hour,
			MaxPerDay:   1,
			Variants: []Variant{
				{
					Requires:    []string{"streakDays"},
					Min:         map[string]float64{"streakDays": 7},
					Title:       "Incredible {{.streakDays}}-Day Streak!",
					Description: "You're on fire! Pro users get streak insights, habit analytics, and advanced goal tracking to maintain momentum.",
				},
			},
		},
	}
}
