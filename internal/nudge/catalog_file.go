package nudge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML shape of a catalog override file:
//
//	nudges:
//	  streak-nudge:
//	    cooldown: 48h
//	    max_per_day: 2
type catalogFile struct {
	Nudges map[TriggerType]catalogOverride `yaml:"nudges"`
}

type catalogOverride struct {
	Title       *string   `yaml:"title"`
	Description *string   `yaml:"description"`
	CTAText     *string   `yaml:"cta"`
	TargetTier  *string   `yaml:"target_tier"`
	Priority    *int      `yaml:"priority"`
	Cooldown    *string   `yaml:"cooldown"`
	MaxPerDay   *int      `yaml:"max_per_day"`
	Variants    []Variant `yaml:"variants"`
}

// LoadCatalogFile returns the default catalog with the overrides in the YAML
// file at path applied.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CatalogFileError{Path: path, Err: err}
	}
	c, err := ParseCatalogOverrides(DefaultCatalog(), data)
	if err != nil {
		return nil, &CatalogFileError{Path: path, Err: err}
	}
	return c, nil
}

// ParseCatalogOverrides applies YAML overrides to base and returns the
// resulting catalog. base is not modified. Only types already in base may be
// overridden.
func ParseCatalogOverrides(base *Catalog, data []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}

	configs := base.Configs()
	index := make(map[TriggerType]int, len(configs))
	for i, cfg := range configs {
		index[cfg.Type] = i
	}

	for t, o := range f.Nudges {
		i, ok := index[t]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTrigger, t)
		}
		if err := o.apply(&configs[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
	}
	return NewCatalog(configs)
}

func (o catalogOverride) apply(cfg *Config) error {
	if o.Title != nil {
		cfg.Title = *o.Title
	}
	if o.Description != nil {
		cfg.Description = *o.Description
	}
	if o.CTAText != nil {
		cfg.CTAText = *o.CTAText
	}
	if o.TargetTier != nil {
		tier, err := ParseTier(*o.TargetTier)
		if err != nil {
			return err
		}
		cfg.TargetTier = tier
	}
	if o.Priority != nil {
		cfg.Priority = *o.Priority
	}
	if o.Cooldown != nil {
		d, err := time.ParseDuration(*o.Cooldown)
		if err != nil {
			return fmt.Errorf("cooldown: %w", err)
		}
		cfg.Cooldown = d
	}
	if o.MaxPerDay != nil {
		cfg.MaxPerDay = *o.MaxPerDay
	}
	if o.Variants != nil {
		for i, v := range o.Variants {
			if err := ValidateVariant(v); err != nil {
				return fmt.Errorf("variant %d: %w", i, err)
			}
		}
		cfg.Variants = o.Variants
	}
	return nil
}
