package nudge

import (
	"time"
)

// TriggerType identifies an upsell scenario.
type TriggerType string

const (
	TriggerSecondAccount TriggerType = "finance-second-account"
	TriggerExport        TriggerType = "export-attempt"
	TriggerPDFExport     TriggerType = "pdf-attempt"
	TriggerStreak        TriggerType = "streak-nudge"
)

// AllTriggerTypes returns all trigger types in catalog order.
func AllTriggerTypes() []TriggerType {
	return []TriggerType{TriggerSecondAccount, TriggerExport, TriggerPDFExport, TriggerStreak}
}

// DisplayName returns a human-readable label for the trigger type.
func (t TriggerType) DisplayName() string {
	switch t {
	case TriggerSecondAccount:
		return "Account limit"
	case TriggerExport:
		return "Export"
	case TriggerPDFExport:
		return "PDF export"
	case TriggerStreak:
		return "Streak"
	default:
		return string(t)
	}
}

// Context is the free-form payload a trigger source attaches for templating.
type Context map[string]any

// Config is the static configuration of one nudge. Priority is ranked
// higher-is-more-important.
type Config struct {
	Type        TriggerType
	Title       string
	Description string
	TargetTier  Tier
	CTAText     string
	Priority    int
	Cooldown    time.Duration
	MaxPerDay   int

	// Variants are tried in order; the first one whose requirements are met
	// by the trigger context overrides Title and Description.
	Variants []Variant
}

// Variant is a contextual rewrite of a nudge's copy.
type Variant struct {
	Requires    []string           `yaml:"requires"`
	Min         map[string]float64 `yaml:"min"`
	Title       string             `yaml:"title"`
	Description string             `yaml:"description"`
}

// Outranks reports whether c strictly outranks other.
func (c Config) Outranks(other Config) bool {
	return c.Priority > other.Priority
}

// HistoryEntry records one shown nudge. Dismissed, Converted and Preempted
// are set in place when the nudge is resolved.
type HistoryEntry struct {
	ID        string
	Type      TriggerType
	Timestamp time.Time
	Dismissed bool
	Converted bool
	Preempted bool
}

// Resolved reports whether the entry has been dismissed or converted.
func (e HistoryEntry) Resolved() bool {
	return e.Dismissed || e.Converted
}

// ActiveNudge is the nudge currently occupying the scheduler's slot.
type ActiveNudge struct {
	ID        string
	Config    Config
	Context   Context
	Timestamp time.Time

	resolved bool
}

// Resolved reports whether the nudge has been dismissed or converted and is
// only waiting for its exit delay to elapse.
func (a *ActiveNudge) Resolved() bool {
	return a.resolved
}

func (a *ActiveNudge) clone() *ActiveNudge {
	if a == nil {
		return nil
	}
	c := *a
	if a.Context != nil {
		c.Context = make(Context, len(a.Context))
		for k, v := range a.Context {
			c.Context[k] = v
		}
	}
	return &c
}

// State is what the presentation layer renders from.
type State struct {
	Active  *ActiveNudge
	Visible bool
}

// Outcome is how a shown nudge was resolved.
type Outcome int

const (
	OutcomeDismissed Outcome = iota + 1
	OutcomeConverted
	OutcomePreempted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDismissed:
		return "dismissed"
	case OutcomeConverted:
		return "converted"
	case OutcomePreempted:
		return "preempted"
	default:
		return "unknown"
	}
}
