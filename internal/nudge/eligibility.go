package nudge

import (
	"time"
)

// Reason explains an eligibility decision.
type Reason string

const (
	ReasonEligible  Reason = "eligible"
	ReasonTierOwned Reason = "tier-owned"
	ReasonCooldown  Reason = "cooldown"
	ReasonDailyCap  Reason = "daily-cap"
	ReasonOutranked Reason = "outranked"
)

// EvalInput is everything the evaluator looks at.
type EvalInput struct {
	Config  Config
	Tier    Tier
	History []HistoryEntry
	// Active is the nudge occupying the slot, or nil. Resolved nudges that
	// are only waiting out their exit delay are ignored.
	Active *ActiveNudge
	Now    time.Time
}

// Decision is the result of an eligibility check.
type Decision struct {
	Type   TriggerType
	Reason Reason
	// RetryAt is when a cooldown or daily cap lifts. Zero for other reasons.
	RetryAt time.Time
	// ShownToday counts this type's entries in the current calendar day.
	ShownToday int
}

// Eligible reports whether the nudge may be shown.
func (d Decision) Eligible() bool {
	return d.Reason == ReasonEligible
}

// Evaluate applies the eligibility rules in order: tier, cooldown, daily cap,
// active-slot priority. The day boundary is local midnight in Now's location.
func Evaluate(in EvalInput) Decision {
	cfg := in.Config
	d := Decision{Type: cfg.Type}

	if in.Tier.AtLeast(cfg.TargetTier) {
		d.Reason = ReasonTierOwned
		return d
	}

	if last, ok := lastShown(in.History, cfg.Type); ok {
		if in.Now.Sub(last) < cfg.Cooldown {
			d.Reason = ReasonCooldown
			d.RetryAt = last.Add(cfg.Cooldown)
			return d
		}
	}

	dayStart, dayEnd := dayBounds(in.Now)
	d.ShownToday = countBetween(in.History, cfg.Type, dayStart, dayEnd)
	if d.ShownToday >= cfg.MaxPerDay {
		d.Reason = ReasonDailyCap
		d.RetryAt = dayEnd
		return d
	}

	if in.Active != nil && !in.Active.Resolved() && in.Active.Config.Outranks(cfg) {
		d.Reason = ReasonOutranked
		return d
	}

	d.Reason = ReasonEligible
	return d
}

// IsEligible is Evaluate reduced to a bool.
func IsEligible(cfg Config, tier Tier, history []HistoryEntry, active *ActiveNudge, now time.Time) bool {
	return Evaluate(EvalInput{
		Config:  cfg,
		Tier:    tier,
		History: history,
		Active:  active,
		Now:     now,
	}).Eligible()
}

func lastShown(history []HistoryEntry, t TriggerType) (time.Time, bool) {
	var last time.Time
	found := false
	for _, e := range history {
		if e.Type != t {
			continue
		}
		if !found || e.Timestamp.After(last) {
			last = e.Timestamp
			found = true
		}
	}
	return last, found
}

func countBetween(history []HistoryEntry, t TriggerType, from, to time.Time) int {
	n := 0
	for _, e := range history {
		if e.Type == t && !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			n++
		}
	}
	return n
}

// dayBounds returns local midnight of now's day and of the following day.
func dayBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}
