package nudge

import (
	"time"

	"github.com/shopspring/decimal"
)

// RatePlaces is the number of decimal places rates are rounded to.
const RatePlaces = 4

// TypeStats aggregates the history of one trigger type.
type TypeStats struct {
	Shown          int
	Dismissed      int
	Converted      int
	DismissalRate  decimal.Decimal
	ConversionRate decimal.Decimal
}

// Stats aggregates the retained history.
type Stats struct {
	Total          int
	Last24h        int
	Last7d         int
	Dismissed      int
	Converted      int
	DismissalRate  decimal.Decimal
	ConversionRate decimal.Decimal
	ByType         map[TriggerType]TypeStats
}

// ComputeStats summarizes entries as of now. Every type in types appears in
// ByType, as does any other type present in the history.
func ComputeStats(entries []HistoryEntry, types []TriggerType, now time.Time) Stats {
	const day = 24 * time.Hour
	st := Stats{ByType: make(map[TriggerType]TypeStats, len(types))}
	for _, t := range types {
		st.ByType[t] = TypeStats{}
	}

	for _, e := range entries {
		st.Total++
		age := now.Sub(e.Timestamp)
		if age < day {
			st.Last24h++
		}
		if age < 7*day {
			st.Last7d++
		}

		ts := st.ByType[e.Type]
		ts.Shown++
		if e.Dismissed {
			st.Dismissed++
			ts.Dismissed++
		}
		if e.Converted {
			st.Converted++
			ts.Converted++
		}
		st.ByType[e.Type] = ts
	}

	st.DismissalRate = rate(st.Dismissed, st.Total)
	st.ConversionRate = rate(st.Converted, st.Total)
	for t, ts := range st.ByType {
		ts.DismissalRate = rate(ts.Dismissed, ts.Shown)
		ts.ConversionRate = rate(ts.Converted, ts.Shown)
		st.ByType[t] = ts
	}
	return st
}

func rate(n, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n)).
		Div(decimal.NewFromInt(int64(total))).
		Round(RatePlaces)
}
