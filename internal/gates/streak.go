// Package gates turns product events (adding an account, exporting, keeping
// a streak) into nudge requests for the scheduler.
package gates

import (
	"time"

	"github.com/abhisek/nudgekit/internal/nudge"
)

// Request is a nudge a gate wants the scheduler to consider.
type Request struct {
	Type    nudge.TriggerType
	Context nudge.Context
}

// Fire hands the request to s.
func (r Request) Fire(s *nudge.Scheduler) {
	s.Trigger(r.Type, r.Context)
}

// MinStreakDays is the shortest streak that earns a nudge.
const MinStreakDays = 7

var streakMilestones = []int{7, 14, 30}

// NextStreakMilestone returns the next milestone above the current streak.
func NextStreakMilestone(current int) int {
	for _, m := range streakMilestones {
		if m > current {
			return m
		}
	}
	// Beyond 30, every 30 days.
	return ((current / 30) + 1) * 30
}

// IsStreakMilestone reports whether days is exactly a milestone.
func IsStreakMilestone(days int) bool {
	if days < MinStreakDays {
		return false
	}
	return NextStreakMilestone(days-1) == days
}

// StreakDays counts consecutive calendar days, ending on anchor's day, with
// at least one activity. Days are taken in anchor's location.
func StreakDays(activity []time.Time, anchor time.Time) int {
	loc := anchor.Location()
	days := make(map[time.Time]bool, len(activity))
	for _, a := range activity {
		days[dayStart(a.In(loc))] = true
	}

	start := dayStart(anchor)
	streak := 0
	for days[start.AddDate(0, 0, -streak)] {
		streak++
	}
	return streak
}

// StreakTrigger returns a streak nudge request when days is a milestone.
func StreakTrigger(days int) (Request, bool) {
	if !IsStreakMilestone(days) {
		return Request{}, false
	}
	return Request{
		Type:    nudge.TriggerStreak,
		Context: nudge.Context{"streakDays": days},
	}, true
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
