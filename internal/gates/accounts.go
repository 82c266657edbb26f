package gates

import "github.com/abhisek/nudgekit/internal/nudge"

// AccountLimit returns how many finance accounts a tier may hold.
// Zero means unlimited.
func AccountLimit(tier nudge.Tier) int {
	switch tier {
	case nudge.TierBase:
		return 1
	case nudge.TierMid:
		return 5
	default:
		return 0
	}
}

// CanAddAccount reports whether a user on tier holding count accounts may
// add another.
func CanAddAccount(tier nudge.Tier, count int) bool {
	limit := AccountLimit(tier)
	return limit == 0 || count < limit
}

// CheckAddAccount returns an account-limit nudge request when adding an
// account is blocked.
func CheckAddAccount(tier nudge.Tier, count int) (Request, bool) {
	if CanAddAccount(tier, count) {
		return Request{}, false
	}
	return Request{
		Type:    nudge.TriggerSecondAccount,
		Context: nudge.Context{"accountCount": count},
	}, true
}
