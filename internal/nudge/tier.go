package nudge

import (
	"fmt"
	"strings"
)

// Tier is a subscription level. Tiers are totally ordered: base < mid < top.
type Tier int

const (
	TierBase Tier = iota
	TierMid
	TierTop
)

// String returns the canonical tier name.
func (t Tier) String() string {
	switch t {
	case TierBase:
		return "base"
	case TierMid:
		return "mid"
	case TierTop:
		return "top"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// PlanName returns the product plan name shown to users.
func (t Tier) PlanName() string {
	switch t {
	case TierBase:
		return "Free"
	case TierMid:
		return "Lite"
	case TierTop:
		return "Pro"
	default:
		return t.String()
	}
}

// AtLeast reports whether t grants everything other grants.
func (t Tier) AtLeast(other Tier) bool {
	return t >= other
}

// ParseTier accepts the canonical names and the plan names (free, lite, pro).
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base", "free":
		return TierBase, nil
	case "mid", "lite":
		return TierMid, nil
	case "top", "pro":
		return TierTop, nil
	default:
		return 0, fmt.Errorf("invalid tier %q: must be base, mid or top", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
