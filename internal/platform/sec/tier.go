// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Subscription Tiers

// Tier represents the subscription level attached to an identity.
type Tier string

const (
	// Paying subscribers. Unlocks download grants and premium routes.
	TierPremium Tier = "PREMIUM"

	// Default tier for every newly registered identity
	TierStandard Tier = "STANDARD"
)

// # Tier Hierarchy

// AtLeast checks if the current tier meets or exceeds the required target tier.
func (t Tier) AtLeast(target Tier) bool {
	return t.level() > 0 && t.level() >= target.level()
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t.level() > 0
}

// level maps a tier to a numeric hierarchy level for comparison logic.
func (t Tier) level() int {
	switch t {
	case TierPremium:
		return 20
	case TierStandard:
		return 10
	default:
		return 0
	}
}
