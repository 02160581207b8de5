// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles subscription tiers and the tier-gated profile areas.

It is the single source of truth for an identity's current tier: the
authorization policy and the download grant manager both resolve tiers
through [Service.TierOf] on every check, never from a token.

# Architecture

  - Entities: Subscription, UpgradeResult, Perks (DTOs).
  - Domain: This package depends on the auth package for the User entity.
  - Storage: tier reads and the conditional upgrade on users.account.
*/
package account

import (
	"context"

	"github.com/taibuivan/sonora/internal/platform/sec"
	"github.com/taibuivan/sonora/internal/users/auth"
)

// # Domain Entities

// Subscription is the caller's current tier as read from storage.
type Subscription struct {
	AccountID string   `json:"accountId"`
	Tier      sec.Tier `json:"tier"`
	Premium   bool     `json:"premium"`
	Perks     []string `json:"perks"`
}

// UpgradeResult is returned after a successful upgrade.
type UpgradeResult struct {
	AccountID string   `json:"accountId"`
	Email     string   `json:"email"`
	Tier      sec.Tier `json:"tier"`
	Message   string   `json:"message"`
}

// Perks lists what a tier unlocks.
type Perks struct {
	Tier  sec.Tier `json:"tier"`
	Perks []string `json:"perks"`
}

// perksByTier is the static catalogue of tier benefits.
var perksByTier = map[sec.Tier][]string{
	sec.TierStandard: {
		"Unlimited streaming",
		"Personal playlists",
	},
	sec.TierPremium: {
		"Unlimited streaming",
		"Personal playlists",
		"Offline downloads",
		"High quality audio",
		"No advertisements",
	},
}

// # Repository Contracts

// AccountRepository defines the persistence contract for subscription data.
type AccountRepository interface {
	/*
		FindByID retrieves an identity by its unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		TierOf reads only the current tier of an identity.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - sec.Tier: Current tier
		  - error: apperr.NotFound or storage failures
	*/
	TierOf(context context.Context, id string) (sec.Tier, error)

	/*
		ChangeTier moves an identity from one tier to another.

		The update only applies while the stored tier still equals from, so two
		concurrent upgrades cannot both succeed.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)
		  - from: sec.Tier (expected current tier)
		  - to: sec.Tier

		Returns:
		  - *auth.User: The updated entity
		  - error: apperr.NotFound when no row matched, or storage failures
	*/
	ChangeTier(context context.Context, id string, from, to sec.Tier) (*auth.User, error)
}
