// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/sonora/internal/platform/apperr"
	"github.com/taibuivan/sonora/internal/platform/sec"
	"github.com/taibuivan/sonora/internal/users/auth"
)

const upgradedMessage = "Account successfully upgraded to PREMIUM"

// # Service Layer

// Service orchestrates subscription reads and tier changes.
type Service struct {
	accountRepository AccountRepository
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(accountRepo AccountRepository, logger *slog.Logger) *Service {
	return &Service{
		accountRepository: accountRepo,
		logger:            logger,
	}
}

// # Tier Resolution

/*
TierOf returns the current tier of an identity.

It satisfies the authorization policy's resolver and the download manager's
tier lookup; both call it on every check.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - sec.Tier: Current tier
  - error: apperr.NotFound or storage failures
*/
func (service *Service) TierOf(context context.Context, userID string) (sec.Tier, error) {
	tier, err := service.accountRepository.TierOf(context, userID)
	if err != nil {
		if apperr.IsAppError(err) {
			return "", err
		}
		return "", fmt.Errorf("account_service_tier_of_failed: %w", err)
	}
	return tier, nil
}

// # Subscription Management

/*
UpgradeToPremium moves a STANDARD identity to PREMIUM.

The new tier applies to the caller's very next request, with the same tokens.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *UpgradeResult: Confirmation payload
  - error: NotFound, Conflict (already premium), or storage failures
*/
func (service *Service) UpgradeToPremium(context context.Context, userID string) (*UpgradeResult, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("account_service_upgrade_lookup_failed: %w", err)
	}

	if user.Tier == sec.TierPremium {
		return nil, apperr.Conflict("User is already a Premium member")
	}

	upgraded, err := service.accountRepository.ChangeTier(context, userID, user.Tier, sec.TierPremium)
	if err != nil {
		// Another request changed the tier between the read and the update
		if apperr.IsNotFound(err) {
			return nil, apperr.Conflict("User is already a Premium member")
		}
		return nil, fmt.Errorf("account_service_upgrade_failed: %w", err)
	}

	service.logger.Info("account_upgraded",
		slog.String("user_id", userID),
		slog.String("from", string(user.Tier)),
		slog.String("to", string(upgraded.Tier)),
	)

	return &UpgradeResult{
		AccountID: upgraded.ID,
		Email:     upgraded.Email,
		Tier:      upgraded.Tier,
		Message:   upgradedMessage,
	}, nil
}

/*
Subscription reports the caller's current tier and its perks.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *Subscription: Current subscription view
  - error: NotFound or storage failures
*/
func (service *Service) Subscription(context context.Context, userID string) (*Subscription, error) {
	tier, err := service.TierOf(context, userID)
	if err != nil {
		return nil, err
	}

	return &Subscription{
		AccountID: userID,
		Tier:      tier,
		Premium:   tier == sec.TierPremium,
		Perks:     perksByTier[tier],
	}, nil
}

// Profile returns the caller's full identity.
func (service *Service) Profile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("account_service_profile_failed: %w", err)
	}
	return user, nil
}

// PremiumPerks lists the benefits of the PREMIUM tier.
func (service *Service) PremiumPerks() Perks {
	return Perks{Tier: sec.TierPremium, Perks: perksByTier[sec.TierPremium]}
}
