// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package download implements one-time download grants for premium listeners.

A grant is a short-lived, single-use capability bound to one identity and one
song. It is issued on request, redeemed exactly once by its owner, and swept
from storage once expired.

# Lifecycle

 1. IssueGrant: PREMIUM tier required; persists an unguessable grant id.
 2. Redeem: tier re-check, then one atomic conditional update that flips
    used=false to used=true only for the owner and only before expiry.
 3. SweepExpired: periodic removal of every grant past its expiry.

# Failure Uniformity

Every redemption failure reaches the client as the same 401. The precise
reason (missing, used, expired, foreign, lapsed tier) is only logged.
*/
package download

import (
	"errors"
	"fmt"
	"time"
)

// # Domain Entities

// Grant is a persisted one-time download capability.
type Grant struct {
	ID         string     `json:"-"`
	IdentityID string     `json:"identityId"`
	SongID     string     `json:"songId"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	Used       bool       `json:"used"`
	UsedAt     *time.Time `json:"usedAt,omitempty"`
}

// Redeemable reports whether the grant may still be consumed at now.
func (grant *Grant) Redeemable(now time.Time) bool {
	return !grant.Used && now.Before(grant.ExpiresAt)
}

// Ref is a short, log-safe prefix of the grant id.
//
// Grant ids are bearer secrets; full values never reach logs or events.
func (grant *Grant) Ref() string {
	return GrantRef(grant.ID)
}

// GrantRef truncates a grant id for logging.
func GrantRef(grantID string) string {
	const visible = 8
	if len(grantID) <= visible {
		return grantID
	}
	return grantID[:visible]
}

// Descriptor is returned to the client when a grant is issued.
type Descriptor struct {
	GrantID       string    `json:"grantId"`
	DownloadURL   string    `json:"downloadUrl"`
	StreamURL     string    `json:"streamUrl"`
	ExpiresAt     time.Time `json:"expiresAt"`
	SongTitle     string    `json:"songTitle"`
	Artist        string    `json:"artist"`
	FileSizeBytes int64     `json:"fileSizeBytes"`
}

// # Redemption Misses

// RedeemMiss is the reason a conditional redeem matched no row.
type RedeemMiss string

const (
	MissNotFound      RedeemMiss = "not_found"
	MissAlreadyUsed   RedeemMiss = "already_used"
	MissExpired       RedeemMiss = "expired"
	MissOwnerMismatch RedeemMiss = "owner_mismatch"
)

var (
	// ErrGrantExists is returned by Insert when the grant id is already taken.
	ErrGrantExists = errors.New("download: grant id already exists")

	// ErrGrantNotRedeemable matches every [*NotRedeemableError].
	ErrGrantNotRedeemable = errors.New("download: grant not redeemable")
)

// NotRedeemableError carries the reason a redeem failed, for logging only.
type NotRedeemableError struct {
	Reason RedeemMiss
}

func (err *NotRedeemableError) Error() string {
	return fmt.Sprintf("download: grant not redeemable: %s", err.Reason)
}

// Is lets errors.Is match [ErrGrantNotRedeemable].
func (err *NotRedeemableError) Is(target error) bool {
	return target == ErrGrantNotRedeemable
}

// missed builds the error returned by stores on a CAS miss.
func missed(reason RedeemMiss) error {
	return &NotRedeemableError{Reason: reason}
}

// MissReason extracts the miss reason from err.
func MissReason(err error) (RedeemMiss, bool) {
	var notRedeemable *NotRedeemableError
	if errors.As(err, &notRedeemable) {
		return notRedeemable.Reason, true
	}
	return "", false
}

// classifyMiss explains why a grant that exists was not consumed.
//
// Ownership is reported first, so a foreign caller learns nothing in the logs
// about the state of someone else's grant beyond the mismatch itself.
func classifyMiss(grant *Grant, identityID string, now time.Time) RedeemMiss {
	switch {
	case grant.IdentityID != identityID:
		return MissOwnerMismatch
	case grant.Used:
		return MissAlreadyUsed
	case !now.Before(grant.ExpiresAt):
		return MissExpired
	default:
		// The row changed between the conditional update and the read
		return MissAlreadyUsed
	}
}
