// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/sonora/internal/catalog/song"
	"github.com/taibuivan/sonora/internal/platform/apperr"
	"github.com/taibuivan/sonora/internal/platform/constants"
	"github.com/taibuivan/sonora/internal/platform/ctxutil"
	"github.com/taibuivan/sonora/internal/platform/events"
	"github.com/taibuivan/sonora/internal/platform/metrics"
	"github.com/taibuivan/sonora/internal/platform/sec"
)

// # Collaborators

// TierLookup resolves the current subscription tier of an identity.
type TierLookup interface {
	TierOf(ctx context.Context, userID string) (sec.Tier, error)
}

// SongLookup resolves the asset behind a grant.
type SongLookup interface {
	Find(ctx context.Context, id string) (*song.Song, error)
}

// Recorder receives grant lifecycle measurements.
type Recorder interface {
	GrantIssued()
	GrantRedemption(outcome string)
	GrantsSwept(count int)
}

type noopRecorder struct{}

func (noopRecorder) GrantIssued()           {}
func (noopRecorder) GrantRedemption(string) {}
func (noopRecorder) GrantsSwept(int)        {}

// Redemption is a consumed grant together with the song it unlocks.
type Redemption struct {
	Grant *Grant
	Song  *song.Song
}

// grantEvent is the payload of grant lifecycle events. It never carries the
// grant id, which is a bearer secret.
type grantEvent struct {
	GrantRef  string    `json:"grant_ref"`
	SongID    string    `json:"song_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// # Manager

// Manager issues, redeems, and sweeps download grants.
type Manager struct {
	store     GrantStore
	tiers     TierLookup
	songs     SongLookup
	publisher events.Publisher
	recorder  Recorder

	ttl          time.Duration
	downloadBase string
	streamBase   string
	now          func() time.Time
	newID        func() (string, error)
	sweepLimiter *rate.Limiter
}

// ManagerOption customizes a [Manager].
type ManagerOption func(*Manager)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) ManagerOption {
	return func(manager *Manager) { manager.now = now }
}

// WithIDGenerator replaces the grant id generator.
func WithIDGenerator(newID func() (string, error)) ManagerOption {
	return func(manager *Manager) { manager.newID = newID }
}

// WithPublisher emits grant lifecycle events.
func WithPublisher(publisher events.Publisher) ManagerOption {
	return func(manager *Manager) { manager.publisher = publisher }
}

// WithRecorder records grant metrics.
func WithRecorder(recorder Recorder) ManagerOption {
	return func(manager *Manager) { manager.recorder = recorder }
}

// WithBaseURL makes download links absolute.
func WithBaseURL(publicBaseURL string) ManagerOption {
	return func(manager *Manager) {
		base := strings.TrimRight(publicBaseURL, "/") + constants.APIPrefix + "/download/"
		manager.downloadBase = base
		manager.streamBase = base + "stream/"
	}
}

// WithSweepRate paces consecutive sweep batches.
func WithSweepRate(batchesPerSecond float64) ManagerOption {
	return func(manager *Manager) {
		manager.sweepLimiter = rate.NewLimiter(rate.Limit(batchesPerSecond), 1)
	}
}

// newGrantID draws an unguessable grant identifier.
func newGrantID() (string, error) {
	return sec.GenerateSecureToken(constants.GrantIDBytes)
}

/*
NewManager wires the grant manager.

Parameters:
  - store: GrantStore
  - tiers: TierLookup (read on every issue and redeem)
  - songs: SongLookup
  - ttl: time.Duration (grant lifetime)
  - options: ...ManagerOption
*/
func NewManager(store GrantStore, tiers TierLookup, songs SongLookup, ttl time.Duration, options ...ManagerOption) *Manager {
	manager := &Manager{
		store:        store,
		tiers:        tiers,
		songs:        songs,
		publisher:    events.Noop{},
		recorder:     noopRecorder{},
		ttl:          ttl,
		now:          time.Now,
		newID:        newGrantID,
		sweepLimiter: rate.NewLimiter(rate.Limit(constants.SweepBatchesPerSecond), 1),
	}
	WithBaseURL("")(manager)

	for _, option := range options {
		option(manager)
	}

	return manager
}

// # Issuance

/*
IssueGrant creates a one-time grant for a PREMIUM identity.

Parameters:
  - ctx: context.Context
  - identityID: string
  - songID: string

Returns:
  - *Descriptor: Grant id, links, expiry, and song display data
  - error: UpgradeRequired (403, nothing stored), NotFound, or storage failures
*/
func (manager *Manager) IssueGrant(ctx context.Context, identityID, songID string) (*Descriptor, error) {
	logger := ctxutil.GetLogger(ctx)

	// 1. Tier gate, read from storage
	tier, err := manager.tiers.TierOf(ctx, identityID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Authentication required")
		}
		return nil, fmt.Errorf("grant_issue_tier_lookup_failed: %w", err)
	}

	if !tier.AtLeast(sec.TierPremium) {
		logger.Info("grant_issue_denied",
			slog.String("reason", "insufficient_tier"),
			slog.String("tier", string(tier)),
		)
		return nil, apperr.UpgradeRequired()
	}

	// 2. The song must exist and have an audio asset
	track, err := manager.songs.Find(ctx, songID)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("grant_issue_song_lookup_failed: %w", err)
	}

	if !track.HasAudio() {
		return nil, apperr.NotFound("Audio file")
	}

	// 3. Persist with a fresh id, retrying on the rare collision
	now := manager.now().UTC()
	grant := &Grant{
		IdentityID: identityID,
		SongID:     track.ID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(manager.ttl),
	}

	if err := manager.insertWithFreshID(ctx, grant); err != nil {
		return nil, err
	}

	manager.recorder.GrantIssued()
	manager.publish(ctx, constants.EventGrantIssued, grant)

	logger.Info("grant_issued",
		slog.String("grant_ref", grant.Ref()),
		slog.String("song_id", grant.SongID),
		slog.Time("expires_at", grant.ExpiresAt),
	)

	return &Descriptor{
		GrantID:       grant.ID,
		DownloadURL:   manager.downloadBase + grant.ID,
		StreamURL:     manager.streamBase + grant.ID,
		ExpiresAt:     grant.ExpiresAt,
		SongTitle:     track.Title,
		Artist:        track.ArtistLine(),
		FileSizeBytes: track.SizeBytes(),
	}, nil
}

func (manager *Manager) insertWithFreshID(ctx context.Context, grant *Grant) error {
	for attempt := 1; attempt <= constants.GrantIssueAttempts; attempt++ {
		grantID, err := manager.newID()
		if err != nil {
			return fmt.Errorf("grant_issue_id_failed: %w", err)
		}
		grant.ID = grantID

		err = manager.store.Insert(ctx, grant)
		if err == nil {
			return nil
		}

		if !errors.Is(err, ErrGrantExists) {
			return fmt.Errorf("grant_issue_insert_failed: %w", err)
		}

		ctxutil.GetLogger(ctx).Warn("grant_id_collision", slog.Int("attempt", attempt))
	}

	return fmt.Errorf("grant_issue_insert_failed: %w after %d attempts", ErrGrantExists, constants.GrantIssueAttempts)
}

// # Redemption

/*
Redeem consumes a grant on behalf of identityID.

Every rejection returns the same GrantUnauthorized error; the precise reason
is logged as grant_tier_lapsed, grant_owner_mismatch, or grant_not_redeemable.

Parameters:
  - ctx: context.Context
  - grantID: string
  - identityID: string

Returns:
  - *Redemption: The consumed grant and its song
  - error: GrantUnauthorized, NotFound (song removed), or storage failures
*/
func (manager *Manager) Redeem(ctx context.Context, grantID, identityID string) (*Redemption, error) {
	logger := ctxutil.GetLogger(ctx).With(slog.String("grant_ref", GrantRef(grantID)))

	if grantID == "" || identityID == "" {
		manager.recorder.GrantRedemption(metrics.OutcomeRejected)
		logger.Warn("grant_not_redeemable", slog.String("reason", string(MissNotFound)))
		return nil, apperr.GrantUnauthorized()
	}

	// 1. Tier re-check before touching the grant, so a lapsed tier never consumes it
	tier, err := manager.tiers.TierOf(ctx, identityID)
	if err != nil && !apperr.IsNotFound(err) {
		manager.recorder.GrantRedemption(metrics.OutcomeFailed)
		return nil, fmt.Errorf("grant_redeem_tier_lookup_failed: %w", err)
	}

	if err != nil || !tier.AtLeast(sec.TierPremium) {
		manager.recorder.GrantRedemption(metrics.OutcomeRejected)
		logger.Warn("grant_tier_lapsed", slog.String("tier", string(tier)))
		return nil, apperr.GrantUnauthorized()
	}

	// 2. Atomic consume: owner, unused, unexpired
	grant, err := manager.store.Redeem(ctx, grantID, identityID, manager.now().UTC())
	if err != nil {
		reason, miss := MissReason(err)
		if !miss {
			manager.recorder.GrantRedemption(metrics.OutcomeFailed)
			return nil, fmt.Errorf("grant_redeem_failed: %w", err)
		}

		manager.recorder.GrantRedemption(metrics.OutcomeRejected)
		if reason == MissOwnerMismatch {
			logger.Warn("grant_owner_mismatch")
		} else {
			logger.Warn("grant_not_redeemable", slog.String("reason", string(reason)))
		}
		return nil, apperr.GrantUnauthorized()
	}

	// 3. Resolve the asset; the grant is already spent at this point
	track, err := manager.songs.Find(ctx, grant.SongID)
	if err != nil {
		manager.recorder.GrantRedemption(metrics.OutcomeFailed)
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("grant_redeem_song_lookup_failed: %w", err)
	}

	if !track.HasAudio() {
		manager.recorder.GrantRedemption(metrics.OutcomeFailed)
		return nil, apperr.NotFound("Audio file")
	}

	manager.recorder.GrantRedemption(metrics.OutcomeRedeemed)
	manager.publish(ctx, constants.EventGrantRedeemed, grant)
	logger.Info("grant_redeemed", slog.String("song_id", grant.SongID))

	return &Redemption{Grant: grant, Song: track}, nil
}

// # Sweeping

/*
SweepExpired deletes every grant whose expiry has passed, used or not.

Deletion runs in batches paced by a rate limiter so a large backlog does not
monopolize the database.

Returns:
  - int: Number of grants removed
  - error: Storage failures or context cancellation
*/
func (manager *Manager) SweepExpired(ctx context.Context) (int, error) {
	now := manager.now().UTC()
	total := 0

	for {
		if err := manager.sweepLimiter.Wait(ctx); err != nil {
			return total, fmt.Errorf("grant_sweep_interrupted: %w", err)
		}

		deleted, err := manager.store.DeleteExpired(ctx, now, constants.SweepBatchSize)
		total += deleted
		if err != nil {
			manager.recorder.GrantsSwept(total)
			return total, fmt.Errorf("grant_sweep_failed: %w", err)
		}

		if deleted < constants.SweepBatchSize {
			break
		}
	}

	manager.recorder.GrantsSwept(total)
	return total, nil
}

// publish emits a lifecycle event; failures are logged and never surfaced.
func (manager *Manager) publish(ctx context.Context, eventType string, grant *Grant) {
	event := events.NewEvent(eventType, grant.IdentityID, grantEvent{
		GrantRef:  grant.Ref(),
		SongID:    grant.SongID,
		ExpiresAt: grant.ExpiresAt,
	}, manager.now())

	if err := manager.publisher.Publish(ctx, event); err != nil {
		ctxutil.GetLogger(ctx).Warn("grant_event_dropped",
			slog.String("event_type", eventType),
			slog.Any("error", err),
		)
	}
}
