// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sonora/internal/catalog/song"
	"github.com/taibuivan/sonora/internal/platform/apperr"
	"github.com/taibuivan/sonora/internal/platform/events"
	"github.com/taibuivan/sonora/internal/platform/sec"
)

const (
	premiumListener  = "0193a5c4-0000-7000-8000-000000000001"
	standardListener = "0193a5c4-0000-7000-8000-000000000002"
	otherListener    = "0193a5c4-0000-7000-8000-000000000003"

	songWithAudio = "0193a5c4-1111-7000-8000-000000000001"
	songNoAudio   = "0193a5c4-1111-7000-8000-000000000002"
	songUnknown   = "0193a5c4-1111-7000-8000-0000000000ff"
)

var errStorageDown = errors.New("connection refused")

// tierTable is a mutable [TierLookup].
type tierTable struct {
	mu    sync.Mutex
	tiers map[string]sec.Tier
	err   error
}

func (table *tierTable) TierOf(_ context.Context, userID string) (sec.Tier, error) {
	table.mu.Lock()
	defer table.mu.Unlock()
	if table.err != nil {
		return "", table.err
	}
	tier, ok := table.tiers[userID]
	if !ok {
		return "", apperr.NotFound("Account")
	}
	return tier, nil
}

func (table *tierTable) set(userID string, tier sec.Tier) {
	table.mu.Lock()
	defer table.mu.Unlock()
	table.tiers[userID] = tier
}

// songCatalog is a fixed [SongLookup].
type songCatalog map[string]*song.Song

func (catalog songCatalog) Find(_ context.Context, id string) (*song.Song, error) {
	track, ok := catalog[id]
	if !ok {
		return nil, apperr.NotFound("Song")
	}
	return track, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (publisher *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if publisher.err != nil {
		return publisher.err
	}
	publisher.events = append(publisher.events, event)
	return nil
}

func (publisher *recordingPublisher) Close() error { return nil }

func (publisher *recordingPublisher) types() []string {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	types := make([]string, 0, len(publisher.events))
	for _, event := range publisher.events {
		types = append(types, event.Type)
	}
	return types
}

// countingRecorder is a [Recorder] that keeps totals.
type countingRecorder struct {
	mu       sync.Mutex
	issued   int
	outcomes map[string]int
	swept    int
}

func (recorder *countingRecorder) GrantIssued() {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.issued++
}

func (recorder *countingRecorder) GrantRedemption(outcome string) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.outcomes[outcome]++
}

func (recorder *countingRecorder) GrantsSwept(count int) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.swept += count
}

func (recorder *countingRecorder) outcome(name string) int {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return recorder.outcomes[name]
}

// testClock is a settable wall clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *testClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *testClock) Advance(by time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(by)
}

// fixture bundles a manager with inspectable collaborators.
type fixture struct {
	manager   *Manager
	store     *MemoryStore
	tiers     *tierTable
	clock     *testClock
	publisher *recordingPublisher
	recorder  *countingRecorder
}

func newFixture(t *testing.T, options ...ManagerOption) *fixture {
	t.Helper()

	fx := &fixture{
		store: NewMemoryStore(),
		tiers: &tierTable{tiers: map[string]sec.Tier{
			premiumListener:  sec.TierPremium,
			standardListener: sec.TierStandard,
			otherListener:    sec.TierPremium,
		}},
		clock:     &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		publisher: &recordingPublisher{},
		recorder:  &countingRecorder{outcomes: map[string]int{}},
	}

	catalog := songCatalog{
		songWithAudio: {
			ID:            songWithAudio,
			Title:         "Night Drive",
			Artists:       []string{"Mika", "The Lanterns"},
			AudioURL:      "https://cdn.example.com/audio/night-drive.mp3",
			FileSizeBytes: 4096,
		},
		songNoAudio: {ID: songNoAudio, Title: "Demo"},
	}

	defaults := []ManagerOption{
		WithClock(fx.clock.Now),
		WithPublisher(fx.publisher),
		WithRecorder(fx.recorder),
		WithBaseURL("https://api.example.com"),
		WithSweepRate(1000),
	}

	fx.manager = NewManager(fx.store, fx.tiers, catalog, 15*time.Minute, append(defaults, options...)...)
	return fx
}

func (fx *fixture) issue(t *testing.T, identityID string) *Descriptor {
	t.Helper()
	descriptor, err := fx.manager.IssueGrant(context.Background(), identityID, songWithAudio)
	require.NoError(t, err)
	return descriptor
}
