package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSweepPurgesOnlyExpiredRows(t *testing.T) {
	store := newTestStore(t)
	now := time.Unix(1_700_000_000, 0)

	stale := now.Add(-8 * 24 * time.Hour).Unix()
	fresh := now.Add(-6 * 24 * time.Hour).Unix()
	require.NoError(t, store.RecordVisit("client-a", "stale", stale))
	require.NoError(t, store.RecordVisit("client-a", "fresh", fresh))

	sw := NewSweeper(store, nil, time.Hour, 7*24*time.Hour, zerolog.Nop())
	sw.Sweep(now)

	_, seen, err := store.LastVisit("client-a", "stale")
	require.NoError(t, err)
	require.False(t, seen)

	_, seen, err = store.LastVisit("client-a", "fresh")
	require.NoError(t, err)
	require.True(t, seen)
}

func TestRunSweepsEagerlyAndStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	require.NoError(t, store.RecordVisit("client-a", "stale", now.Add(-8*24*time.Hour).Unix()))

	sw := NewSweeper(store, NewThrottle(10, 24*time.Hour), time.Hour, 7*24*time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sw.Run(ctx)
	}()

	// The eager startup sweep runs before the first tick.
	require.Eventually(t, func() bool {
		_, seen, err := store.LastVisit("client-a", "stale")
		return err == nil && !seen
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on cancellation")
	}
}

func TestSweepSurvivesStorageFailure(t *testing.T) {
	store := newTestStore(t)
	sqlDB, err := store.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	sw := NewSweeper(store, nil, time.Hour, 7*24*time.Hour, zerolog.Nop())
	require.NotPanics(t, func() { sw.Sweep(time.Now()) })
}
