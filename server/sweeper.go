package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically purges dedup ledger rows older than the retention
// horizon so storage stays bounded. It also prunes the in-memory throttle.
type Sweeper struct {
	store    *VisitStore
	throttle *Throttle
	interval time.Duration
	horizon  time.Duration
	logger   zerolog.Logger
}

func NewSweeper(store *VisitStore, throttle *Throttle, interval, horizon time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		throttle: throttle,
		interval: interval,
		horizon:  horizon,
		logger:   logger.With().Str("component", "sweeper").Logger(),
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
// A failed sweep is logged and the schedule continues.
func (sw *Sweeper) Run(ctx context.Context) {
	sw.Sweep(time.Now())

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			sw.logger.Info().Msg("retention sweeper stopped")
			return
		case now := <-ticker.C:
			sw.Sweep(now)
		}
	}
}

// Sweep deletes ledger rows last touched before now minus the horizon.
func (sw *Sweeper) Sweep(now time.Time) {
	cutoff := now.Add(-sw.horizon).Unix()
	deleted, err := sw.store.PurgeOlderThan(cutoff)
	if err != nil {
		sw.logger.Error().Err(err).Msg("retention sweep failed")
		return
	}
	if sw.throttle != nil {
		sw.throttle.Prune(now)
	}
	sw.logger.Info().Int64("deleted", deleted).Msg("retention sweep completed")
}
