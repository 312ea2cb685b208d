package main

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ErrThrottled signals that a client hit the new-badge registration cap.
var ErrThrottled = errors.New("new badge limit exceeded")

// VisitOutcome is the result of one visit event.
type VisitOutcome struct {
	Count       int64
	Incremented bool
}

// Coordinator runs one visit event end to end: look up or create the
// subject, consult the abuse throttle and the dedup ledger, then either
// grant an increment or report the existing count unchanged.
//
// Window semantics: the ledger timestamp is refreshed only when an
// increment is granted. A suppressed repeat visit does not slide the
// window forward, so each client gets at most one count per fixed window.
type Coordinator struct {
	mu       sync.Mutex
	store    *VisitStore
	throttle *Throttle
	window   time.Duration
	logger   zerolog.Logger
}

func NewCoordinator(store *VisitStore, throttle *Throttle, window time.Duration, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		throttle: throttle,
		window:   window,
		logger:   logger,
	}
}

// RegisterVisit decides increment-or-skip for one (client, tag) visit and
// persists the decision atomically. Concurrent visits are serialized so no
// two callers can both pass the window check against the same ledger row.
//
// A throttle denial rolls the whole transaction back, so a rejected new
// subject never persists as a zero-count row. Any other storage failure
// degrades to a best-effort count read with Incremented=false; the caller
// still gets a badge to serve.
func (co *Coordinator) RegisterVisit(clientToken, tag string, now time.Time) (VisitOutcome, error) {
	co.mu.Lock()
	defer co.mu.Unlock()

	ts := now.Unix()
	var out VisitOutcome
	err := co.store.Transaction(func(tx *gorm.DB) error {
		st := co.store.WithTx(tx)

		sub, created, err := st.GetOrCreateSubject(tag, ts)
		if err != nil {
			return err
		}
		if created && !co.throttle.TryRegister(clientToken, now) {
			return ErrThrottled
		}
		if err := st.EnsureClient(clientToken, ts); err != nil {
			return err
		}

		last, seen, err := st.LastVisit(clientToken, tag)
		if err != nil {
			return err
		}
		if seen && ts-last < int64(co.window.Seconds()) {
			out = VisitOutcome{Count: sub.VisitCount, Incremented: false}
			return nil
		}

		if err := st.RecordVisit(clientToken, tag, ts); err != nil {
			return err
		}
		count, err := st.IncrementCount(tag)
		if err != nil {
			return err
		}
		out = VisitOutcome{Count: count, Incremented: true}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrThrottled) {
			return VisitOutcome{}, err
		}
		co.logger.Error().Err(err).Str("tag", tag).Msg("visit transaction failed")
		count, readErr := co.store.GetCount(tag)
		if readErr != nil {
			co.logger.Error().Err(readErr).Str("tag", tag).Msg("fallback count read failed")
			count = 0
		}
		return VisitOutcome{Count: count, Incremented: false}, nil
	}
	return out, nil
}
