// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultJanitorInterval is how often expired state is swept.
const DefaultJanitorInterval = time.Hour

// Janitor periodically removes expired sessions and clears expired reset
// token pairs. Expiry is already enforced at read time by the lookup
// predicates; the janitor only keeps the tables from accumulating dead rows.
type Janitor struct {
	users    UserRepository
	sessions SessionRepository
	interval time.Duration
	logger   *slog.Logger
	clock    func() time.Time
	onSwept  func(sessions int64)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJanitor creates a new Janitor sweeping at the given interval.
// A non-positive interval falls back to DefaultJanitorInterval.
func NewJanitor(users UserRepository, sessions SessionRepository, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Janitor{
		users:    users,
		sessions: sessions,
		interval: interval,
		logger:   logger,
		clock:    time.Now,
	}
}

// OnSessionsSwept registers a hook invoked with the number of expired
// sessions removed by each sweep. Call before Start.
func (j *Janitor) OnSessionsSwept(fn func(count int64)) {
	j.onSwept = fn
}

// RunOnce executes a single sweep. Both cleanups are attempted even if the
// first fails; errors are combined.
func (j *Janitor) RunOnce(ctx context.Context) error {
	now := j.clock()
	var errs []error

	deleted, err := j.sessions.DeleteExpired(ctx, now)
	if err != nil {
		j.logger.Error("delete expired sessions failed", "error", err)
		errs = append(errs, err)
	} else {
		if j.onSwept != nil {
			j.onSwept(deleted)
		}
		if deleted > 0 {
			j.logger.Info("deleted expired sessions", "count", deleted)
		}
	}

	cleared, err := j.users.ClearExpiredResetTokens(ctx, now)
	if err != nil {
		j.logger.Error("clear expired reset tokens failed", "error", err)
		errs = append(errs, err)
	} else if cleared > 0 {
		j.logger.Info("cleared expired reset tokens", "count", cleared)
	}

	return errors.Join(errs...)
}

// Start begins periodic sweeping.
func (j *Janitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(1)
	go j.run(ctx)
}

// Stop stops the janitor and waits for completion.
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

func (j *Janitor) run(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run once immediately
	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("janitor sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("janitor sweep failed", "error", err)
			}
		}
	}
}
