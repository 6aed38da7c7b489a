// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package account

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Sweeper defaults.
const (
	DefaultSweepInterval  = 10 * time.Minute
	DefaultSweepRetention = 24 * time.Hour
)

// SweepObserver is told how many codes each sweep removed.
type SweepObserver interface {
	Swept(n int64)
}

// OTPSweeper periodically deletes spent and expired recovery codes.
type OTPSweeper struct {
	ledger    *OTPLedger
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
	observer  SweepObserver
}

// SweeperConfig tunes an OTPSweeper. Zero values take the defaults.
type SweeperConfig struct {
	Interval  time.Duration
	Retention time.Duration
	Logger    *slog.Logger
	Observer  SweepObserver
}

// NewOTPSweeper creates an OTPSweeper.
func NewOTPSweeper(ledger *OTPLedger, cfg SweeperConfig) (*OTPSweeper, error) {
	if ledger == nil {
		return nil, oops.Errorf("otp ledger is required")
	}
	s := &OTPSweeper{
		ledger:    ledger,
		interval:  cfg.Interval,
		retention: cfg.Retention,
		logger:    cfg.Logger,
		observer:  cfg.Observer,
	}
	if s.interval <= 0 {
		s.interval = DefaultSweepInterval
	}
	if s.retention <= 0 {
		s.retention = DefaultSweepRetention
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// RunOnce performs a single sweep.
func (s *OTPSweeper) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.ledger.Sweep(ctx, s.retention)
	if err != nil {
		return 0, err
	}
	if s.observer != nil {
		s.observer.Swept(n)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "swept recovery codes", "deleted", n)
	}
	return n, nil
}

// Run sweeps immediately and then on every interval until ctx is done.
// Sweep failures are logged and retried on the next tick.
func (s *OTPSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.WarnContext(ctx, "recovery code sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
