// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package account

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ConsumeResult is the outcome of an OTP consumption attempt.
type ConsumeResult int

// Consumption outcomes.
const (
	OTPInvalid ConsumeResult = iota
	OTPConsumed
	OTPExpired
)

// String returns the outcome name.
func (r ConsumeResult) String() string {
	switch r {
	case OTPConsumed:
		return "consumed"
	case OTPExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// LedgerOptions tunes an OTPLedger.
type LedgerOptions struct {
	// TTL is the validity window of issued codes. Default: DefaultOTPTTL.
	TTL time.Duration

	// InvalidatePrevious marks earlier unused codes of the account as used
	// when a new one is issued. Default false: several codes may be live.
	InvalidatePrevious bool

	// Now returns the current time. Default: time.Now.
	Now func() time.Time

	// Generate returns a new code. Default: GenerateOTPCode.
	Generate func() (string, error)
}

// OTPLedger issues and consumes one-time passcodes.
type OTPLedger struct {
	repo               OTPRepository
	ttl                time.Duration
	invalidatePrevious bool
	now                func() time.Time
	generate           func() (string, error)
}

// NewOTPLedger creates an OTPLedger.
func NewOTPLedger(repo OTPRepository, opts LedgerOptions) (*OTPLedger, error) {
	if repo == nil {
		return nil, oops.Errorf("otp repository is required")
	}
	l := &OTPLedger{
		repo:               repo,
		ttl:                opts.TTL,
		invalidatePrevious: opts.InvalidatePrevious,
		now:                opts.Now,
		generate:           opts.Generate,
	}
	if l.ttl <= 0 {
		l.ttl = DefaultOTPTTL
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.generate == nil {
		l.generate = GenerateOTPCode
	}
	return l, nil
}

// TTL returns the validity window of issued codes.
func (l *OTPLedger) TTL() time.Duration {
	return l.ttl
}

// Issue generates and stores a new code for the account.
func (l *OTPLedger) Issue(ctx context.Context, accountID ulid.ULID, destination string) (*OTP, error) {
	code, err := l.generate()
	if err != nil {
		return nil, oops.Code("OTP_ISSUE_FAILED").With("operation", "generate").Wrap(err)
	}

	now := l.now().UTC()
	otp, err := NewOTP(accountID, destination, code, now, l.ttl)
	if err != nil {
		return nil, oops.Code("OTP_ISSUE_FAILED").With("operation", "new otp").Wrap(err)
	}

	if l.invalidatePrevious {
		if _, err := l.repo.InvalidateOutstanding(ctx, accountID, now); err != nil {
			return nil, oops.Code("OTP_ISSUE_FAILED").
				With("operation", "invalidate outstanding").
				With("account_id", accountID.String()).
				Wrap(err)
		}
	}

	if err := l.repo.Create(ctx, otp); err != nil {
		return nil, oops.Code("OTP_ISSUE_FAILED").
			With("operation", "create").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return otp, nil
}

// Consume spends a code. Expiry is judged against the clock on every call,
// and an expired code is left unused. Only one concurrent caller can consume
// a given code; the others see OTPInvalid.
func (l *OTPLedger) Consume(ctx context.Context, accountID ulid.ULID, code string) (ConsumeResult, error) {
	if len(code) != OTPDigits {
		return OTPInvalid, nil
	}

	otp, err := l.repo.FindUnused(ctx, accountID, code)
	if errors.Is(err, ErrNotFound) {
		return OTPInvalid, nil
	}
	if err != nil {
		return OTPInvalid, oops.Code("OTP_CONSUME_FAILED").
			With("operation", "find unused").
			With("account_id", accountID.String()).
			Wrap(err)
	}

	now := l.now().UTC()
	if otp.IsExpiredAt(now) {
		return OTPExpired, nil
	}

	ok, err := l.repo.MarkUsed(ctx, otp.ID, now)
	if err != nil {
		return OTPInvalid, oops.Code("OTP_CONSUME_FAILED").
			With("operation", "mark used").
			With("otp_id", otp.ID.String()).
			Wrap(err)
	}
	if !ok {
		return OTPInvalid, nil
	}
	return OTPConsumed, nil
}

// Sweep deletes codes that expired or were used more than retention ago.
func (l *OTPLedger) Sweep(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := l.now().UTC().Add(-retention)
	n, err := l.repo.DeleteStale(ctx, cutoff)
	if err != nil {
		return 0, oops.Code("OTP_SWEEP_FAILED").With("cutoff", cutoff).Wrap(err)
	}
	return n, nil
}
