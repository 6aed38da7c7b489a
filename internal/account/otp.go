// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package account

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// OTP configuration.
const (
	OTPDigits     = 6
	DefaultOTPTTL = 5 * time.Minute
)

var otpSpace = big.NewInt(1_000_000) // 10^OTPDigits

// OTP is a one-time passcode issued for password recovery.
type OTP struct {
	ID          ulid.ULID
	AccountID   ulid.ULID
	Destination string
	Code        string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Used        bool
	UsedAt      *time.Time
}

// NewOTP creates an unused OTP record expiring ttl after issuedAt.
func NewOTP(accountID ulid.ULID, destination, code string, issuedAt time.Time, ttl time.Duration) (*OTP, error) {
	if accountID.IsZero() {
		return nil, oops.Code("OTP_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if destination == "" {
		return nil, oops.Code("OTP_INVALID_DESTINATION").Errorf("destination cannot be empty")
	}
	if len(code) != OTPDigits {
		return nil, oops.Code("OTP_INVALID_CODE").With("length", len(code)).Errorf("code must have %d digits", OTPDigits)
	}
	if ttl <= 0 {
		return nil, oops.Code("OTP_INVALID_TTL").With("ttl", ttl.String()).Errorf("ttl must be positive")
	}
	return &OTP{
		ID:          ulid.Make(),
		AccountID:   accountID,
		Destination: destination,
		Code:        code,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(ttl),
	}, nil
}

// IsExpiredAt reports whether the code is past its expiry at now. A code is
// still acceptable at exactly its expiry instant.
func (o *OTP) IsExpiredAt(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// GenerateOTPCode returns a uniformly random zero-padded decimal code.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", oops.Code("OTP_GENERATE_FAILED").Wrap(err)
	}
	return fmt.Sprintf("%0*d", OTPDigits, n.Int64()), nil
}

// OTPRepository manages OTP persistence.
type OTPRepository interface {
	// Create stores a new OTP record.
	Create(ctx context.Context, otp *OTP) error

	// FindUnused returns the unused record for the account and code with the
	// latest expiry, expired or not. Returns ErrNotFound when none exists.
	FindUnused(ctx context.Context, accountID ulid.ULID, code string) (*OTP, error)

	// MarkUsed flips used from false to true for the record if it is unused
	// and not expired at now. Returns false when another caller got there
	// first or the record expired in between.
	MarkUsed(ctx context.Context, id ulid.ULID, now time.Time) (bool, error)

	// InvalidateOutstanding marks every unused record of the account as used.
	InvalidateOutstanding(ctx context.Context, accountID ulid.ULID, now time.Time) (int64, error)

	// DeleteStale removes records that expired or were used before cutoff.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}
