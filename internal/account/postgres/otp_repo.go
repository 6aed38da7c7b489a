// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/agrisetu/agrisetu/internal/account"
)

// OTPRepository implements account.OTPRepository using PostgreSQL.
type OTPRepository struct {
	pool poolIface
}

// NewOTPRepository creates a new OTPRepository.
func NewOTPRepository(pool poolIface) *OTPRepository {
	return &OTPRepository{pool: pool}
}

// Create stores a new OTP record.
func (r *OTPRepository) Create(ctx context.Context, otp *account.OTP) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO password_otps (id, account_id, destination, code, issued_at, expires_at, used, used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		otp.ID.String(),
		otp.AccountID.String(),
		otp.Destination,
		otp.Code,
		otp.IssuedAt,
		otp.ExpiresAt,
		otp.Used,
		otp.UsedAt,
	)
	if isForeignKeyViolation(err) {
		return accountNotFound(otp.AccountID)
	}
	if err != nil {
		return oops.Code("OTP_CREATE_FAILED").
			With("operation", "insert otp").
			With("account_id", otp.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// FindUnused returns the unused record for the account and code with the
// latest expiry.
func (r *OTPRepository) FindUnused(ctx context.Context, accountID ulid.ULID, code string) (*account.OTP, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, account_id, destination, code, issued_at, expires_at, used, used_at
		FROM password_otps
		WHERE account_id = $1 AND code = $2 AND NOT used
		ORDER BY expires_at DESC
		LIMIT 1
	`, accountID.String(), code)

	otp, err := scanOTP(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("OTP_NOT_FOUND").
			With("account_id", accountID.String()).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("OTP_GET_FAILED").
			With("operation", "find unused otp").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return otp, nil
}

// MarkUsed flips used only while the record is unused and unexpired. The
// condition lives in the UPDATE so concurrent callers cannot both win.
func (r *OTPRepository) MarkUsed(ctx context.Context, id ulid.ULID, now time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE password_otps SET used = TRUE, used_at = $2
		WHERE id = $1 AND NOT used AND expires_at >= $2
	`, id.String(), now)
	if err != nil {
		return false, oops.Code("OTP_MARK_USED_FAILED").
			With("operation", "mark otp used").
			With("id", id.String()).
			Wrap(err)
	}
	return result.RowsAffected() == 1, nil
}

// InvalidateOutstanding marks every unused record of the account as used.
func (r *OTPRepository) InvalidateOutstanding(ctx context.Context, accountID ulid.ULID, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE password_otps SET used = TRUE, used_at = $2
		WHERE account_id = $1 AND NOT used
	`, accountID.String(), now)
	if err != nil {
		return 0, oops.Code("OTP_INVALIDATE_FAILED").
			With("operation", "invalidate outstanding otps").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteStale removes records that expired or were used before cutoff.
func (r *OTPRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM password_otps
		WHERE expires_at < $1 OR (used AND used_at < $1)
	`, cutoff)
	if err != nil {
		return 0, oops.Code("OTP_SWEEP_FAILED").
			With("operation", "delete stale otps").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

func scanOTP(row pgx.Row) (*account.OTP, error) {
	var (
		idStr, accountIDStr string
		otp                 account.OTP
	)
	err := row.Scan(
		&idStr,
		&accountIDStr,
		&otp.Destination,
		&otp.Code,
		&otp.IssuedAt,
		&otp.ExpiresAt,
		&otp.Used,
		&otp.UsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with lookup context
		}
		return nil, oops.Code("OTP_SCAN_FAILED").With("operation", "scan otp").Wrap(err)
	}
	if otp.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("OTP_INVALID_ID").With("id", idStr).Wrap(err)
	}
	if otp.AccountID, err = ulid.Parse(accountIDStr); err != nil {
		return nil, oops.Code("OTP_INVALID_ACCOUNT_ID").With("account_id", accountIDStr).Wrap(err)
	}
	return &otp, nil
}

// Compile-time interface check.
var _ account.OTPRepository = (*OTPRepository)(nil)
