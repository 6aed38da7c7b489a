// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisetu/agrisetu/internal/account"
	"github.com/agrisetu/agrisetu/pkg/errutil"
)

var otpCols = []string{"id", "account_id", "destination", "code", "issued_at", "expires_at", "used", "used_at"}

func TestOTPRepository_Create(t *testing.T) {
	ctx := context.Background()
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	otp, err := account.NewOTP(ulid.Make(), "asha@example.com", "482913", issued, 10*time.Minute)
	require.NoError(t, err)

	t.Run("inserts record", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO password_otps`).
			WithArgs(otp.ID.String(), otp.AccountID.String(), "asha@example.com", "482913",
				issued, issued.Add(10*time.Minute), false, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewOTPRepository(mock).Create(ctx, otp))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO password_otps`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

		err := NewOTPRepository(mock).Create(ctx, otp)
		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO password_otps`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("timeout"))

		err := NewOTPRepository(mock).Create(ctx, otp)
		errutil.AssertErrorCode(t, err, "OTP_CREATE_FAILED")
	})
}

func TestOTPRepository_FindUnused(t *testing.T) {
	ctx := context.Background()
	accountID := ulid.Make()
	id := ulid.Make()
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("latest unused record", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`(?s)WHERE account_id = \$1 AND code = \$2 AND NOT used\s+ORDER BY expires_at DESC\s+LIMIT 1`).
			WithArgs(accountID.String(), "482913").
			WillReturnRows(pgxmock.NewRows(otpCols).AddRow(
				id.String(), accountID.String(), "asha@example.com", "482913",
				issued, issued.Add(10*time.Minute), false, nil))

		got, err := NewOTPRepository(mock).FindUnused(ctx, accountID, "482913")
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, accountID, got.AccountID)
		assert.False(t, got.Used)
		assert.Nil(t, got.UsedAt)
	})

	t.Run("none", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM password_otps`).WithArgs(accountID.String(), "000000").WillReturnError(pgx.ErrNoRows)

		_, err := NewOTPRepository(mock).FindUnused(ctx, accountID, "000000")
		require.ErrorIs(t, err, account.ErrNotFound)
		errutil.AssertErrorCode(t, err, "OTP_NOT_FOUND")
	})
}

func TestOTPRepository_MarkUsed(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()
	now := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"winner", 1, true},
		{"already used or expired", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectExec(`WHERE id = \$1 AND NOT used AND expires_at >= \$2`).
				WithArgs(id.String(), now).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			got, err := NewOTPRepository(mock).MarkUsed(ctx, id, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE password_otps`).WithArgs(id.String(), now).WillReturnError(errors.New("deadlock"))

		ok, err := NewOTPRepository(mock).MarkUsed(ctx, id, now)
		assert.False(t, ok)
		errutil.AssertErrorCode(t, err, "OTP_MARK_USED_FAILED")
	})
}

func TestOTPRepository_InvalidateOutstanding(t *testing.T) {
	mock := newMock(t)
	accountID := ulid.Make()
	now := time.Now().UTC()
	mock.ExpectExec(`WHERE account_id = \$1 AND NOT used`).
		WithArgs(accountID.String(), now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := NewOTPRepository(mock).InvalidateOutstanding(context.Background(), accountID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestOTPRepository_DeleteStale(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("reports deleted rows", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`WHERE expires_at < \$1 OR \(used AND used_at < \$1\)`).
			WithArgs(cutoff).
			WillReturnResult(pgxmock.NewResult("DELETE", 7))

		n, err := NewOTPRepository(mock).DeleteStale(context.Background(), cutoff)
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
	})

	t.Run("failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM password_otps`).WithArgs(cutoff).WillReturnError(errors.New("read only"))

		_, err := NewOTPRepository(mock).DeleteStale(context.Background(), cutoff)
		errutil.AssertErrorCode(t, err, "OTP_SWEEP_FAILED")
	})
}
