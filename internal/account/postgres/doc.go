// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

// Package postgres implements the account repositories on PostgreSQL.
//
// Uniqueness of email and phone is enforced by the accounts_email_key and
// accounts_phone_key indexes; violations surface as account.ErrDuplicateEmail
// and account.ErrDuplicatePhone. Single use of recovery codes is enforced by
// a conditional UPDATE, so concurrent consumers never both succeed.
package postgres
