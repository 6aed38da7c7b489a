// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

// Package store owns the PostgreSQL connection pool and the schema
// migrations embedded in the binary.
package store
