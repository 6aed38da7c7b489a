// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

// Package account owns the identity model and the credential lifecycle.
//
// # Domain Types
//
// An Account is the base identity shared by every role. Each Account carries
// exactly one RoleDetail, a tagged union of FarmerDetail, SupplierDetail and
// AdminDetail selected by the Account's Role. Construct values with:
//   - NewAccount - validates name, contact fields, role and digest
//   - DefaultDetail - the detail record created alongside a new Account
//   - NewOTP - a one-time passcode with its expiry
//
// # Services
//
//   - IdentityStore - uniqueness checks, profile and detail updates, cascade deletion
//   - OTPLedger - issue and single-use consumption of recovery codes
//   - CredentialService - registration, login, password change and recovery
//   - OTPSweeper - periodic removal of spent recovery codes
//
// Persistence is behind AccountRepository and OTPRepository; see the postgres
// subpackage for the production implementation.
package account
