// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

// Package mocks provides testify mocks of the account ports.
package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/agrisetu/agrisetu/internal/account"
)

// T is the subset of testing.TB the constructors need.
type T interface {
	mock.TestingT
	Cleanup(func())
}

// MockAccountRepository is a mock account.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

var _ account.AccountRepository = (*MockAccountRepository)(nil)

// NewMockAccountRepository creates a mock whose expectations are asserted at
// test cleanup.
func NewMockAccountRepository(t T) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create mocks AccountRepository.Create.
func (m *MockAccountRepository) Create(ctx context.Context, a *account.Account, detail account.RoleDetail) error {
	return m.Called(ctx, a, detail).Error(0)
}

// GetByID mocks AccountRepository.GetByID.
func (m *MockAccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	ret := m.Called(ctx, id)
	return accountResult(ret)
}

// GetByEmail mocks AccountRepository.GetByEmail.
func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	ret := m.Called(ctx, email)
	return accountResult(ret)
}

// GetByPhone mocks AccountRepository.GetByPhone.
func (m *MockAccountRepository) GetByPhone(ctx context.Context, phone string) (*account.Account, error) {
	ret := m.Called(ctx, phone)
	return accountResult(ret)
}

// UpdateProfile mocks AccountRepository.UpdateProfile.
func (m *MockAccountRepository) UpdateProfile(ctx context.Context, a *account.Account) error {
	return m.Called(ctx, a).Error(0)
}

// UpdatePassword mocks AccountRepository.UpdatePassword.
func (m *MockAccountRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

// GetDetail mocks AccountRepository.GetDetail.
func (m *MockAccountRepository) GetDetail(ctx context.Context, id ulid.ULID, role account.Role) (account.RoleDetail, error) {
	ret := m.Called(ctx, id, role)
	var d account.RoleDetail
	if v := ret.Get(0); v != nil {
		d = v.(account.RoleDetail)
	}
	return d, ret.Error(1)
}

// SaveDetail mocks AccountRepository.SaveDetail.
func (m *MockAccountRepository) SaveDetail(ctx context.Context, id ulid.ULID, detail account.RoleDetail) error {
	return m.Called(ctx, id, detail).Error(0)
}

// Delete mocks AccountRepository.Delete.
func (m *MockAccountRepository) Delete(ctx context.Context, id ulid.ULID, role account.Role) error {
	return m.Called(ctx, id, role).Error(0)
}

func accountResult(ret mock.Arguments) (*account.Account, error) {
	var a *account.Account
	if v := ret.Get(0); v != nil {
		a = v.(*account.Account)
	}
	return a, ret.Error(1)
}

// MockOTPRepository is a mock account.OTPRepository.
type MockOTPRepository struct {
	mock.Mock
}

var _ account.OTPRepository = (*MockOTPRepository)(nil)

// NewMockOTPRepository creates a mock whose expectations are asserted at
// test cleanup.
func NewMockOTPRepository(t T) *MockOTPRepository {
	m := &MockOTPRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create mocks OTPRepository.Create.
func (m *MockOTPRepository) Create(ctx context.Context, otp *account.OTP) error {
	return m.Called(ctx, otp).Error(0)
}

// FindUnused mocks OTPRepository.FindUnused.
func (m *MockOTPRepository) FindUnused(ctx context.Context, accountID ulid.ULID, code string) (*account.OTP, error) {
	ret := m.Called(ctx, accountID, code)
	var o *account.OTP
	if v := ret.Get(0); v != nil {
		o = v.(*account.OTP)
	}
	return o, ret.Error(1)
}

// MarkUsed mocks OTPRepository.MarkUsed.
func (m *MockOTPRepository) MarkUsed(ctx context.Context, id ulid.ULID, now time.Time) (bool, error) {
	ret := m.Called(ctx, id, now)
	return ret.Bool(0), ret.Error(1)
}

// InvalidateOutstanding mocks OTPRepository.InvalidateOutstanding.
func (m *MockOTPRepository) InvalidateOutstanding(ctx context.Context, accountID ulid.ULID, now time.Time) (int64, error) {
	ret := m.Called(ctx, accountID, now)
	return int64Result(ret)
}

// DeleteStale mocks OTPRepository.DeleteStale.
func (m *MockOTPRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	ret := m.Called(ctx, cutoff)
	return int64Result(ret)
}

func int64Result(ret mock.Arguments) (int64, error) {
	var n int64
	if v := ret.Get(0); v != nil {
		n = v.(int64)
	}
	return n, ret.Error(1)
}

// MockPasswordHasher is a mock account.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

var _ account.PasswordHasher = (*MockPasswordHasher)(nil)

// NewMockPasswordHasher creates a mock whose expectations are asserted at
// test cleanup.
func NewMockPasswordHasher(t T) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash mocks PasswordHasher.Hash.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

// Verify mocks PasswordHasher.Verify.
func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	ret := m.Called(password, hash)
	return ret.Bool(0), ret.Error(1)
}

// NeedsUpgrade mocks PasswordHasher.NeedsUpgrade.
func (m *MockPasswordHasher) NeedsUpgrade(hash string) bool {
	return m.Called(hash).Bool(0)
}

// MockNotifier is a mock account.Notifier.
type MockNotifier struct {
	mock.Mock
}

var _ account.Notifier = (*MockNotifier)(nil)

// NewMockNotifier creates a mock whose expectations are asserted at test
// cleanup.
func NewMockNotifier(t T) *MockNotifier {
	m := &MockNotifier{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Send mocks Notifier.Send.
func (m *MockNotifier) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

// MockOutcomeRecorder is a mock account.OutcomeRecorder.
type MockOutcomeRecorder struct {
	mock.Mock
}

var _ account.OutcomeRecorder = (*MockOutcomeRecorder)(nil)

// NewMockOutcomeRecorder creates a mock whose expectations are asserted at
// test cleanup.
func NewMockOutcomeRecorder(t T) *MockOutcomeRecorder {
	m := &MockOutcomeRecorder{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Record mocks OutcomeRecorder.Record.
func (m *MockOutcomeRecorder) Record(operation, outcome string) {
	m.Called(operation, outcome)
}
