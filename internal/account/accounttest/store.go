// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

// Package accounttest provides in-memory implementations of the account
// ports for tests.
package accounttest

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/agrisetu/agrisetu/internal/account"
)

// Store holds accounts, role details and recovery codes in memory. Its two
// views, Accounts and OTPs, share one lock so account deletion cascades to
// the account's codes the way the database does.
type Store struct {
	mu       sync.Mutex
	accounts map[ulid.ULID]account.Account
	details  map[ulid.ULID]account.RoleDetail
	otps     map[ulid.ULID]account.OTP
	failures map[string]error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[ulid.ULID]account.Account),
		details:  make(map[ulid.ULID]account.RoleDetail),
		otps:     make(map[ulid.ULID]account.OTP),
		failures: make(map[string]error),
	}
}

// FailOn makes every later call of the named repository method return err,
// e.g. FailOn("Accounts.Create", err). A nil err clears the failure.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// Accounts returns the AccountRepository view.
func (s *Store) Accounts() *AccountRepository {
	return &AccountRepository{s: s}
}

// OTPs returns the OTPRepository view.
func (s *Store) OTPs() *OTPRepository {
	return &OTPRepository{s: s}
}

// HasDetail reports whether a detail row exists for the account.
func (s *Store) HasDetail(id ulid.ULID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.details[id]
	return ok
}

// RemoveDetail deletes the detail row, leaving the account in place.
func (s *Store) RemoveDetail(id ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.details, id)
}

// CodesFor returns copies of every recovery code stored for the account.
func (s *Store) CodesFor(accountID ulid.ULID) []account.OTP {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []account.OTP
	for _, o := range s.otps {
		if o.AccountID == accountID {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b account.OTP) int { return a.IssuedAt.Compare(b.IssuedAt) })
	return out
}

func (s *Store) failure(method string) error {
	return s.failures[method]
}

// AccountRepository is the in-memory account.AccountRepository.
type AccountRepository struct {
	s *Store
}

var _ account.AccountRepository = (*AccountRepository)(nil)

// Create stores the account and its detail, or neither.
func (r *AccountRepository) Create(_ context.Context, a *account.Account, detail account.RoleDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Accounts.Create"); err != nil {
		return err
	}
	if err := detail.Validate(); err != nil {
		return err
	}
	if err := r.conflict(a); err != nil {
		return err
	}
	r.s.accounts[a.ID] = cloneAccount(*a)
	r.s.details[a.ID] = cloneDetail(detail)
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, id ulid.ULID) (*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Accounts.GetByID"); err != nil {
		return nil, err
	}
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, notFound("ACCOUNT_NOT_FOUND", "id", id.String())
	}
	out := cloneAccount(a)
	return &out, nil
}

// GetByEmail retrieves an account by email, ignoring case.
func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Accounts.GetByEmail"); err != nil {
		return nil, err
	}
	for _, a := range r.s.accounts {
		if a.Email != nil && strings.EqualFold(*a.Email, email) {
			out := cloneAccount(a)
			return &out, nil
		}
	}
	return nil, notFound("ACCOUNT_NOT_FOUND", "email", email)
}

// GetByPhone retrieves an account by phone.
func (r *AccountRepository) GetByPhone(_ context.Context, phone string) (*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Accounts.GetByPhone"); err != nil {
		return nil, err
	}
	for _, a := range r.s.accounts {
		if a.Phone != nil && *a.Phone == phone {
			out := cloneAccount(a)
			return &out, nil
		}
	}
	return nil, notFound("ACCOUNT_NOT_FOUND", "phone", phone)
}

// UpdateProfile writes the editable profile fields.
func (r *AccountRepository) UpdateProfile(_ context.Context, a *account.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Accounts.UpdateProfile"); err != nil {
		return err
	}
	cur, ok := r.s.accounts[a.ID]
	if !ok {
		return notFound("ACCOUNT_NOT_FOUND", "id", a.ID.String())
	}
	if err := r.conflict(a); err != nil {
		return err
	}
	cur.Name = a.Name
	cur.Phone = clonePtr(a.Phone)
	cur.Location = a.Location
	cur.UpdatedAt = a.UpdatedAt
	r.s.accounts[a.ID] = cur
	return nil
}

// UpdatePassword replaces the stored digest.
func (r *AccountRepository) UpdatePassword(_ context.Context, id ulid.ULID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Accounts.UpdatePassword"); err != nil {
		return err
	}
	cur, ok := r.s.accounts[id]
	if !ok {
		return notFound("ACCOUNT_NOT_FOUND", "id", id.String())
	}
	cur.PasswordHash = passwordHash
	cur.UpdatedAt = time.Now().UTC()
	r.s.accounts[id] = cur
	return nil
}

// GetDetail retrieves the role detail of an account.
func (r *AccountRepository) GetDetail(_ context.Context, id ulid.ULID, role account.Role) (account.RoleDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Accounts.GetDetail"); err != nil {
		return account.RoleDetail{}, err
	}
	d, ok := r.s.details[id]
	if !ok || d.Role != role {
		return account.RoleDetail{}, notFound("DETAIL_NOT_FOUND", "account_id", id.String())
	}
	return cloneDetail(d), nil
}

// SaveDetail inserts or replaces the role detail.
func (r *AccountRepository) SaveDetail(_ context.Context, id ulid.ULID, detail account.RoleDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Accounts.SaveDetail"); err != nil {
		return err
	}
	if _, ok := r.s.accounts[id]; !ok {
		return notFound("ACCOUNT_NOT_FOUND", "id", id.String())
	}
	if err := detail.Validate(); err != nil {
		return err
	}
	r.s.details[id] = cloneDetail(detail)
	return nil
}

// Delete removes the detail, the account and the account's codes.
func (r *AccountRepository) Delete(_ context.Context, id ulid.ULID, _ account.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Accounts.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.accounts[id]; !ok {
		return notFound("ACCOUNT_NOT_FOUND", "id", id.String())
	}
	delete(r.s.details, id)
	delete(r.s.accounts, id)
	for otpID, o := range r.s.otps {
		if o.AccountID == id {
			delete(r.s.otps, otpID)
		}
	}
	return nil
}

// conflict mirrors the unique indexes on LOWER(email) and phone.
func (r *AccountRepository) conflict(a *account.Account) error {
	for id, other := range r.s.accounts {
		if id == a.ID {
			continue
		}
		if a.Email != nil && other.Email != nil && strings.EqualFold(*a.Email, *other.Email) {
			return oops.Code("ACCOUNT_DUPLICATE").With("field", "email").Wrap(account.ErrDuplicateEmail)
		}
		if a.Phone != nil && other.Phone != nil && *a.Phone == *other.Phone {
			return oops.Code("ACCOUNT_DUPLICATE").With("field", "phone").Wrap(account.ErrDuplicatePhone)
		}
	}
	return nil
}

// OTPRepository is the in-memory account.OTPRepository.
type OTPRepository struct {
	s *Store
}

var _ account.OTPRepository = (*OTPRepository)(nil)

// Create stores a code.
func (r *OTPRepository) Create(_ context.Context, o *account.OTP) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("OTPs.Create"); err != nil {
		return err
	}
	if _, ok := r.s.accounts[o.AccountID]; !ok {
		return oops.Code("OTP_ACCOUNT_MISSING").With("account_id", o.AccountID.String()).Errorf("foreign key violation")
	}
	r.s.otps[o.ID] = *o
	return nil
}

// FindUnused returns the unused code with the latest expiry.
func (r *OTPRepository) FindUnused(_ context.Context, accountID ulid.ULID, code string) (*account.OTP, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("OTPs.FindUnused"); err != nil {
		return nil, err
	}
	var found *account.OTP
	for _, o := range r.s.otps {
		if o.AccountID != accountID || o.Code != code || o.Used {
			continue
		}
		if found == nil || o.ExpiresAt.After(found.ExpiresAt) {
			match := o
			found = &match
		}
	}
	if found == nil {
		return nil, notFound("OTP_NOT_FOUND", "account_id", accountID.String())
	}
	return found, nil
}

// MarkUsed flips an unused, unexpired code to used.
func (r *OTPRepository) MarkUsed(_ context.Context, id ulid.ULID, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("OTPs.MarkUsed"); err != nil {
		return false, err
	}
	o, ok := r.s.otps[id]
	if !ok || o.Used || now.After(o.ExpiresAt) {
		return false, nil
	}
	o.Used = true
	o.UsedAt = &now
	r.s.otps[id] = o
	return true, nil
}

// InvalidateOutstanding marks every unused code of the account as used.
func (r *OTPRepository) InvalidateOutstanding(_ context.Context, accountID ulid.ULID, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("OTPs.InvalidateOutstanding"); err != nil {
		return 0, err
	}
	var n int64
	for id, o := range r.s.otps {
		if o.AccountID == accountID && !o.Used {
			o.Used = true
			o.UsedAt = &now
			r.s.otps[id] = o
			n++
		}
	}
	return n, nil
}

// DeleteStale removes codes that expired or were used before cutoff.
func (r *OTPRepository) DeleteStale(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("OTPs.DeleteStale"); err != nil {
		return 0, err
	}
	var n int64
	for id, o := range r.s.otps {
		if o.ExpiresAt.Before(cutoff) || (o.Used && o.UsedAt != nil && o.UsedAt.Before(cutoff)) {
			delete(r.s.otps, id)
			n++
		}
	}
	return n, nil
}

func notFound(code, key, value string) error {
	return oops.Code(code).With(key, value).Wrap(account.ErrNotFound)
}

func cloneAccount(a account.Account) account.Account {
	a.Email = clonePtr(a.Email)
	a.Phone = clonePtr(a.Phone)
	return a
}

func cloneDetail(d account.RoleDetail) account.RoleDetail {
	if d.Farmer != nil {
		f := *d.Farmer
		f.MainCrop = clonePtr(f.MainCrop)
		f.IrrigationType = clonePtr(f.IrrigationType)
		d.Farmer = &f
	}
	if d.Supplier != nil {
		s := *d.Supplier
		s.ServiceAreas = slices.Clone(s.ServiceAreas)
		d.Supplier = &s
	}
	if d.Admin != nil {
		a := *d.Admin
		d.Admin = &a
	}
	return d
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
