// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/agrisetu/agrisetu/pkg/errutil"
)

// NewAccountInput carries the fields of a registration after the secret has
// been hashed.
type NewAccountInput struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	Location     string
}

// IdentityStore owns accounts and their role details. The lookups it performs
// before writes only produce friendlier errors; the repository's uniqueness
// constraints decide conflicts.
type IdentityStore struct {
	repo   AccountRepository
	logger *slog.Logger
}

// NewIdentityStore creates an IdentityStore.
func NewIdentityStore(repo AccountRepository, logger *slog.Logger) (*IdentityStore, error) {
	if repo == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityStore{repo: repo, logger: logger}, nil
}

// Create registers an account and its default role detail.
func (s *IdentityStore) Create(ctx context.Context, in NewAccountInput) (*Account, error) {
	acct, err := NewAccount(in.Name, in.Email, in.Phone, in.PasswordHash, in.Role, in.Location)
	if err != nil {
		return nil, err
	}

	if acct.Email != nil {
		if err := s.ensureFree("get account by email", func() (*Account, error) {
			return s.repo.GetByEmail(ctx, *acct.Email)
		}, ulid.ULID{}, errEmailTaken); err != nil {
			return nil, err
		}
	}
	if acct.Phone != nil {
		if err := s.ensureFree("get account by phone", func() (*Account, error) {
			return s.repo.GetByPhone(ctx, *acct.Phone)
		}, ulid.ULID{}, errPhoneTaken); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, acct, DefaultDetail(acct.Role)); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			return nil, errEmailTaken()
		case errors.Is(err, ErrDuplicatePhone):
			return nil, errPhoneTaken()
		}
		return nil, s.storeFailure("create account", err)
	}
	return acct, nil
}

// FindByEmail looks up an account by email.
func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	acct, err := s.repo.GetByEmail(ctx, normalized)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeNotFound).Public(msgNotFound).Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, s.storeFailure("get account by email", err)
	}
	return acct, nil
}

// FindByID looks up an account by ID.
func (s *IdentityStore) FindByID(ctx context.Context, id ulid.ULID) (*Account, error) {
	acct, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, errAccountNotFound(id.String())
	}
	if err != nil {
		return nil, s.storeFailure("get account by id", err)
	}
	return acct, nil
}

// UpdateProfile applies a partial profile update. It reports changed=false
// without writing when the patch names no field.
func (s *IdentityStore) UpdateProfile(ctx context.Context, id ulid.ULID, patch ProfilePatch) (*Account, bool, error) {
	acct, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if patch.IsEmpty() {
		return acct, false, nil
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := ValidateName(name); err != nil {
			return nil, false, err
		}
		acct.Name = name
	}
	if patch.Location != nil {
		location := strings.TrimSpace(*patch.Location)
		if err := ValidateLocation(location); err != nil {
			return nil, false, err
		}
		acct.Location = location
	}
	if patch.Phone != nil {
		phone, err := normalizePhone(*patch.Phone)
		if err != nil {
			return nil, false, err
		}
		if phone != nil {
			if err := s.ensureFree("get account by phone", func() (*Account, error) {
				return s.repo.GetByPhone(ctx, *phone)
			}, acct.ID, errPhoneTaken); err != nil {
				return nil, false, err
			}
		}
		acct.Phone = phone
	}
	acct.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProfile(ctx, acct); err != nil {
		switch {
		case errors.Is(err, ErrDuplicatePhone):
			return nil, false, errPhoneTaken()
		case errors.Is(err, ErrNotFound):
			return nil, false, errAccountNotFound(id.String())
		}
		return nil, false, s.storeFailure("update profile", err)
	}
	return acct, true, nil
}

// UpdatePassword stores a new digest for the account.
func (s *IdentityStore) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	err := s.repo.UpdatePassword(ctx, id, passwordHash)
	if errors.Is(err, ErrNotFound) {
		return errAccountNotFound(id.String())
	}
	if err != nil {
		return s.storeFailure("update password", err)
	}
	return nil
}

// GetDetail returns the account's role detail. A missing detail row yields
// the role's defaults.
func (s *IdentityStore) GetDetail(ctx context.Context, acct *Account) (RoleDetail, error) {
	detail, err := s.repo.GetDetail(ctx, acct.ID, acct.Role)
	if errors.Is(err, ErrNotFound) {
		s.logger.WarnContext(ctx, "role detail missing, using defaults",
			"account_id", acct.ID.String(),
			"role", string(acct.Role))
		return DefaultDetail(acct.Role), nil
	}
	if err != nil {
		return RoleDetail{}, s.storeFailure("get role detail", err)
	}
	return detail, nil
}

// UpdateRoleDetail applies a partial update to the account's role detail.
// The account must exist and hold the patch's role.
func (s *IdentityStore) UpdateRoleDetail(ctx context.Context, id ulid.ULID, patch DetailPatch) (RoleDetail, error) {
	acct, err := s.FindByID(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}
	if acct.Role != patch.Role {
		return RoleDetail{}, oops.Code(CodeRoleMismatch).
			Public(msgRoleMismatch).
			With("account_id", id.String()).
			With("account_role", acct.Role).
			With("patch_role", patch.Role).
			Errorf("account does not hold role %q", patch.Role)
	}

	current, err := s.GetDetail(ctx, acct)
	if err != nil {
		return RoleDetail{}, err
	}
	if patch.IsEmpty() {
		return current, nil
	}
	updated, err := patch.Apply(current)
	if err != nil {
		return RoleDetail{}, err
	}
	if err := s.repo.SaveDetail(ctx, id, updated); err != nil {
		if errors.Is(err, ErrNotFound) {
			return RoleDetail{}, errAccountNotFound(id.String())
		}
		return RoleDetail{}, s.storeFailure("save role detail", err)
	}
	return updated, nil
}

// DeleteAccount removes the account's role detail and then the account.
func (s *IdentityStore) DeleteAccount(ctx context.Context, id ulid.ULID) error {
	acct, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	err = s.repo.Delete(ctx, id, acct.Role)
	if errors.Is(err, ErrNotFound) {
		return errAccountNotFound(id.String())
	}
	if err != nil {
		return s.storeFailure("delete account", err)
	}
	return nil
}

// ensureFree fails with taken() when lookup finds an account other than self.
func (s *IdentityStore) ensureFree(
	operation string,
	lookup func() (*Account, error),
	self ulid.ULID,
	taken func() error,
) error {
	existing, err := lookup()
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return s.storeFailure(operation, err)
	}
	if existing.ID == self {
		return nil
	}
	return taken()
}

func (s *IdentityStore) storeFailure(operation string, err error) error {
	errutil.LogError(s.logger, "account store failure", oops.With("operation", operation).Wrap(err))
	return errStore(operation)
}
