// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package account

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Field limits.
const (
	MaxNameLength     = 100
	MaxLocationLength = 100
)

// phoneRegex matches 7 to 15 digits with an optional leading plus, after
// spaces and dashes have been stripped.
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Account is the base identity record shared by all roles.
type Account struct {
	ID           ulid.ULID
	Name         string
	Email        *string
	Phone        *string
	PasswordHash string
	Role         Role
	Location     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public view of an Account. It never carries the digest.
type Profile struct {
	ID       ulid.ULID
	Name     string
	Email    string
	Phone    string
	Role     Role
	Location string
}

// Profile returns the public view of a.
func (a *Account) Profile() Profile {
	p := Profile{
		ID:       a.ID,
		Name:     a.Name,
		Role:     a.Role,
		Location: a.Location,
	}
	if a.Email != nil {
		p.Email = *a.Email
	}
	if a.Phone != nil {
		p.Phone = *a.Phone
	}
	return p
}

// NewAccount creates an Account with a fresh ID after validating its fields.
// Empty email and phone values are stored as absent.
func NewAccount(name, email, phone, passwordHash string, role Role, location string) (*Account, error) {
	if passwordHash == "" {
		return nil, oops.Code(CodeInvalidInput).Errorf("password hash cannot be empty")
	}
	if !role.Valid() {
		return nil, oops.Code(CodeInvalidInput).With("role", role).Errorf("unsupported role %q", role)
	}

	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	location = strings.TrimSpace(location)
	if err := ValidateLocation(location); err != nil {
		return nil, err
	}

	emailPtr, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	phonePtr, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Account{
		ID:           ulid.Make(),
		Name:         name,
		Email:        emailPtr,
		Phone:        phonePtr,
		PasswordHash: passwordHash,
		Role:         role,
		Location:     location,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateName checks the display name length.
func ValidateName(name string) error {
	if len(name) > MaxNameLength {
		return oops.Code(CodeInvalidInput).
			Public("Name is too long").
			With("max", MaxNameLength).
			Errorf("name must be at most %d characters", MaxNameLength)
	}
	return nil
}

// ValidateLocation checks the home-location length.
func ValidateLocation(location string) error {
	if len(location) > MaxLocationLength {
		return oops.Code(CodeInvalidInput).
			Public("Location is too long").
			With("max", MaxLocationLength).
			Errorf("location must be at most %d characters", MaxLocationLength)
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email address and checks its
// shape. Returns "" for blank input.
func NormalizeEmail(email string) (string, error) {
	p, err := normalizeEmail(email)
	if err != nil || p == nil {
		return "", err
	}
	return *p, nil
}

func normalizeEmail(email string) (*string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, oops.Code(CodeInvalidInput).
			Public("Email address is not valid").
			With("email", email).
			Errorf("malformed email address")
	}
	return &email, nil
}

// NormalizePhone strips separators from a phone number and checks its
// shape. Returns "" for blank input.
func NormalizePhone(phone string) (string, error) {
	p, err := normalizePhone(phone)
	if err != nil || p == nil {
		return "", err
	}
	return *p, nil
}

func normalizePhone(phone string) (*string, error) {
	phone = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	if phone == "" {
		return nil, nil
	}
	if !phoneRegex.MatchString(phone) {
		return nil, oops.Code(CodeInvalidInput).
			Public("Phone number is not valid").
			With("phone", phone).
			Errorf("malformed phone number")
	}
	return &phone, nil
}

// ProfilePatch is a partial update of an Account's editable fields.
type ProfilePatch struct {
	Name     *string
	Phone    *string
	Location *string
}

// IsEmpty reports whether the patch names no field.
func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil && p.Location == nil
}

// AccountRepository manages account and role detail persistence.
type AccountRepository interface {
	// Create stores a new account together with its role detail. Both rows are
	// written or neither is. Returns ErrDuplicateEmail or ErrDuplicatePhone
	// when a uniqueness constraint rejects the insert.
	Create(ctx context.Context, account *Account, detail RoleDetail) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	// Returns ErrNotFound if no account has the given email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// GetByPhone retrieves an account by phone number.
	GetByPhone(ctx context.Context, phone string) (*Account, error)

	// UpdateProfile writes name, phone, location and updated_at.
	// Returns ErrDuplicatePhone when the phone belongs to another account.
	UpdateProfile(ctx context.Context, account *Account) error

	// UpdatePassword updates only the password hash for an account.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// GetDetail retrieves the role detail of an account.
	// Returns ErrNotFound if the detail row does not exist.
	GetDetail(ctx context.Context, id ulid.ULID, role Role) (RoleDetail, error)

	// SaveDetail inserts or replaces the role detail of an account.
	SaveDetail(ctx context.Context, id ulid.ULID, detail RoleDetail) error

	// Delete removes the role detail (if any) and then the account, atomically.
	Delete(ctx context.Context, id ulid.ULID, role Role) error
}
