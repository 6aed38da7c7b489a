// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/agrisetu/agrisetu/pkg/errutil"
)

// dummyPasswordHash is verified when the email is unknown so that login takes
// the same time whether or not the account exists. It matches no password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Outcome recorded for operations that succeed.
const OutcomeSuccess = "success"

// OutcomeRecorder counts operation outcomes. The outcome is OutcomeSuccess or
// the failure's error code.
type OutcomeRecorder interface {
	Record(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) Record(string, string) {}

// RegisterInput is the raw registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     string
	Location string
}

// Registration is the result of a successful Register.
type Registration struct {
	AccountID ulid.ULID
	Message   string
}

// ProfileUpdate is the result of UpdateProfile. Changed is false when the
// patch named no field.
type ProfileUpdate struct {
	Profile Profile
	Changed bool
	Message string
}

// AccountInfo is an account's public profile with its role detail.
type AccountInfo struct {
	Profile Profile
	Detail  RoleDetail
}

// CredentialService orchestrates registration, login, password change and
// OTP password recovery.
type CredentialService struct {
	store    *IdentityStore
	ledger   *OTPLedger
	hasher   PasswordHasher
	notifier Notifier
	logger   *slog.Logger
	recorder OutcomeRecorder
}

// Option configures a CredentialService.
type Option func(*CredentialService)

// WithLogger sets the logger used for dependency failures and best-effort
// operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *CredentialService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r OutcomeRecorder) Option {
	return func(s *CredentialService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewCredentialService creates a CredentialService.
func NewCredentialService(
	store *IdentityStore,
	ledger *OTPLedger,
	hasher PasswordHasher,
	notifier Notifier,
	opts ...Option,
) (*CredentialService, error) {
	if store == nil {
		return nil, oops.Errorf("identity store is required")
	}
	if ledger == nil {
		return nil, oops.Errorf("otp ledger is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if notifier == nil {
		return nil, oops.Errorf("notifier is required")
	}
	s := &CredentialService{
		store:    store,
		ledger:   ledger,
		hasher:   hasher,
		notifier: notifier,
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates an account with default role details.
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (reg *Registration, err error) {
	defer s.record("register", &err)

	var missing []string
	if strings.TrimSpace(in.Email) == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(in.Role) == "" {
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		return nil, errMissingFields(missing...)
	}

	role, err := ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.dependencyFailure(ctx, "hash password", err)
	}

	acct, err := s.store.Create(ctx, NewAccountInput{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         role,
		Location:     in.Location,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account registered",
		"account_id", acct.ID.String(),
		"role", string(acct.Role))
	return &Registration{AccountID: acct.ID, Message: MsgRegistered}, nil
}

// Login verifies an email and password and returns the account's public
// profile. Unknown emails and wrong passwords fail identically.
func (s *CredentialService) Login(ctx context.Context, email, password string) (profile *Profile, err error) {
	defer s.record("login", &err)

	acct, lookupErr := s.store.FindByEmail(ctx, email)
	exists := lookupErr == nil
	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		return nil, lookupErr
	}

	target := dummyPasswordHash
	if exists {
		target = acct.PasswordHash
	}

	// Always verify so both failure paths cost the same.
	valid, verifyErr := s.hasher.Verify(password, target)
	if verifyErr != nil && exists {
		errutil.LogErrorContext(ctx, s.logger, "stored password digest is unreadable",
			oops.With("account_id", acct.ID.String()).Wrap(verifyErr))
	}
	if !exists || !valid || verifyErr != nil {
		return nil, errInvalidCredentials()
	}

	if s.hasher.NeedsUpgrade(acct.PasswordHash) {
		s.upgradeDigest(ctx, acct, password)
	}

	p := acct.Profile()
	return &p, nil
}

// upgradeDigest rehashes the password with the current parameters. Login
// succeeds regardless of the outcome.
func (s *CredentialService) upgradeDigest(ctx context.Context, acct *Account, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.store.UpdatePassword(ctx, acct.ID, hash)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "password digest upgrade failed",
			"account_id", acct.ID.String(),
			"error", err)
		return
	}
	acct.PasswordHash = hash
	s.logger.InfoContext(ctx, "password digest upgraded", "account_id", acct.ID.String())
}

// ChangePassword replaces the password after checking the current one.
func (s *CredentialService) ChangePassword(ctx context.Context, id ulid.ULID, oldPassword, newPassword string) (err error) {
	defer s.record("change_password", &err)

	if newPassword == "" {
		return errMissingPassword()
	}

	acct, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	valid, err := s.hasher.Verify(oldPassword, acct.PasswordHash)
	if err != nil {
		return s.dependencyFailure(ctx, "verify password", err)
	}
	if !valid {
		return oops.Code(CodeWrongOldPassword).
			Public(msgWrongOldPassword).
			With("account_id", id.String()).
			Errorf("old password does not match")
	}

	return s.storePassword(ctx, id, newPassword)
}

// InitiatePasswordRecovery issues a recovery code and delivers it to the
// account's email. A failed delivery fails the operation; the issued code is
// left in place.
func (s *CredentialService) InitiatePasswordRecovery(ctx context.Context, email string) (err error) {
	defer s.record("initiate_recovery", &err)

	acct, err := s.findForRecovery(ctx, email)
	if err != nil {
		return err
	}

	otp, err := s.ledger.Issue(ctx, acct.ID, *acct.Email)
	if err != nil {
		return s.dependencyFailure(ctx, "issue otp", err)
	}

	subject, body := RecoveryMessage(acct.Name, otp.Code, s.ledger.TTL())
	if err := s.notifier.Send(ctx, otp.Destination, subject, body); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "recovery code delivery failed",
			oops.With("account_id", acct.ID.String()).With("otp_id", otp.ID.String()).Wrap(err))
		return oops.Code(CodeDeliveryFailed).
			Public(msgDeliveryFailed).
			With("account_id", acct.ID.String()).
			Errorf("recovery code delivery failed")
	}

	s.logger.InfoContext(ctx, "recovery code issued",
		"account_id", acct.ID.String(),
		"otp_id", otp.ID.String(),
		"expires_at", otp.ExpiresAt)
	return nil
}

// CompletePasswordRecovery spends a recovery code and sets the new password.
// The code is consumed before the password is written.
func (s *CredentialService) CompletePasswordRecovery(ctx context.Context, email, code, newPassword string) (err error) {
	defer s.record("complete_recovery", &err)

	if newPassword == "" {
		return errMissingPassword()
	}

	acct, err := s.findForRecovery(ctx, email)
	if err != nil {
		return err
	}

	result, err := s.ledger.Consume(ctx, acct.ID, strings.TrimSpace(code))
	if err != nil {
		return s.dependencyFailure(ctx, "consume otp", err)
	}
	switch result {
	case OTPConsumed:
	case OTPExpired:
		return oops.Code(CodeCodeExpired).
			Public(msgCodeExpired).
			With("account_id", acct.ID.String()).
			Errorf("recovery code expired")
	default:
		return oops.Code(CodeInvalidCode).
			Public(msgInvalidCode).
			With("account_id", acct.ID.String()).
			Errorf("recovery code invalid or already used")
	}

	if err := s.storePassword(ctx, acct.ID, newPassword); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password reset by recovery code", "account_id", acct.ID.String())
	return nil
}

// UpdateProfile applies a partial profile update.
func (s *CredentialService) UpdateProfile(ctx context.Context, id ulid.ULID, patch ProfilePatch) (update *ProfileUpdate, err error) {
	defer s.record("update_profile", &err)

	acct, changed, err := s.store.UpdateProfile(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	msg := MsgProfileUpdated
	if !changed {
		msg = MsgNoChange
	}
	return &ProfileUpdate{Profile: acct.Profile(), Changed: changed, Message: msg}, nil
}

// UpdateRoleDetail applies a partial update to the account's role detail.
func (s *CredentialService) UpdateRoleDetail(ctx context.Context, id ulid.ULID, patch DetailPatch) (detail RoleDetail, err error) {
	defer s.record("update_detail", &err)
	return s.store.UpdateRoleDetail(ctx, id, patch)
}

// GetAccount returns the account's profile and role detail.
func (s *CredentialService) GetAccount(ctx context.Context, id ulid.ULID) (info *AccountInfo, err error) {
	defer s.record("get_account", &err)

	acct, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail, err := s.store.GetDetail(ctx, acct)
	if err != nil {
		return nil, err
	}
	return &AccountInfo{Profile: acct.Profile(), Detail: detail}, nil
}

// DeleteAccount removes the account, its role detail and its recovery codes.
func (s *CredentialService) DeleteAccount(ctx context.Context, id ulid.ULID) (err error) {
	defer s.record("delete_account", &err)

	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "account deleted", "account_id", id.String())
	return nil
}

func (s *CredentialService) findForRecovery(ctx context.Context, email string) (*Account, error) {
	acct, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeEmailNotFound).Public(msgEmailNotFound).Errorf("no account for email")
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *CredentialService) storePassword(ctx context.Context, id ulid.ULID, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return s.dependencyFailure(ctx, "hash password", err)
	}
	return s.store.UpdatePassword(ctx, id, hash)
}

func (s *CredentialService) dependencyFailure(ctx context.Context, operation string, err error) error {
	errutil.LogErrorContext(ctx, s.logger, "credential operation failed", oops.With("operation", operation).Wrap(err))
	return errStore(operation)
}

func (s *CredentialService) record(operation string, errp *error) {
	outcome := OutcomeSuccess
	if *errp != nil {
		outcome = ErrorCode(*errp)
		if outcome == "" {
			outcome = "error"
		}
	}
	s.recorder.Record(operation, outcome)
}
