// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package account

import (
	"errors"

	"github.com/samber/oops"
)

// Repository sentinels. Implementations wrap these so callers can use errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when an insert or update violates email uniqueness.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrDuplicatePhone is returned when an insert or update violates phone uniqueness.
	ErrDuplicatePhone = errors.New("phone already in use")
)

// Error codes carried by errors returned from this package's services.
const (
	CodeMissingFields      = "ACCOUNT_MISSING_FIELDS"
	CodeInvalidInput       = "ACCOUNT_INVALID_INPUT"
	CodeEmailTaken         = "ACCOUNT_EMAIL_TAKEN"
	CodePhoneTaken         = "ACCOUNT_PHONE_TAKEN"
	CodeNotFound           = "ACCOUNT_NOT_FOUND"
	CodeRoleMismatch       = "ACCOUNT_ROLE_MISMATCH"
	CodeStoreError         = "ACCOUNT_STORE_ERROR"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeWrongOldPassword   = "AUTH_WRONG_OLD_PASSWORD"
	CodeEmailNotFound      = "RECOVERY_EMAIL_NOT_FOUND"
	CodeInvalidCode        = "RECOVERY_INVALID_CODE"
	CodeCodeExpired        = "RECOVERY_CODE_EXPIRED"
	CodeDeliveryFailed     = "RECOVERY_DELIVERY_FAILED"
)

// Kind classifies failures for callers that map them onto a transport.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindAuth
	KindDependency
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindDependency:
		return "dependency"
	default:
		return "unknown"
	}
}

var codeKinds = map[string]Kind{
	CodeMissingFields:      KindValidation,
	CodeInvalidInput:       KindValidation,
	CodeEmailTaken:         KindConflict,
	CodePhoneTaken:         KindConflict,
	CodeNotFound:           KindNotFound,
	CodeEmailNotFound:      KindNotFound,
	CodeRoleMismatch:       KindValidation,
	CodeStoreError:         KindDependency,
	CodeDeliveryFailed:     KindDependency,
	CodeInvalidCredentials: KindAuth,
	CodeWrongOldPassword:   KindAuth,
	CodeInvalidCode:        KindAuth,
	CodeCodeExpired:        KindAuth,
}

// KindOf returns the failure kind of err, or KindUnknown for errors that did
// not originate from this package.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindUnknown
	}
	code, _ := oopsErr.Code().(string)
	return codeKinds[code]
}

// ErrorCode returns the oops code of err, or "" when it has none.
func ErrorCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// PublicMessage returns the human-readable message for err that is safe to
// show to the account holder.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	return oops.GetPublic(err, msgInternal)
}

// User-facing messages. Login and recovery collapse distinct causes into one
// message each so responses do not reveal which accounts exist.
const (
	msgInternal           = "Something went wrong, please try again later"
	msgMissingFields      = "Email, password, and user type are required for registration"
	msgMissingPassword    = "New password is required"
	msgEmailTaken         = "User with this email already exists"
	msgPhoneTaken         = "User with this phone number already exists"
	msgNotFound           = "Account not found"
	msgRoleMismatch       = "Account does not have this role"
	msgInvalidCredentials = "Invalid email or password"
	msgWrongOldPassword   = "Current password is incorrect"
	msgEmailNotFound      = "No account is registered with this email"
	msgInvalidCode        = "Invalid or already used code"
	msgCodeExpired        = "Code has expired, please request a new one"
	msgDeliveryFailed     = "Could not send the recovery code, please try again later"
)

// Success messages returned alongside results.
const (
	MsgRegistered      = "User registered successfully"
	MsgLoggedIn        = "Logged in successfully"
	MsgPasswordChanged = "Password changed successfully"
	MsgCodeSent        = "A recovery code has been sent to your email"
	MsgPasswordReset   = "Password has been reset successfully"
	MsgProfileUpdated  = "Profile updated successfully"
	MsgNoChange        = "No changes to apply"
	MsgDetailUpdated   = "Details updated successfully"
	MsgAccountDeleted  = "Account deleted successfully"
)

func errMissingFields(fields ...string) error {
	return oops.Code(CodeMissingFields).
		Public(msgMissingFields).
		With("fields", fields).
		Errorf("missing required fields")
}

func errMissingPassword() error {
	return oops.Code(CodeMissingFields).
		Public(msgMissingPassword).
		With("fields", []string{"new_password"}).
		Errorf("new password is required")
}

func errEmailTaken() error {
	return oops.Code(CodeEmailTaken).Public(msgEmailTaken).Errorf("email already registered")
}

func errPhoneTaken() error {
	return oops.Code(CodePhoneTaken).Public(msgPhoneTaken).Errorf("phone already registered")
}

func errAccountNotFound(id string) error {
	return oops.Code(CodeNotFound).Public(msgNotFound).With("account_id", id).Errorf("account not found")
}

func errInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Public(msgInvalidCredentials).Errorf("invalid email or password")
}

// errStore surfaces a dependency failure without the underlying diagnostics;
// callers log the cause before returning it.
func errStore(operation string) error {
	return oops.Code(CodeStoreError).
		Public(msgInternal).
		With("operation", operation).
		Errorf("%s failed", operation)
}
