// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisetu/agrisetu/internal/account"
	"github.com/agrisetu/agrisetu/pkg/errutil"
)

func TestAccountRegister_ThenShow(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "account", "register",
		"--name", "Ravi",
		"--email", "Ravi@Example.com",
		"--phone", "+91 98765-43210",
		"--password", "secret-pass",
		"--role", "farmer",
		"--location", "Pune")
	assert.Contains(t, out, account.MsgRegistered)
	id := accountIDFrom(t, out)

	out = h.mustRun(t, "account", "show", "--id", id.String())
	assert.Contains(t, out, "ravi@example.com")
	assert.Contains(t, out, "+919876543210")
	assert.Contains(t, out, "Role:       farmer")
	assert.Contains(t, out, "Location:   Pune")
	assert.Contains(t, out, "Farm size:  0")
	assert.Contains(t, out, "Main crop:  -")

	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.OperationsTotal.WithLabelValues("register", account.OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.OperationsTotal.WithLabelValues("get_account", account.OutcomeSuccess)), 0)
}

func TestAccountRegister_Failures(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "missing fields",
			args:     []string{"--name", "No Email", "--password", "x", "--role", "farmer"},
			wantCode: account.CodeMissingFields,
			wantMsg:  "Email, password, and user type are required for registration",
		},
		{
			name:     "duplicate email differing in case",
			args:     []string{"--email", "TAKEN@example.com", "--password", "x", "--role", "supplier"},
			wantCode: account.CodeEmailTaken,
			wantMsg:  "User with this email already exists",
		},
		{
			name:     "unknown role",
			args:     []string{"--email", "new@example.com", "--password", "x", "--role", "trader"},
			wantCode: account.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.register(t, "taken@example.com", "farmer")

			_, err := h.run(context.Background(), append([]string{"account", "register"}, tt.args...)...)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.wantCode)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, errorMessage(err))
			}
		})
	}
}

func TestAccountLogin(t *testing.T) {
	h := newHarness(t)
	h.register(t, "asha@example.com", "supplier")

	out := h.mustRun(t, "account", "login", "--email", "ASHA@example.com", "--password", "initial-pass")
	assert.Contains(t, out, account.MsgLoggedIn)
	assert.Contains(t, out, "Role:       supplier")

	_, wrongPassword := h.run(context.Background(), "account", "login", "--email", "asha@example.com", "--password", "nope")
	_, unknownEmail := h.run(context.Background(), "account", "login", "--email", "ghost@example.com", "--password", "nope")
	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, errorMessage(wrongPassword), errorMessage(unknownEmail))
	errutil.AssertErrorCode(t, wrongPassword, account.CodeInvalidCredentials)
	errutil.AssertErrorCode(t, unknownEmail, account.CodeInvalidCredentials)
}

func TestAccountPasswd(t *testing.T) {
	h := newHarness(t)
	id := h.register(t, "asha@example.com", "farmer")

	_, err := h.run(context.Background(), "account", "passwd", "--id", id.String(), "--old", "wrong", "--new", "next-pass")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, account.CodeWrongOldPassword)

	out := h.mustRun(t, "account", "passwd", "--id", id.String(), "--old", "initial-pass", "--new", "next-pass")
	assert.Contains(t, out, account.MsgPasswordChanged)

	h.mustRun(t, "account", "login", "--email", "asha@example.com", "--password", "next-pass")
	_, err = h.run(context.Background(), "account", "login", "--email", "asha@example.com", "--password", "initial-pass")
	require.Error(t, err)
}

func TestAccountUpdate(t *testing.T) {
	h := newHarness(t)
	id := h.register(t, "asha@example.com", "farmer")

	out := h.mustRun(t, "account", "update", "--id", id.String(), "--name", "Asha Patil", "--phone", "9876543210")
	assert.Contains(t, out, account.MsgProfileUpdated)
	assert.Contains(t, out, "Name:       Asha Patil")
	assert.Contains(t, out, "Phone:      9876543210")

	out = h.mustRun(t, "account", "update", "--id", id.String())
	assert.Contains(t, out, account.MsgNoChange)

	out = h.mustRun(t, "account", "update", "--id", id.String(), "--phone=")
	assert.Contains(t, out, "Phone:      -")
}

func TestAccountUpdate_PhoneTaken(t *testing.T) {
	h := newHarness(t)
	first := h.register(t, "one@example.com", "farmer")
	second := h.register(t, "two@example.com", "farmer")
	h.mustRun(t, "account", "update", "--id", first.String(), "--phone", "9876543210")

	_, err := h.run(context.Background(), "account", "update", "--id", second.String(), "--phone", "98765 43210")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, account.CodePhoneTaken)
}

func TestAccountDetail_Supplier(t *testing.T) {
	h := newHarness(t)
	id := h.register(t, "shop@example.com", "supplier")

	out := h.mustRun(t, "account", "detail", "--id", id.String(), "--role", "supplier",
		"--shop-name", "Green Inputs",
		"--lat", "18.52", "--lng", "73.85",
		"--service-area", "north",
		"--service-area", "east",
		"--approved")
	assert.Contains(t, out, account.MsgDetailUpdated)
	assert.Contains(t, out, "Shop name:  Green Inputs")
	assert.Contains(t, out, "Position:   18.52, 73.85")
	assert.Contains(t, out, "Approved:   true")
	assert.Contains(t, out, "Serves:     north, east")

	out = h.mustRun(t, "account", "detail", "--id", id.String(), "--role", "supplier", "--address", "Market Road")
	assert.Contains(t, out, "Address:    Market Road")
	assert.Contains(t, out, "Shop name:  Green Inputs", "unchanged fields are kept")
}

func TestAccountDetail_Admin(t *testing.T) {
	h := newHarness(t)
	id := h.register(t, "root@example.com", "admin")

	out := h.mustRun(t, "account", "detail", "--id", id.String(), "--role", "administrator", "--level", "2", "--department", "Support")
	assert.Contains(t, out, "Level:      2")
	assert.Contains(t, out, "Department: Support")

	out = h.mustRun(t, "account", "detail", "--id", id.String(), "--role", "administrator")
	assert.Contains(t, out, account.MsgNoChange)
	assert.Contains(t, out, "Level:      2")
}

func TestAccountDetail_Errors(t *testing.T) {
	h := newHarness(t)
	farmer := h.register(t, "farmer@example.com", "farmer")

	_, err := h.run(context.Background(), "account", "detail", "--id", farmer.String(), "--role", "farmer", "--shop-name", "x")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_FLAGS")
	assert.Equal(t, "Flag --shop-name does not apply to role farmer", errorMessage(err))

	_, err = h.run(context.Background(), "account", "detail", "--id", farmer.String(), "--role", "supplier", "--shop-name", "x")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, account.CodeRoleMismatch)
}

func TestAccountDelete(t *testing.T) {
	h := newHarness(t)
	id := h.register(t, "gone@example.com", "farmer")

	out := h.mustRun(t, "account", "delete", "--id", id.String())
	assert.Contains(t, out, account.MsgAccountDeleted)
	assert.False(t, h.store.HasDetail(id))

	_, err := h.run(context.Background(), "account", "show", "--id", id.String())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, account.CodeNotFound)
	assert.Equal(t, "Account not found", errorMessage(err))
}

func TestAccount_InvalidID(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(context.Background(), "account", "show", "--id", "not-a-ulid")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_ACCOUNT_ID")
}

func TestAccount_StorageUnavailable(t *testing.T) {
	h := newHarness(t)
	h.deps.RepositoryFactory = failingRepositories

	_, err := h.run(context.Background(), "account", "login", "--email", "a@example.com", "--password", "x")
	require.Error(t, err)
	assert.Equal(t, "Could not reach the account database", errorMessage(err))
}

func TestAccount_DefaultRecorderPushesOutcomes(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
		body  []byte
	)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		body = b
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer gateway.Close()

	h := newHarness(t)
	h.deps.Recorder = nil

	_, err := h.run(context.Background(), "--metrics-pushgateway", gateway.URL,
		"account", "login", "--email", "nobody@example.com", "--password", "x")
	errutil.AssertErrorCode(t, err, account.CodeInvalidCredentials)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/metrics/job/agrisetu"}, paths)
	assert.Contains(t, string(body), "agrisetu_credential_operations_total")
	assert.Contains(t, string(body), account.CodeInvalidCredentials)
	assert.InDelta(t, 0, testutil.ToFloat64(h.metrics.OperationsTotal.WithLabelValues("login", account.CodeInvalidCredentials)), 0)
}

func TestAccount_UnreachablePushgatewayDoesNotFailCommand(t *testing.T) {
	gateway := httptest.NewServer(http.NotFoundHandler())
	url := gateway.URL
	gateway.Close()

	h := newHarness(t)
	h.deps.Recorder = nil
	id := h.register(t, "pushless@example.com", "farmer")

	out := h.mustRun(t, "--metrics-pushgateway", url, "account", "show", "--id", id.String())
	assert.Contains(t, out, "pushless@example.com")
}
