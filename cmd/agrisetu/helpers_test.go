// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/agrisetu/agrisetu/internal/account/accounttest"
	"github.com/agrisetu/agrisetu/internal/config"
	"github.com/agrisetu/agrisetu/internal/notify"
	"github.com/agrisetu/agrisetu/internal/observability"
)

const testConfig = `
log:
  format: text
  level: error
hasher:
  memory_kib: 8
  iterations: 1
  threads: 1
notify:
  driver: log
metrics:
  addr: ""
`

// harness runs the CLI against in-memory storage.
type harness struct {
	store      *accounttest.Store
	notifier   *accounttest.Notifier
	clock      *accounttest.Clock
	migrator   *fakeMigrator
	metrics    *observability.Metrics
	deps       *Deps
	configFile string
}

type closingNotifier struct {
	*accounttest.Notifier
}

func (closingNotifier) Close() error { return nil }

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:    accounttest.NewStore(),
		notifier: &accounttest.Notifier{},
		clock:    accounttest.NewClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		migrator: &fakeMigrator{},
		metrics:  observability.NewMetrics(prometheus.NewRegistry()),
	}
	h.configFile = writeConfig(t, testConfig)
	h.deps = &Deps{
		RepositoryFactory: func(context.Context, config.DatabaseConfig, *slog.Logger) (*Repositories, error) {
			return &Repositories{Accounts: h.store.Accounts(), OTPs: h.store.OTPs()}, nil
		},
		NotifierFactory: func(config.NotifyConfig, *slog.Logger) (notify.Notifier, error) {
			return closingNotifier{h.notifier}, nil
		},
		MigratorFactory: func(string) (Migrator, error) {
			return h.migrator, nil
		},
		Recorder: h.metrics,
		Now:      h.clock.Now,
	}
	return h
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes the CLI with args and returns its standard output.
func (h *harness) run(ctx context.Context, args ...string) (string, error) {
	cmd := newRootCmd(h.deps)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(append([]string{"--config", h.configFile}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(context.Background(), args...)
	require.NoError(t, err, "agrisetu %s", strings.Join(args, " "))
	return out
}

// register creates an account and returns its ID.
func (h *harness) register(t *testing.T, email, role string) ulid.ULID {
	t.Helper()
	out := h.mustRun(t, "account", "register",
		"--name", "Test User",
		"--email", email,
		"--password", "initial-pass",
		"--role", role)
	return accountIDFrom(t, out)
}

func accountIDFrom(t *testing.T, out string) ulid.ULID {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "Account ID: "); ok {
			id, err := ulid.Parse(strings.TrimSpace(rest))
			require.NoError(t, err)
			return id
		}
	}
	t.Fatalf("no account ID in output:\n%s", out)
	return ulid.ULID{}
}
