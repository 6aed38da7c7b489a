// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/agrisetu/agrisetu/internal/account"
	"github.com/agrisetu/agrisetu/internal/account/postgres"
	"github.com/agrisetu/agrisetu/internal/config"
	"github.com/agrisetu/agrisetu/internal/notify"
	"github.com/agrisetu/agrisetu/internal/observability"
	"github.com/agrisetu/agrisetu/internal/store"
)

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// RepositoryFactory opens the account and recovery code repositories.
	// Default: store.Connect with the postgres repositories.
	RepositoryFactory func(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Repositories, error)

	// NotifierFactory creates the recovery code notifier.
	// Default: notify.New
	NotifierFactory func(cfg config.NotifyConfig, logger *slog.Logger) (notify.Notifier, error)

	// MigratorFactory creates a schema migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// Recorder counts credential operation outcomes.
	// Default: observability.Metrics on a per-invocation registry, pushed to
	// metrics.pushgateway when the command releases its resources.
	Recorder account.OutcomeRecorder

	// Now returns the current time.
	// Default: time.Now
	Now func() time.Time
}

// Repositories are the storage ports the account services run on.
type Repositories struct {
	Accounts account.AccountRepository
	OTPs     account.OTPRepository
	Close    func()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.RepositoryFactory == nil {
		out.RepositoryFactory = openPostgres
	}
	if out.NotifierFactory == nil {
		out.NotifierFactory = notify.New
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready, logger)
		}
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return &out
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Repositories, error) {
	pool, err := store.Connect(ctx, store.ConnectOptions{
		URL:            cfg.URL,
		MaxConns:       cfg.MaxConns,
		ConnectTimeout: cfg.ConnectTimeout,
		Attempts:       cfg.ConnectAttempts,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	return &Repositories{
		Accounts: postgres.NewAccountRepository(pool),
		OTPs:     postgres.NewOTPRepository(pool),
		Close:    pool.Close,
	}, nil
}

// openRepositories opens storage using the loaded configuration.
func (a *app) openRepositories(ctx context.Context) (*Repositories, error) {
	repos, err := a.deps.RepositoryFactory(ctx, a.cfg.Database, a.logger)
	if err != nil {
		return nil, oops.Code("STORAGE_OPEN_FAILED").
			Public("Could not reach the account database").
			Wrap(err)
	}
	if repos.Close == nil {
		repos.Close = func() {}
	}
	return repos, nil
}

func (a *app) newLedger(repo account.OTPRepository) (*account.OTPLedger, error) {
	return account.NewOTPLedger(repo, account.LedgerOptions{
		TTL:                a.cfg.OTP.TTL,
		InvalidatePrevious: a.cfg.OTP.InvalidatePrevious,
		Now:                a.deps.Now,
	})
}

// openCredentials wires a CredentialService over freshly opened storage. The
// returned func releases everything it opened.
func (a *app) openCredentials(ctx context.Context) (*account.CredentialService, func(), error) {
	repos, err := a.openRepositories(ctx)
	if err != nil {
		return nil, nil, err
	}

	notifier, err := a.deps.NotifierFactory(a.cfg.Notify, a.logger)
	if err != nil {
		repos.Close()
		return nil, nil, err
	}
	release := func() {
		if err := notifier.Close(); err != nil {
			a.logger.Warn("error closing notifier", "error", err)
		}
		repos.Close()
		a.pushMetrics(ctx)
	}

	svc, err := a.buildCredentials(repos, notifier)
	if err != nil {
		release()
		return nil, nil, err
	}
	return svc, release, nil
}

func (a *app) buildCredentials(repos *Repositories, notifier account.Notifier) (*account.CredentialService, error) {
	identities, err := account.NewIdentityStore(repos.Accounts, a.logger)
	if err != nil {
		return nil, err
	}
	ledger, err := a.newLedger(repos.OTPs)
	if err != nil {
		return nil, err
	}
	hasher := account.NewArgon2idHasherWithParams(account.Argon2Params{
		Memory:  a.cfg.Hasher.MemoryKiB,
		Time:    a.cfg.Hasher.Iterations,
		Threads: a.cfg.Hasher.Threads,
	})
	return account.NewCredentialService(identities, ledger, hasher, notifier,
		account.WithLogger(a.logger),
		account.WithRecorder(a.outcomeRecorder()))
}

// outcomeRecorder returns the injected recorder, or Prometheus metrics on the
// invocation's own registry.
func (a *app) outcomeRecorder() account.OutcomeRecorder {
	if a.deps.Recorder != nil {
		return a.deps.Recorder
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
		a.metrics = observability.NewMetrics(a.registry)
	}
	return a.metrics
}

// pushMetrics reports the default recorder's outcomes to the Pushgateway.
// Failures are logged; the command's own result stands.
func (a *app) pushMetrics(ctx context.Context) {
	if a.registry == nil || a.cfg.Metrics.Pushgateway == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := observability.Push(ctx, a.cfg.Metrics.Pushgateway, serviceName, a.registry); err != nil {
		a.logger.Warn("error pushing metrics", "error", err)
	}
}
