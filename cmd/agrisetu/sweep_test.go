// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisetu/agrisetu/internal/config"
	"github.com/agrisetu/agrisetu/internal/observability"
)

func failingRepositories(context.Context, config.DatabaseConfig, *slog.Logger) (*Repositories, error) {
	return nil, errors.New("connection refused")
}

// fakeObsServer records its lifecycle instead of listening.
type fakeObsServer struct {
	mu       sync.Mutex
	addr     string
	ready    observability.ReadinessChecker
	metrics  *observability.Metrics
	started  bool
	stopped  bool
	startErr error
	errCh    chan error
}

func (s *fakeObsServer) Start() (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return nil, s.startErr
	}
	s.started = true
	return s.errCh, nil
}

func (s *fakeObsServer) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeObsServer) Addr() string { return s.addr }
func (s *fakeObsServer) Metrics() *observability.Metrics { return s.metrics }

// staleCode leaves one expired recovery code behind and moves the clock past
// its retention.
func staleCode(t *testing.T, h *harness) ulid.ULID {
	t.Helper()
	id := h.register(t, "asha@example.com", "farmer")
	h.mustRun(t, "recover", "request", "--email", "asha@example.com")
	h.clock.Advance(5*time.Minute + 24*time.Hour + time.Minute)
	return id
}

func TestSweepOnce(t *testing.T) {
	h := newHarness(t)
	id := staleCode(t, h)

	out := h.mustRun(t, "sweep", "--once")
	assert.Contains(t, out, "Deleted 1 recovery code(s)")
	assert.Empty(t, h.store.CodesFor(id))

	out = h.mustRun(t, "sweep", "--once")
	assert.Contains(t, out, "Deleted 0 recovery code(s)")
}

func TestSweepOnce_StorageUnavailable(t *testing.T) {
	h := newHarness(t)
	h.deps.RepositoryFactory = failingRepositories

	_, err := h.run(context.Background(), "sweep", "--once")
	require.Error(t, err)
}

func TestSweep_RunsUntilCancelled(t *testing.T) {
	h := newHarness(t)
	staleCode(t, h)

	obs := &fakeObsServer{
		addr:    "127.0.0.1:9100",
		metrics: observability.NewMetrics(prometheus.NewRegistry()),
		errCh:   make(chan error),
	}
	h.deps.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, _ *slog.Logger) ObservabilityServer {
		obs.addr = addr
		obs.ready = ready
		return obs
	}
	h.configFile = writeConfig(t, testConfig+"otp:\n  sweep_interval: 1h\n")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	out, err := h.run(ctx, "sweep", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)

	assert.Contains(t, out, "Sweeper started")
	assert.Equal(t, "127.0.0.1:0", obs.addr)
	assert.True(t, obs.started)
	assert.True(t, obs.stopped)
	assert.False(t, obs.ready(), "not ready after shutdown")
	assert.InDelta(t, 1, testutil.ToFloat64(obs.metrics.OTPSweptTotal), 0)
}

func TestSweep_ObservabilityStartFailure(t *testing.T) {
	h := newHarness(t)
	h.deps.ObservabilityServerFactory = func(string, observability.ReadinessChecker, *slog.Logger) ObservabilityServer {
		return &fakeObsServer{startErr: errors.New("address in use")}
	}

	_, err := h.run(context.Background(), "sweep", "--metrics-addr", "127.0.0.1:9100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
}
