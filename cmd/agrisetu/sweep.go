// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agrisetu/agrisetu/internal/account"
)

const shutdownTimeout = 5 * time.Second

// newSweepCmd creates the recovery code sweeper command.
func newSweepCmd(a *app) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired and spent recovery codes",
		Long: `Sweep deletes recovery codes that expired or were used longer ago than
the configured retention. Without --once it keeps running, sweeping on the
configured interval and serving metrics and health checks on --metrics-addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if once {
				return a.sweepOnce(cmd)
			}
			return a.runSweeper(cmd)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "sweep once and exit")
	return cmd
}

func (a *app) newSweeper(repos *Repositories, observer account.SweepObserver) (*account.OTPSweeper, error) {
	ledger, err := a.newLedger(repos.OTPs)
	if err != nil {
		return nil, err
	}
	return account.NewOTPSweeper(ledger, account.SweeperConfig{
		Interval:  a.cfg.OTP.SweepInterval,
		Retention: a.cfg.OTP.Retention,
		Logger:    a.logger,
		Observer:  observer,
	})
}

func (a *app) sweepOnce(cmd *cobra.Command) error {
	ctx := cmd.Context()
	repos, err := a.openRepositories(ctx)
	if err != nil {
		return err
	}
	defer repos.Close()

	sweeper, err := a.newSweeper(repos, nil)
	if err != nil {
		return err
	}
	n, err := sweeper.RunOnce(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Deleted %d recovery code(s)\n", n)
	return nil
}

func (a *app) runSweeper(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	repos, err := a.openRepositories(ctx)
	if err != nil {
		return err
	}
	defer repos.Close()

	var ready atomic.Bool
	var observer account.SweepObserver
	var obsServer ObservabilityServer
	if addr := a.cfg.Metrics.Addr; addr != "" {
		obsServer = a.deps.ObservabilityServerFactory(addr, ready.Load, a.logger)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return err
		}
		go a.monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		observer = obsServer.Metrics()
		a.logger.Info("observability server started", "addr", obsServer.Addr())
	}

	sweeper, err := a.newSweeper(repos, observer)
	if err != nil {
		a.stopServer(obsServer)
		return err
	}

	ready.Store(true)
	cmd.Println("Sweeper started")
	a.logger.Info("sweeper ready",
		"interval", a.cfg.OTP.SweepInterval,
		"retention", a.cfg.OTP.Retention)

	err = sweeper.Run(ctx)
	ready.Store(false)
	a.stopServer(obsServer)
	a.logger.Info("shutdown complete")
	return err
}

func (a *app) stopServer(s ObservabilityServer) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		a.logger.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels ctx when the server reports a failure. It exits
// when an error arrives, the channel closes, or ctx is done.
func (a *app) monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			a.logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
