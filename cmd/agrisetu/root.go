// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package main

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/agrisetu/agrisetu/internal/config"
	"github.com/agrisetu/agrisetu/internal/logging"
	"github.com/agrisetu/agrisetu/internal/observability"
)

const serviceName = "agrisetu"

// app carries state shared by every subcommand of one invocation.
type app struct {
	configFile string
	deps       *Deps
	cfg        *config.Config
	logger     *slog.Logger

	// registry backs the default outcome recorder; nil until first use.
	registry *prometheus.Registry
	metrics  *observability.Metrics
}

// NewRootCmd creates the root command for the Agrisetu CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	a := &app{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "agrisetu",
		Short: "Agrisetu - account and credential manager",
		Long: `Agrisetu manages farmer, supplier and administrator accounts:
registration, login, password changes and email-based password recovery.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/agrisetu/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newAccountCmd(a))
	cmd.AddCommand(newRecoverCmd(a))
	cmd.AddCommand(newSweepCmd(a))

	return cmd
}

// load reads the configuration and sets up logging before any subcommand runs.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.Setup(serviceName, version, cfg.Log.Format, level, cmd.ErrOrStderr())
	return nil
}
