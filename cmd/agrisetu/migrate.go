// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// newMigrateCmd creates the migrate command and its subcommands.
func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back or inspect the account database schema migrations.`,
	}

	cmd.AddCommand(newMigrateUpCmd(a))
	cmd.AddCommand(newMigrateDownCmd(a))
	cmd.AddCommand(newMigrateVersionCmd(a))
	cmd.AddCommand(newMigrateForceCmd(a))

	return cmd
}

func newMigrateUpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(func(m Migrator) error {
				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					cmd.Println("Database schema is up to date")
					return nil
				}
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Printf("Applied %d migration(s)\n", len(pending))
				return nil
			})
		},
	}
}

func newMigrateDownCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(func(m Migrator) error {
				if all {
					if err := m.Down(); err != nil {
						return err
					}
					cmd.Println("Rolled back all migrations")
					return nil
				}
				if err := m.Steps(-1); err != nil {
					return err
				}
				cmd.Println("Rolled back one migration")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "roll back every migration")
	return cmd
}

func newMigrateVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(func(m Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				switch {
				case v == 0:
					cmd.Println("No migrations applied")
				case dirty:
					cmd.Printf("Version: %d (dirty)\n", v)
				default:
					cmd.Printf("Version: %d\n", v)
				}

				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}
				if len(pending) > 0 {
					cmd.Printf("Pending: %d\n", len(pending))
				}
				return nil
			})
		},
	}
}

func newMigrateForceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long: `Force records VERSION as the current schema version and clears the
dirty flag. Use it to recover from a failed migration after repairing the
schema by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return a.withMigrator(func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				cmd.Printf("Forced schema version %d\n", v)
				return nil
			})
		},
	}
}

// withMigrator runs fn with a migrator for the configured database and closes
// it afterwards.
func (a *app) withMigrator(fn func(Migrator) error) error {
	m, err := a.deps.MigratorFactory(a.cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			a.logger.Warn("error closing migrator", "error", closeErr)
		}
	}()
	return fn(m)
}

// parseForceVersion reads a schema version from s.
func parseForceVersion(s string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").
			Public(fmt.Sprintf("Invalid version %q", s)).
			With("input", s).
			Wrap(err)
	}
	return v, nil
}
