// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/agrisetu/agrisetu/internal/account"
)

// newRecoverCmd creates the password recovery commands.
func newRecoverCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Reset a forgotten password with an emailed code",
	}

	cmd.AddCommand(newRecoverRequestCmd(a))
	cmd.AddCommand(newRecoverCompleteCmd(a))

	return cmd
}

func newRecoverRequestCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Email a recovery code to the account holder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := a.openCredentials(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := svc.InitiatePasswordRecovery(cmd.Context(), email); err != nil {
				return err
			}
			cmd.Println(account.MsgCodeSent)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address of the account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRecoverCompleteCmd(a *app) *cobra.Command {
	var email, code, password string

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Set a new password using a recovery code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := a.openCredentials(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := svc.CompletePasswordRecovery(cmd.Context(), email, code, password); err != nil {
				return err
			}
			cmd.Println(account.MsgPasswordReset)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address of the account")
	cmd.Flags().StringVar(&code, "code", "", "six-digit recovery code")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}
