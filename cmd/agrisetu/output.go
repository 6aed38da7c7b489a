// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package main

import (
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/agrisetu/agrisetu/internal/account"
)

func parseAccountID(s string) (ulid.ULID, error) {
	id, err := ulid.Parse(strings.TrimSpace(s))
	if err != nil {
		return ulid.ULID{}, oops.Code("INVALID_ACCOUNT_ID").
			Public("Invalid account ID").
			With("input", s).
			Wrap(err)
	}
	return id, nil
}

func printProfile(cmd *cobra.Command, p account.Profile) {
	cmd.Printf("ID:         %s\n", p.ID)
	cmd.Printf("Name:       %s\n", orDash(p.Name))
	cmd.Printf("Email:      %s\n", orDash(p.Email))
	cmd.Printf("Phone:      %s\n", orDash(p.Phone))
	cmd.Printf("Role:       %s\n", p.Role)
	cmd.Printf("Location:   %s\n", orDash(p.Location))
}

func printDetail(cmd *cobra.Command, d account.RoleDetail) {
	switch {
	case d.Farmer != nil:
		f := d.Farmer
		cmd.Printf("Farm size:  %g\n", f.FarmSize)
		cmd.Printf("Main crop:  %s\n", derefOrDash(f.MainCrop))
		cmd.Printf("Irrigation: %s\n", derefOrDash(f.IrrigationType))
	case d.Supplier != nil:
		s := d.Supplier
		cmd.Printf("Shop name:  %s\n", orDash(s.ShopName))
		cmd.Printf("Address:    %s\n", orDash(s.Address))
		cmd.Printf("Position:   %g, %g\n", s.Latitude, s.Longitude)
		cmd.Printf("Approved:   %t\n", s.Approved)
		cmd.Printf("Serves:     %s\n", orDash(strings.Join(s.ServiceAreas, ", ")))
	case d.Admin != nil:
		cmd.Printf("Level:      %d\n", d.Admin.Level)
		cmd.Printf("Department: %s\n", orDash(d.Admin.Department))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func derefOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return orDash(*s)
}
