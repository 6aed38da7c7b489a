// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agrisetu/agrisetu/internal/account"
)

// newAccountCmd creates the account command and its subcommands.
func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Register and manage accounts",
	}

	cmd.AddCommand(newAccountRegisterCmd(a))
	cmd.AddCommand(newAccountLoginCmd(a))
	cmd.AddCommand(newAccountPasswdCmd(a))
	cmd.AddCommand(newAccountShowCmd(a))
	cmd.AddCommand(newAccountUpdateCmd(a))
	cmd.AddCommand(newAccountDetailCmd(a))
	cmd.AddCommand(newAccountDeleteCmd(a))

	return cmd
}

func newAccountRegisterCmd(a *app) *cobra.Command {
	var in account.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := a.openCredentials(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			reg, err := svc.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			cmd.Println(reg.Message)
			cmd.Printf("Account ID: %s\n", reg.AccountID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	cmd.Flags().StringVar(&in.Role, "role", "", "role (farmer, supplier, administrator)")
	cmd.Flags().StringVar(&in.Location, "location", "", "location")
	return cmd
}

func newAccountLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check an email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := a.openCredentials(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			profile, err := svc.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			cmd.Println(account.MsgLoggedIn)
			printProfile(cmd, *profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func newAccountPasswdCmd(a *app) *cobra.Command {
	var id, oldPassword, newPassword string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change an account's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, err := parseAccountID(id)
			if err != nil {
				return err
			}
			svc, release, err := a.openCredentials(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := svc.ChangePassword(cmd.Context(), accountID, oldPassword, newPassword); err != nil {
				return err
			}
			cmd.Println(account.MsgPasswordChanged)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "account ID")
	cmd.Flags().StringVar(&oldPassword, "old", "", "current password")
	cmd.Flags().StringVar(&newPassword, "new", "", "new password")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newAccountShowCmd(a *app) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show an account's profile and role details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, err := parseAccountID(id)
			if err != nil {
				return err
			}
			svc, release, err := a.openCredentials(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			info, err := svc.GetAccount(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			printProfile(cmd, info.Profile)
			printDetail(cmd, info.Detail)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "account ID")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newAccountDeleteCmd(a *app) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an account and its role details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, err := parseAccountID(id)
			if err != nil {
				return err
			}
			svc, release, err := a.openCredentials(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := svc.DeleteAccount(cmd.Context(), accountID); err != nil {
				return err
			}
			cmd.Println(account.MsgAccountDeleted)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "account ID")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newAccountUpdateCmd(a *app) *cobra.Command {
	var id, name, phone, location string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update an account's name, phone or location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, err := parseAccountID(id)
			if err != nil {
				return err
			}

			var patch account.ProfilePatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("phone") {
				patch.Phone = &phone
			}
			if cmd.Flags().Changed("location") {
				patch.Location = &location
			}

			svc, release, err := a.openCredentials(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			update, err := svc.UpdateProfile(cmd.Context(), accountID, patch)
			if err != nil {
				return err
			}
			cmd.Println(update.Message)
			printProfile(cmd, update.Profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "account ID")
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&phone, "phone", "", "new phone number (empty clears it)")
	cmd.Flags().StringVar(&location, "location", "", "new location")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// detailFlags holds the role detail flags of "account detail".
type detailFlags struct {
	id   string
	role string

	farmSize   float64
	mainCrop   string
	irrigation string

	shopName     string
	address      string
	lat          float64
	lng          float64
	approved     bool
	serviceAreas []string

	level      int
	department string
}

// roleFlags lists the detail flags each role accepts.
var roleFlags = map[account.Role][]string{
	account.RoleFarmer:        {"farm-size", "main-crop", "irrigation"},
	account.RoleSupplier:      {"shop-name", "address", "lat", "lng", "approved", "service-area"},
	account.RoleAdministrator: {"level", "department"},
}

func newAccountDetailCmd(a *app) *cobra.Command {
	f := &detailFlags{}

	cmd := &cobra.Command{
		Use:   "detail",
		Short: "Update an account's role details",
		Long: `Update the role-specific details of an account. Only the flags given
are changed, and they must belong to the role named by --role.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, err := parseAccountID(f.id)
			if err != nil {
				return err
			}
			patch, err := buildDetailPatch(cmd.Flags(), f)
			if err != nil {
				return err
			}

			svc, release, err := a.openCredentials(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			detail, err := svc.UpdateRoleDetail(cmd.Context(), accountID, patch)
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				cmd.Println(account.MsgNoChange)
			} else {
				cmd.Println(account.MsgDetailUpdated)
			}
			printDetail(cmd, detail)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.id, "id", "", "account ID")
	fs.StringVar(&f.role, "role", "", "role the details belong to")
	fs.Float64Var(&f.farmSize, "farm-size", 0, "farm size (farmer)")
	fs.StringVar(&f.mainCrop, "main-crop", "", "main crop (farmer)")
	fs.StringVar(&f.irrigation, "irrigation", "", "irrigation type (farmer)")
	fs.StringVar(&f.shopName, "shop-name", "", "shop name (supplier)")
	fs.StringVar(&f.address, "address", "", "shop address (supplier)")
	fs.Float64Var(&f.lat, "lat", 0, "shop latitude (supplier)")
	fs.Float64Var(&f.lng, "lng", 0, "shop longitude (supplier)")
	fs.BoolVar(&f.approved, "approved", false, "approval status (supplier)")
	fs.StringSliceVar(&f.serviceAreas, "service-area", nil, "service area, repeatable (supplier)")
	fs.IntVar(&f.level, "level", 0, "admin level (administrator)")
	fs.StringVar(&f.department, "department", "", "department (administrator)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

// buildDetailPatch turns the changed detail flags into a patch for f.role.
func buildDetailPatch(fs *pflag.FlagSet, f *detailFlags) (account.DetailPatch, error) {
	role, err := account.ParseRole(f.role)
	if err != nil {
		return account.DetailPatch{}, err
	}
	for other, names := range roleFlags {
		if other == role {
			continue
		}
		for _, name := range names {
			if fs.Changed(name) {
				return account.DetailPatch{}, oops.Code("INVALID_FLAGS").
					Public(fmt.Sprintf("Flag --%s does not apply to role %s", name, role)).
					With("flag", name).
					With("role", role).
					Errorf("flag --%s belongs to role %s", name, other)
			}
		}
	}

	patch := account.DetailPatch{Role: role}
	switch role {
	case account.RoleFarmer:
		p := &account.FarmerPatch{}
		if fs.Changed("farm-size") {
			p.FarmSize = &f.farmSize
		}
		if fs.Changed("main-crop") {
			p.MainCrop = &f.mainCrop
		}
		if fs.Changed("irrigation") {
			p.IrrigationType = &f.irrigation
		}
		patch.Farmer = p
	case account.RoleSupplier:
		p := &account.SupplierPatch{}
		if fs.Changed("shop-name") {
			p.ShopName = &f.shopName
		}
		if fs.Changed("address") {
			p.Address = &f.address
		}
		if fs.Changed("lat") {
			p.Latitude = &f.lat
		}
		if fs.Changed("lng") {
			p.Longitude = &f.lng
		}
		if fs.Changed("approved") {
			p.Approved = &f.approved
		}
		if fs.Changed("service-area") {
			p.ServiceAreas = append([]string{}, f.serviceAreas...)
		}
		patch.Supplier = p
	case account.RoleAdministrator:
		p := &account.AdminPatch{}
		if fs.Changed("level") {
			p.Level = &f.level
		}
		if fs.Changed("department") {
			p.Department = &f.department
		}
		patch.Admin = p
	}
	return patch, nil
}
