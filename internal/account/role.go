// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package account

import (
	"slices"
	"strings"

	"github.com/samber/oops"
)

// Role tags an Account with the kind of detail record it owns.
type Role string

// Supported roles.
const (
	RoleFarmer        Role = "farmer"
	RoleSupplier      Role = "supplier"
	RoleAdministrator Role = "administrator"
)

// Roles lists every supported role.
var Roles = []Role{RoleFarmer, RoleSupplier, RoleAdministrator}

// ParseRole normalizes user input to a Role. "admin" is accepted as an alias
// for administrator.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "farmer":
		return RoleFarmer, nil
	case "supplier":
		return RoleSupplier, nil
	case "administrator", "admin":
		return RoleAdministrator, nil
	case "":
		return "", oops.Code(CodeMissingFields).Public(msgMissingFields).Errorf("role is required")
	default:
		return "", oops.Code(CodeInvalidInput).
			Public("User type must be farmer, supplier or administrator").
			With("role", s).
			Errorf("unsupported role %q", s)
	}
}

// Valid reports whether r is a supported role.
func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// Default detail values.
const (
	DefaultAdminLevel = 1
)

// FarmerDetail holds farmer-specific attributes.
type FarmerDetail struct {
	FarmSize       float64
	MainCrop       *string
	IrrigationType *string
}

// SupplierDetail holds supplier-specific attributes. Suppliers stay hidden
// from farmers until Approved is set by an administrator.
type SupplierDetail struct {
	ShopName     string
	Address      string
	Latitude     float64
	Longitude    float64
	Approved     bool
	ServiceAreas []string
}

// AdminDetail holds administrator-specific attributes.
type AdminDetail struct {
	Level      int
	Department string
}

// RoleDetail is the role-specific record bound 1:1 to an Account. Exactly the
// field matching Role is non-nil.
type RoleDetail struct {
	Role     Role
	Farmer   *FarmerDetail
	Supplier *SupplierDetail
	Admin    *AdminDetail
}

// DefaultDetail returns the detail record created alongside a new Account.
func DefaultDetail(role Role) RoleDetail {
	switch role {
	case RoleFarmer:
		return RoleDetail{Role: role, Farmer: &FarmerDetail{}}
	case RoleSupplier:
		return RoleDetail{Role: role, Supplier: &SupplierDetail{ServiceAreas: []string{}}}
	case RoleAdministrator:
		return RoleDetail{Role: role, Admin: &AdminDetail{Level: DefaultAdminLevel}}
	default:
		return RoleDetail{Role: role}
	}
}

// Validate checks the union tag against its payload and the payload's ranges.
func (d RoleDetail) Validate() error {
	set := 0
	for _, present := range []bool{d.Farmer != nil, d.Supplier != nil, d.Admin != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return oops.Code(CodeInvalidInput).
			With("role", d.Role).
			With("variants", set).
			Errorf("role detail must carry exactly one variant")
	}

	switch d.Role {
	case RoleFarmer:
		if d.Farmer == nil {
			return errDetailTag(d.Role)
		}
		if d.Farmer.FarmSize < 0 {
			return oops.Code(CodeInvalidInput).
				Public("Farm size cannot be negative").
				With("farm_size", d.Farmer.FarmSize).
				Errorf("farm size must be non-negative")
		}
	case RoleSupplier:
		if d.Supplier == nil {
			return errDetailTag(d.Role)
		}
		if d.Supplier.Latitude < -90 || d.Supplier.Latitude > 90 {
			return oops.Code(CodeInvalidInput).
				Public("Latitude must be between -90 and 90").
				With("latitude", d.Supplier.Latitude).
				Errorf("latitude out of range")
		}
		if d.Supplier.Longitude < -180 || d.Supplier.Longitude > 180 {
			return oops.Code(CodeInvalidInput).
				Public("Longitude must be between -180 and 180").
				With("longitude", d.Supplier.Longitude).
				Errorf("longitude out of range")
		}
	case RoleAdministrator:
		if d.Admin == nil {
			return errDetailTag(d.Role)
		}
		if d.Admin.Level < 1 {
			return oops.Code(CodeInvalidInput).
				Public("Administrative level must be at least 1").
				With("level", d.Admin.Level).
				Errorf("admin level must be positive")
		}
	default:
		return oops.Code(CodeInvalidInput).With("role", d.Role).Errorf("unsupported role %q", d.Role)
	}
	return nil
}

func errDetailTag(role Role) error {
	return oops.Code(CodeInvalidInput).With("role", role).Errorf("role detail payload does not match role")
}

// FarmerPatch is a partial update of a FarmerDetail.
type FarmerPatch struct {
	FarmSize       *float64
	MainCrop       *string
	IrrigationType *string
}

// SupplierPatch is a partial update of a SupplierDetail. A nil ServiceAreas
// leaves the list unchanged; an empty non-nil slice clears it.
type SupplierPatch struct {
	ShopName     *string
	Address      *string
	Latitude     *float64
	Longitude    *float64
	Approved     *bool
	ServiceAreas []string
}

// AdminPatch is a partial update of an AdminDetail.
type AdminPatch struct {
	Level      *int
	Department *string
}

// DetailPatch is a tagged partial update of a RoleDetail.
type DetailPatch struct {
	Role     Role
	Farmer   *FarmerPatch
	Supplier *SupplierPatch
	Admin    *AdminPatch
}

// IsEmpty reports whether the patch changes nothing.
func (p DetailPatch) IsEmpty() bool {
	switch {
	case p.Farmer != nil:
		f := p.Farmer
		return f.FarmSize == nil && f.MainCrop == nil && f.IrrigationType == nil
	case p.Supplier != nil:
		s := p.Supplier
		return s.ShopName == nil && s.Address == nil && s.Latitude == nil &&
			s.Longitude == nil && s.Approved == nil && s.ServiceAreas == nil
	case p.Admin != nil:
		return p.Admin.Level == nil && p.Admin.Department == nil
	default:
		return true
	}
}

// Apply returns a copy of d with the patch applied. The patch must target
// d's role.
func (p DetailPatch) Apply(d RoleDetail) (RoleDetail, error) {
	if p.Role != d.Role {
		return RoleDetail{}, oops.Code(CodeRoleMismatch).
			Public(msgRoleMismatch).
			With("account_role", d.Role).
			With("patch_role", p.Role).
			Errorf("patch role does not match account role")
	}
	if (p.Farmer != nil && p.Role != RoleFarmer) ||
		(p.Supplier != nil && p.Role != RoleSupplier) ||
		(p.Admin != nil && p.Role != RoleAdministrator) {
		return RoleDetail{}, errDetailTag(p.Role)
	}

	out := RoleDetail{Role: d.Role}
	switch d.Role {
	case RoleFarmer:
		if d.Farmer == nil {
			return RoleDetail{}, errDetailTag(d.Role)
		}
		f := *d.Farmer
		if pf := p.Farmer; pf != nil {
			if pf.FarmSize != nil {
				f.FarmSize = *pf.FarmSize
			}
			if pf.MainCrop != nil {
				f.MainCrop = pf.MainCrop
			}
			if pf.IrrigationType != nil {
				f.IrrigationType = pf.IrrigationType
			}
		}
		out.Farmer = &f
	case RoleSupplier:
		if d.Supplier == nil {
			return RoleDetail{}, errDetailTag(d.Role)
		}
		s := *d.Supplier
		s.ServiceAreas = slices.Clone(d.Supplier.ServiceAreas)
		if ps := p.Supplier; ps != nil {
			if ps.ShopName != nil {
				s.ShopName = *ps.ShopName
			}
			if ps.Address != nil {
				s.Address = *ps.Address
			}
			if ps.Latitude != nil {
				s.Latitude = *ps.Latitude
			}
			if ps.Longitude != nil {
				s.Longitude = *ps.Longitude
			}
			if ps.Approved != nil {
				s.Approved = *ps.Approved
			}
			if ps.ServiceAreas != nil {
				s.ServiceAreas = slices.Clone(ps.ServiceAreas)
			}
		}
		out.Supplier = &s
	case RoleAdministrator:
		if d.Admin == nil {
			return RoleDetail{}, errDetailTag(d.Role)
		}
		a := *d.Admin
		if pa := p.Admin; pa != nil {
			if pa.Level != nil {
				a.Level = *pa.Level
			}
			if pa.Department != nil {
				a.Department = *pa.Department
			}
		}
		out.Admin = &a
	default:
		return RoleDetail{}, oops.Code(CodeInvalidInput).With("role", d.Role).Errorf("unsupported role %q", d.Role)
	}

	if err := out.Validate(); err != nil {
		return RoleDetail{}, err
	}
	return out, nil
}
