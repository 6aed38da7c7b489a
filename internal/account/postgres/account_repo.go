// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/agrisetu/agrisetu/internal/account"
)

const accountColumns = `id, name, email, phone, password_hash, role, location, created_at, updated_at`

// AccountRepository implements account.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository. Pass a *pgxpool.Pool.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts the account and its role detail in one transaction.
func (r *AccountRepository) Create(ctx context.Context, acct *account.Account, detail account.RoleDetail) error {
	if err := detail.Validate(); err != nil {
		return err
	}
	return r.inTx(ctx, "create account", func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO accounts (`+accountColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			acct.ID.String(),
			acct.Name,
			acct.Email,
			acct.Phone,
			acct.PasswordHash,
			string(acct.Role),
			acct.Location,
			acct.CreatedAt,
			acct.UpdatedAt,
		)
		if err != nil {
			return accountWriteError("ACCOUNT_CREATE_FAILED", "insert account", acct.ID, err)
		}
		return saveDetail(ctx, tx, acct.ID, detail)
	})
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.String())
	return lookup(row, "id", id.String())
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)
	return lookup(row, "email", email)
}

// GetByPhone retrieves an account by phone number.
func (r *AccountRepository) GetByPhone(ctx context.Context, phone string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE phone = $1`, phone)
	return lookup(row, "phone", phone)
}

// UpdateProfile writes the mutable profile columns.
func (r *AccountRepository) UpdateProfile(ctx context.Context, acct *account.Account) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET name = $2, phone = $3, location = $4, updated_at = $5
		WHERE id = $1
	`, acct.ID.String(), acct.Name, acct.Phone, acct.Location, acct.UpdatedAt)
	if err != nil {
		return accountWriteError("ACCOUNT_UPDATE_FAILED", "update profile", acct.ID, err)
	}
	if result.RowsAffected() == 0 {
		return accountNotFound(acct.ID)
	}
	return nil
}

// UpdatePassword updates only the password hash for an account.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), passwordHash, time.Now().UTC())
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return accountNotFound(id)
	}
	return nil
}

// GetDetail reads the role detail row of the account.
func (r *AccountRepository) GetDetail(ctx context.Context, id ulid.ULID, role account.Role) (account.RoleDetail, error) {
	detail := account.RoleDetail{Role: role}
	var err error

	switch role {
	case account.RoleFarmer:
		f := &account.FarmerDetail{}
		err = r.pool.QueryRow(ctx, `
			SELECT farm_size, main_crop, irrigation_type
			FROM farmer_details WHERE account_id = $1
		`, id.String()).Scan(&f.FarmSize, &f.MainCrop, &f.IrrigationType)
		detail.Farmer = f
	case account.RoleSupplier:
		s := &account.SupplierDetail{}
		err = r.pool.QueryRow(ctx, `
			SELECT shop_name, address, latitude, longitude, approved, service_areas
			FROM supplier_details WHERE account_id = $1
		`, id.String()).Scan(&s.ShopName, &s.Address, &s.Latitude, &s.Longitude, &s.Approved, &s.ServiceAreas)
		if s.ServiceAreas == nil {
			s.ServiceAreas = []string{}
		}
		detail.Supplier = s
	case account.RoleAdministrator:
		a := &account.AdminDetail{}
		err = r.pool.QueryRow(ctx, `
			SELECT level, department
			FROM admin_details WHERE account_id = $1
		`, id.String()).Scan(&a.Level, &a.Department)
		detail.Admin = a
	default:
		return account.RoleDetail{}, errUnknownRole(role)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return account.RoleDetail{}, oops.Code("ROLE_DETAIL_NOT_FOUND").
			With("account_id", id.String()).
			With("role", string(role)).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return account.RoleDetail{}, oops.Code("ROLE_DETAIL_GET_FAILED").
			With("operation", "get role detail").
			With("account_id", id.String()).
			With("role", string(role)).
			Wrap(err)
	}
	return detail, nil
}

// SaveDetail inserts or replaces the role detail row.
func (r *AccountRepository) SaveDetail(ctx context.Context, id ulid.ULID, detail account.RoleDetail) error {
	if err := detail.Validate(); err != nil {
		return err
	}
	return saveDetail(ctx, r.pool, id, detail)
}

// Delete removes the role detail row and then the account in one transaction.
func (r *AccountRepository) Delete(ctx context.Context, id ulid.ULID, role account.Role) error {
	table, err := detailTable(role)
	if err != nil {
		return err
	}
	return r.inTx(ctx, "delete account", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE account_id = $1`, id.String()); err != nil {
			return oops.Code("ACCOUNT_DELETE_FAILED").
				With("operation", "delete role detail").
				With("id", id.String()).
				Wrap(err)
		}
		result, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id.String())
		if err != nil {
			return oops.Code("ACCOUNT_DELETE_FAILED").
				With("operation", "delete account").
				With("id", id.String()).
				Wrap(err)
		}
		if result.RowsAffected() == 0 {
			return accountNotFound(id)
		}
		return nil
	})
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (r *AccountRepository) inTx(ctx context.Context, operation string, fn func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("ACCOUNT_TX_FAILED").With("operation", operation).Wrap(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx) //nolint:errcheck // fn's error takes precedence
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("ACCOUNT_TX_FAILED").With("operation", operation).Wrap(err)
	}
	return nil
}

func saveDetail(ctx context.Context, db execer, id ulid.ULID, detail account.RoleDetail) error {
	var err error
	switch detail.Role {
	case account.RoleFarmer:
		f := detail.Farmer
		_, err = db.Exec(ctx, `
			INSERT INTO farmer_details (account_id, farm_size, main_crop, irrigation_type)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (account_id) DO UPDATE SET
				farm_size = EXCLUDED.farm_size,
				main_crop = EXCLUDED.main_crop,
				irrigation_type = EXCLUDED.irrigation_type
		`, id.String(), f.FarmSize, f.MainCrop, f.IrrigationType)
	case account.RoleSupplier:
		s := detail.Supplier
		areas := s.ServiceAreas
		if areas == nil {
			areas = []string{}
		}
		_, err = db.Exec(ctx, `
			INSERT INTO supplier_details (account_id, shop_name, address, latitude, longitude, approved, service_areas)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (account_id) DO UPDATE SET
				shop_name = EXCLUDED.shop_name,
				address = EXCLUDED.address,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				approved = EXCLUDED.approved,
				service_areas = EXCLUDED.service_areas
		`, id.String(), s.ShopName, s.Address, s.Latitude, s.Longitude, s.Approved, areas)
	case account.RoleAdministrator:
		a := detail.Admin
		_, err = db.Exec(ctx, `
			INSERT INTO admin_details (account_id, level, department)
			VALUES ($1, $2, $3)
			ON CONFLICT (account_id) DO UPDATE SET
				level = EXCLUDED.level,
				department = EXCLUDED.department
		`, id.String(), a.Level, a.Department)
	default:
		return errUnknownRole(detail.Role)
	}

	if isForeignKeyViolation(err) {
		return accountNotFound(id)
	}
	if err != nil {
		return oops.Code("ROLE_DETAIL_SAVE_FAILED").
			With("operation", "save role detail").
			With("account_id", id.String()).
			With("role", string(detail.Role)).
			Wrap(err)
	}
	return nil
}

func detailTable(role account.Role) (string, error) {
	switch role {
	case account.RoleFarmer:
		return "farmer_details", nil
	case account.RoleSupplier:
		return "supplier_details", nil
	case account.RoleAdministrator:
		return "admin_details", nil
	}
	return "", errUnknownRole(role)
}

func lookup(row pgx.Row, key, value string) (*account.Account, error) {
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With(key, value).Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by "+key).
			With(key, value).
			Wrap(err)
	}
	return acct, nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		idStr string
		role  string
		acct  account.Account
	)
	err := row.Scan(
		&idStr,
		&acct.Name,
		&acct.Email,
		&acct.Phone,
		&acct.PasswordHash,
		&role,
		&acct.Location,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with lookup context
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").With("operation", "scan account").Wrap(err)
	}

	acct.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").With("id", idStr).Wrap(err)
	}
	acct.Role = account.Role(role)
	if !acct.Role.Valid() {
		return nil, errUnknownRole(acct.Role)
	}
	return &acct, nil
}

func accountWriteError(code, operation string, id ulid.ULID, err error) error {
	switch {
	case isUniqueViolation(err, emailConstraint):
		return oops.Code("ACCOUNT_DUPLICATE_EMAIL").With("id", id.String()).Wrap(account.ErrDuplicateEmail)
	case isUniqueViolation(err, phoneConstraint):
		return oops.Code("ACCOUNT_DUPLICATE_PHONE").With("id", id.String()).Wrap(account.ErrDuplicatePhone)
	}
	return oops.Code(code).With("operation", operation).With("id", id.String()).Wrap(err)
}

func accountNotFound(id ulid.ULID) error {
	return oops.Code("ACCOUNT_NOT_FOUND").With("id", id.String()).Wrap(account.ErrNotFound)
}

func errUnknownRole(role account.Role) error {
	return oops.Code("ACCOUNT_UNKNOWN_ROLE").With("role", string(role)).Errorf("unknown role %q", role)
}

// Compile-time interface check.
var _ account.AccountRepository = (*AccountRepository)(nil)
