package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/permission"
	"github.com/MrEthical07/goGuard/session"
)

// Repository reads platform operators and tenant members.
//
//	CREATE TABLE super_admins (
//	  id            TEXT PRIMARY KEY,
//	  email         TEXT NOT NULL UNIQUE,
//	  name          TEXT NOT NULL DEFAULT '',
//	  password_hash TEXT NOT NULL,
//	  is_active     BOOLEAN NOT NULL DEFAULT true,
//	  updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//
//	CREATE TABLE tenant_users (
//	  id            TEXT PRIMARY KEY,
//	  tenant_id     TEXT NOT NULL REFERENCES tenants(id),
//	  email         TEXT NOT NULL UNIQUE,
//	  name          TEXT NOT NULL DEFAULT '',
//	  role          TEXT NOT NULL,
//	  password_hash TEXT NOT NULL,
//	  is_active     BOOLEAN NOT NULL DEFAULT true,
//	  updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type Repository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

var (
	_ goGuard.CallerProvider  = (*Repository)(nil)
	_ goGuard.PasswordUpdater = (*Repository)(nil)
)

// NewRepository returns a Repository over db.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

type superAdminRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
	IsActive     bool   `db:"is_active"`
}

func (r superAdminRow) record() goGuard.CallerRecord {
	return goGuard.CallerRecord{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		Role:         permission.RoleSuperAdmin,
		PasswordHash: r.PasswordHash,
		UserType:     session.UserTypeSuperAdmin,
		Active:       r.IsActive,
	}
}

type tenantUserRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	Role         string `db:"role"`
	PasswordHash string `db:"password_hash"`
	TenantID     string `db:"tenant_id"`
	TenantSlug   string `db:"tenant_slug"`
	IsActive     bool   `db:"is_active"`
}

func (r tenantUserRow) record() goGuard.CallerRecord {
	return goGuard.CallerRecord{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		Role:         r.Role,
		PasswordHash: r.PasswordHash,
		UserType:     session.UserTypeTenantUser,
		TenantID:     r.TenantID,
		TenantSlug:   r.TenantSlug,
		Active:       r.IsActive,
	}
}

// FindByIdentifier looks up a caller by email. An empty userType searches
// operators first, then tenant members.
func (r *Repository) FindByIdentifier(ctx context.Context, identifier string, userType session.UserType) (goGuard.CallerRecord, error) {
	email := strings.ToLower(strings.TrimSpace(identifier))
	return r.find(ctx, userType, sq.Eq{"email": email}, sq.Eq{"u.email": email})
}

// FindByID looks up a caller by id.
func (r *Repository) FindByID(ctx context.Context, id string, userType session.UserType) (goGuard.CallerRecord, error) {
	return r.find(ctx, userType, sq.Eq{"id": id}, sq.Eq{"u.id": id})
}

func (r *Repository) find(ctx context.Context, userType session.UserType, adminPred, userPred sq.Eq) (goGuard.CallerRecord, error) {
	if userType == "" || userType == session.UserTypeSuperAdmin {
		rec, err := r.findSuperAdmin(ctx, adminPred)
		if err == nil || userType != "" || !errors.Is(err, goGuard.ErrCallerNotFound) {
			return rec, err
		}
	}
	if userType == "" || userType == session.UserTypeTenantUser {
		return r.findTenantUser(ctx, userPred)
	}
	return goGuard.CallerRecord{}, goGuard.ErrCallerNotFound
}

func (r *Repository) findSuperAdmin(ctx context.Context, pred sq.Eq) (goGuard.CallerRecord, error) {
	q, args, err := r.sb.
		Select("id", "email", "name", "password_hash", "is_active").
		From("super_admins").
		Where(pred).
		ToSql()
	if err != nil {
		return goGuard.CallerRecord{}, err
	}
	var row superAdminRow
	if err := r.db.GetContext(ctx, &row, q, args...); err != nil {
		return goGuard.CallerRecord{}, notFound(err)
	}
	return row.record(), nil
}

func (r *Repository) findTenantUser(ctx context.Context, pred sq.Eq) (goGuard.CallerRecord, error) {
	q, args, err := r.sb.
		Select("u.id", "u.email", "u.name", "u.role", "u.password_hash", "u.tenant_id", "t.slug AS tenant_slug", "u.is_active").
		From("tenant_users u").
		Join("tenants t ON t.id = u.tenant_id").
		Where(pred).
		ToSql()
	if err != nil {
		return goGuard.CallerRecord{}, err
	}
	var row tenantUserRow
	if err := r.db.GetContext(ctx, &row, q, args...); err != nil {
		return goGuard.CallerRecord{}, notFound(err)
	}
	return row.record(), nil
}

// UpdatePasswordHash stores an upgraded hash for callerID in whichever table
// holds it.
func (r *Repository) UpdatePasswordHash(ctx context.Context, callerID, encodedHash string) error {
	for _, table := range []string{"tenant_users", "super_admins"} {
		q, args, err := r.sb.
			Update(table).
			Set("password_hash", encodedHash).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"id": callerID}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := r.db.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			return nil
		}
	}
	return goGuard.ErrCallerNotFound
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return goGuard.ErrCallerNotFound
	}
	return err
}
