package tenant

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// SQLRepository reads the tenants table.
//
//	CREATE TABLE tenants (
//	  id         TEXT PRIMARY KEY,
//	  slug       TEXT NOT NULL UNIQUE,
//	  name       TEXT NOT NULL,
//	  is_active  BOOLEAN NOT NULL DEFAULT true,
//	  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository returns a repository over db.
func NewSQLRepository(db *sqlx.DB) *SQLRepository { return &SQLRepository{db: db} }

const tenantColumns = `id, slug, name, is_active, created_at`

// FindByID returns the tenant with id or ErrTenantNotFound.
func (r *SQLRepository) FindByID(ctx context.Context, id string) (*Tenant, error) {
	const q = `SELECT ` + tenantColumns + ` FROM tenants WHERE id=$1`
	return r.get(ctx, q, id)
}

// FindBySlug returns the tenant with slug or ErrTenantNotFound.
func (r *SQLRepository) FindBySlug(ctx context.Context, slug string) (*Tenant, error) {
	const q = `SELECT ` + tenantColumns + ` FROM tenants WHERE slug=$1`
	return r.get(ctx, q, slug)
}

// List returns tenants ordered by slug. activeOnly filters disabled tenants.
func (r *SQLRepository) List(ctx context.Context, activeOnly bool) ([]Tenant, error) {
	q := `SELECT ` + tenantColumns + ` FROM tenants`
	if activeOnly {
		q += ` WHERE is_active = true`
	}
	q += ` ORDER BY slug`
	var out []Tenant
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLRepository) get(ctx context.Context, q string, arg string) (*Tenant, error) {
	var t Tenant
	if err := r.db.GetContext(ctx, &t, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}
