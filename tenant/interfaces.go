package tenant

import (
	"context"
	"time"
)

// Tenant is a row of the tenants table.
type Tenant struct {
	ID        string    `db:"id" json:"id"`
	Slug      string    `db:"slug" json:"slug"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Lookup finds tenants. Implementations return ErrTenantNotFound when no row
// matches.
type Lookup interface {
	FindByID(ctx context.Context, id string) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
}
