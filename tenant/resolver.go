package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goGuard/logging"
	"github.com/MrEthical07/goGuard/session"
)

// Caller is the authenticated principal being scoped.
type Caller struct {
	ID         string
	Type       session.UserType
	TenantID   string
	TenantSlug string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger for warn-level rejections.
func WithResolverLogger(l logging.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// Resolver decides which tenant a caller acts as.
type Resolver struct {
	lookup Lookup
	log    logging.Logger
}

// NewResolver returns a Resolver backed by lookup.
func NewResolver(lookup Lookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{lookup: lookup, log: logging.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve returns the scope for caller given the request hint.
func (r *Resolver) Resolve(ctx context.Context, caller Caller, hint Hint) (Scope, error) {
	log := logging.FromContext(ctx, r.log)

	switch caller.Type {
	case session.UserTypeSuperAdmin:
		if hint.Empty() {
			return Scope{Global: true}, nil
		}
		t, err := r.find(ctx, hint)
		if err != nil {
			log.Warnw("tenant hint rejected", "user_id", caller.ID, "tenant_id", hint.TenantID, "tenant_slug", hint.TenantSlug, "error", err)
			return Scope{}, err
		}
		if !t.IsActive {
			log.Warnw("tenant inactive", "user_id", caller.ID, "tenant_id", t.ID)
			return Scope{}, ErrTenantInactive
		}
		return Scope{TenantID: t.ID, TenantSlug: t.Slug}, nil

	case session.UserTypeTenantUser:
		if caller.TenantID == "" {
			log.Errorw("tenant user without tenant", "user_id", caller.ID)
			return Scope{}, ErrTenantContextMissing
		}
		if hint.TenantID != "" && hint.TenantID != caller.TenantID {
			log.Warnw("tenant isolation violation", "user_id", caller.ID, "tenant_id", caller.TenantID, "requested_tenant", hint.TenantID)
			return Scope{}, ErrIsolationViolation
		}
		t, err := r.lookup.FindByID(ctx, caller.TenantID)
		if err != nil {
			if errors.Is(err, ErrTenantNotFound) {
				log.Warnw("tenant missing for user", "user_id", caller.ID, "tenant_id", caller.TenantID)
				return Scope{}, ErrTenantInactive
			}
			return Scope{}, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
		}
		if !t.IsActive {
			log.Warnw("tenant inactive", "user_id", caller.ID, "tenant_id", t.ID)
			return Scope{}, ErrTenantInactive
		}
		if hint.TenantSlug != "" && hint.TenantSlug != t.Slug {
			log.Warnw("tenant isolation violation", "user_id", caller.ID, "tenant_id", caller.TenantID, "requested_slug", hint.TenantSlug)
			return Scope{}, ErrIsolationViolation
		}
		return Scope{TenantID: t.ID, TenantSlug: t.Slug}, nil
	}

	log.Warnw("invalid caller type", "user_id", caller.ID, "user_type", string(caller.Type))
	return Scope{}, ErrInvalidCallerType
}

func (r *Resolver) find(ctx context.Context, hint Hint) (*Tenant, error) {
	var (
		t   *Tenant
		err error
	)
	if hint.TenantID != "" {
		t, err = r.lookup.FindByID(ctx, hint.TenantID)
	} else {
		t, err = r.lookup.FindBySlug(ctx, hint.TenantSlug)
	}
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}
	return t, nil
}
