package tenant

import "errors"

var (
	// ErrTenantContextRequired signals a data access to an isolated resource
	// without tenant scope. It is a programming error, not a caller error.
	ErrTenantContextRequired = errors.New("tenant: tenant context required")
	// ErrTenantContextMissing is returned when a tenant user carries no tenant.
	ErrTenantContextMissing = errors.New("tenant: tenant context missing")
	// ErrTenantNotFound is returned when a hinted tenant does not exist.
	ErrTenantNotFound = errors.New("tenant: not found")
	// ErrTenantInactive is returned when the resolved tenant is disabled.
	ErrTenantInactive = errors.New("tenant: inactive")
	// ErrIsolationViolation is returned when a tenant user targets another tenant.
	ErrIsolationViolation = errors.New("tenant: isolation violation")
	// ErrInvalidCallerType is returned for callers that are neither super
	// admins nor tenant users.
	ErrInvalidCallerType = errors.New("tenant: invalid caller type")
	// ErrTenantMismatch is returned when a payload names a foreign tenant.
	ErrTenantMismatch = errors.New("tenant: payload tenant mismatch")
	// ErrLookupUnavailable wraps tenant lookup backend failures.
	ErrLookupUnavailable = errors.New("tenant: lookup unavailable")
)
