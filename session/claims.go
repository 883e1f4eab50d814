package session

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserType distinguishes platform operators from tenant members.
type UserType string

const (
	// UserTypeSuperAdmin is a platform operator that may act globally.
	UserTypeSuperAdmin UserType = "SUPER_ADMIN"
	// UserTypeTenantUser is a member of exactly one tenant.
	UserTypeTenantUser UserType = "TENANT_USER"
)

// Valid reports whether t is one of the known user types.
func (t UserType) Valid() bool {
	return t == UserTypeSuperAdmin || t == UserTypeTenantUser
}

// Claims is the signed payload of a session token.
//
// Claims are immutable once signed; a changed caller gets a new token.
type Claims struct {
	SubjectID  string   `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Role       string   `json:"role"`
	TenantID   string   `json:"tenantId,omitempty"`
	TenantSlug string   `json:"tenantSlug,omitempty"`
	UserType   UserType `json:"userType"`
	LoginTime  string   `json:"loginTime,omitempty"`
	jwt.RegisteredClaims
}
