package session

import "errors"

var (
	// ErrConfig is returned when the signing secret is missing or too short.
	ErrConfig = errors.New("session: invalid configuration")
	// ErrMissingToken is returned when no token was presented.
	ErrMissingToken = errors.New("session: missing token")
	// ErrInvalidFormat is returned for structurally invalid tokens or claims.
	ErrInvalidFormat = errors.New("session: invalid token format")
	// ErrInvalidSignature is returned when the HMAC does not match.
	ErrInvalidSignature = errors.New("session: invalid signature")
	// ErrExpiredToken is returned when exp is at or before the current time.
	ErrExpiredToken = errors.New("session: token expired")
	// ErrMissingTenant is returned when signing tenant-user claims without a tenant.
	ErrMissingTenant = errors.New("session: tenant user claims require tenantId")
	// ErrInvalidUserType is returned when signing claims with an unknown user type.
	ErrInvalidUserType = errors.New("session: invalid user type")
)
