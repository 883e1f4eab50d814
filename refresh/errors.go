package refresh

import "errors"

var (
	// ErrTokenNotFound is returned when no record matches the presented token.
	ErrTokenNotFound = errors.New("refresh: token not found")
	// ErrTokenExpired is returned when the record is past expiry. The record is
	// revoked as a side effect.
	ErrTokenExpired = errors.New("refresh: token expired")
	// ErrTokenRevoked is returned when the record was revoked earlier.
	ErrTokenRevoked = errors.New("refresh: token revoked")
	// ErrTokenInvalid is returned when validation could not complete.
	ErrTokenInvalid = errors.New("refresh: token invalid")

	// ErrRecordNotFound is returned by repositories for unknown hashes.
	ErrRecordNotFound = errors.New("refresh: record not found")
	// ErrRepositoryUnavailable wraps backend failures.
	ErrRepositoryUnavailable = errors.New("refresh: repository unavailable")
)
