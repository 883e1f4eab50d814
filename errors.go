package goGuard

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for unknown identifiers and
	// wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCallerInactive is returned when a known caller has been deactivated.
	ErrCallerInactive = errors.New("caller inactive")
	// ErrCallerNotFound must be returned by a CallerProvider for unknown callers.
	ErrCallerNotFound = errors.New("caller not found")
	// ErrProviderUnavailable wraps any other CallerProvider failure.
	ErrProviderUnavailable = errors.New("caller provider unavailable")
	// ErrSessionIssue is returned when a session or refresh token could not be issued.
	ErrSessionIssue = errors.New("session issuance failed")
	// ErrForbidden is returned when the caller lacks a required privilege.
	ErrForbidden = errors.New("forbidden")
	// ErrOriginRejected is returned for state-changing requests from a foreign origin.
	ErrOriginRejected = errors.New("origin rejected")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrBuilderUsed is returned by a second call to Builder.Build.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
)
