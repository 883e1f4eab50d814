package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/logging"
	"github.com/MrEthical07/goGuard/ratelimit"
	"github.com/MrEthical07/goGuard/refresh"
	"github.com/MrEthical07/goGuard/session"
	"github.com/MrEthical07/goGuard/tenant"
	"github.com/MrEthical07/goGuard/vault"
)

// ErrRequestBlocked is the rejection returned for a firewall block.
var ErrRequestBlocked = errors.New("request blocked")

// Error codes carried in the response envelope.
const (
	CodeConfig                = "CONFIG_ERROR"
	CodeMissingToken          = "MISSING_TOKEN"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeRefreshInvalid        = "REFRESH_INVALID"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeAccountInactive       = "ACCOUNT_INACTIVE"
	CodeTenantContextRequired = "TENANT_CONTEXT_REQUIRED"
	CodeTenantContextMissing  = "TENANT_CONTEXT_MISSING"
	CodeTenantNotFound        = "TENANT_NOT_FOUND"
	CodeTenantInactive        = "TENANT_INACTIVE"
	CodeTenantIsolation       = "TENANT_ISOLATION_VIOLATION"
	CodeInvalidCallerType     = "INVALID_CALLER_TYPE"
	CodeTenantMismatch        = "TENANT_MISMATCH"
	CodeForbidden             = "FORBIDDEN"
	CodeWAFBlocked            = "WAF_BLOCKED"
	CodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	CodeValidation            = "VALIDATION_ERROR"
	CodeInvalidOrigin         = "INVALID_ORIGIN"
	CodeMethodNotAllowed      = "METHOD_NOT_ALLOWED"
	CodeInternal              = "INTERNAL_ERROR"
)

// HTTPError is the client-facing shape of an error. Message is safe to show.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

// FieldErrors is implemented by request validation errors. The returned map
// is keyed by the JSON field name.
type FieldErrors interface {
	error
	Fields() map[string]string
}

// Classify maps err to its status, code and public message. Unknown errors
// become a sanitized 500.
func Classify(err error) HTTPError {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return HTTPError{
			Status:  http.StatusBadRequest,
			Code:    CodeValidation,
			Message: "Validation failed",
			Details: map[string]any{"fields": fe.Fields()},
		}
	}

	switch {
	case errors.Is(err, vault.ErrConfig), errors.Is(err, session.ErrConfig), errors.Is(err, goGuard.ErrInvalidConfig):
		return HTTPError{Status: http.StatusInternalServerError, Code: CodeConfig, Message: "Internal server error"}

	case errors.Is(err, session.ErrMissingToken):
		return HTTPError{Status: http.StatusUnauthorized, Code: CodeMissingToken, Message: "Authentication required"}
	case errors.Is(err, session.ErrInvalidFormat), errors.Is(err, session.ErrInvalidSignature),
		errors.Is(err, session.ErrMissingTenant), errors.Is(err, session.ErrInvalidUserType):
		return HTTPError{Status: http.StatusUnauthorized, Code: CodeInvalidToken, Message: "Invalid token"}
	case errors.Is(err, session.ErrExpiredToken):
		return HTTPError{Status: http.StatusUnauthorized, Code: CodeTokenExpired, Message: "Session expired"}

	case errors.Is(err, refresh.ErrTokenNotFound), errors.Is(err, refresh.ErrTokenExpired),
		errors.Is(err, refresh.ErrTokenRevoked), errors.Is(err, refresh.ErrTokenInvalid):
		return HTTPError{Status: http.StatusUnauthorized, Code: CodeRefreshInvalid, Message: "Invalid refresh token"}

	case errors.Is(err, goGuard.ErrInvalidCredentials):
		return HTTPError{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "Invalid credentials"}
	case errors.Is(err, goGuard.ErrCallerInactive):
		return HTTPError{Status: http.StatusUnauthorized, Code: CodeAccountInactive, Message: "Account inactive"}

	case errors.Is(err, tenant.ErrTenantContextRequired):
		return HTTPError{Status: http.StatusInternalServerError, Code: CodeTenantContextRequired, Message: "Internal server error"}
	case errors.Is(err, tenant.ErrTenantContextMissing):
		return HTTPError{Status: http.StatusInternalServerError, Code: CodeTenantContextMissing, Message: "Tenant context missing"}
	case errors.Is(err, tenant.ErrTenantNotFound):
		return HTTPError{Status: http.StatusNotFound, Code: CodeTenantNotFound, Message: "Tenant not found"}
	case errors.Is(err, tenant.ErrTenantInactive):
		return HTTPError{Status: http.StatusForbidden, Code: CodeTenantInactive, Message: "Tenant inactive"}
	case errors.Is(err, tenant.ErrIsolationViolation):
		return HTTPError{Status: http.StatusForbidden, Code: CodeTenantIsolation, Message: "Access to this tenant is not allowed"}
	case errors.Is(err, tenant.ErrInvalidCallerType):
		return HTTPError{Status: http.StatusForbidden, Code: CodeInvalidCallerType, Message: "Invalid caller type"}
	case errors.Is(err, tenant.ErrTenantMismatch):
		return HTTPError{Status: http.StatusForbidden, Code: CodeTenantMismatch, Message: "Tenant mismatch"}

	case errors.Is(err, goGuard.ErrForbidden):
		return HTTPError{Status: http.StatusForbidden, Code: CodeForbidden, Message: "Forbidden"}
	case errors.Is(err, ErrRequestBlocked):
		return HTTPError{Status: http.StatusForbidden, Code: CodeWAFBlocked, Message: "Request blocked"}
	case errors.Is(err, ratelimit.ErrLimitExceeded):
		return HTTPError{Status: http.StatusTooManyRequests, Code: CodeRateLimitExceeded, Message: "Too many requests"}
	case errors.Is(err, goGuard.ErrOriginRejected):
		return HTTPError{Status: http.StatusForbidden, Code: CodeInvalidOrigin, Message: "Invalid origin"}
	}

	return HTTPError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Internal server error"}
}

type envelope struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// WriteJSON writes v as the response body with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteHTTPError writes the error envelope for he.
func WriteHTTPError(w http.ResponseWriter, he HTTPError) {
	WriteJSON(w, he.Status, envelope{
		Success: false,
		Error:   he.Message,
		Code:    he.Code,
		Details: he.Details,
	})
}

// WriteError classifies err and writes the envelope. 500s are logged at
// error with the request-scoped logger.
func WriteError(w http.ResponseWriter, r *http.Request, engine *goGuard.Engine, err error) {
	he := Classify(err)
	if he.Status >= http.StatusInternalServerError {
		logging.FromContext(r.Context(), engine.Logger()).Errorw("request failed", "path", r.URL.Path, "method", r.Method, "code", he.Code, "error", err)
		if he.Code == CodeInternal {
			he.Details = map[string]any{"requestId": goGuard.RequestIDFromContext(r.Context())}
		}
	}
	WriteHTTPError(w, he)
}
