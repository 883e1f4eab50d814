package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/logging"
)

// RespondInternal writes a sanitized 500 carrying the request id and reports
// err with caller and tenant context. Outside production the details also
// carry the message and stack.
func RespondInternal(engine *goGuard.Engine, w http.ResponseWriter, r *http.Request, kind string, err error, stack []byte) {
	ctx := r.Context()
	requestID := goGuard.RequestIDFromContext(ctx)

	logging.FromContext(ctx, engine.Logger()).Errorw("unhandled error",
		"kind", kind,
		"path", r.URL.Path,
		"method", r.Method,
		"error", err,
	)
	engine.Report(ctx, logging.Incident{
		Kind:     kind,
		Severity: "high",
		Message:  "unhandled error",
		Err:      err,
		Path:     r.URL.Path,
		Method:   r.Method,
	})

	details := map[string]any{"requestId": requestID}
	if !engine.Production() {
		details["message"] = err.Error()
		if len(stack) > 0 {
			details["stack"] = string(stack)
		}
	}
	WriteHTTPError(w, HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: "Internal server error",
		Details: details,
	})
}

// RecoverPanic converts a recovered panic value into the 500 response. It is
// meant to be called from a deferred recover.
func RecoverPanic(engine *goGuard.Engine, w http.ResponseWriter, r *http.Request, rec any) {
	if rec == http.ErrAbortHandler {
		panic(rec)
	}
	err, ok := rec.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", rec)
	}
	RespondInternal(engine, w, r, "panic", err, debug.Stack())
}

// Recover turns handler panics into a sanitized 500.
func Recover(engine *goGuard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					RecoverPanic(engine, w, r, rec)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
