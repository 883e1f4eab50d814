package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/logging"
	"github.com/MrEthical07/goGuard/middleware"
	"github.com/MrEthical07/goGuard/pipeline"
	"github.com/MrEthical07/goGuard/session"
	"github.com/MrEthical07/goGuard/tenant"
)

const (
	healthTimeout   = 2 * time.Second
	maxReportBytes  = 64 << 10
	maxReportFields = 512
)

type api struct {
	engine *goGuard.Engine
	p      *pipeline.Pipeline
	log    logging.Logger
	checks map[string]Check
}

type dataEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	middleware.WriteJSON(w, status, dataEnvelope{Success: true, Data: data})
}

/*
====================================
HEALTH
====================================
*/

func (a *api) health(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(a.checks))
	for name := range a.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := a.checks[name](ctx); err != nil {
			logging.FromContext(r.Context(), a.log).Warnw("health check failed", "check", name, "error", err)
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	middleware.WriteJSON(w, status, body)
	return nil
}

/*
====================================
AUTH
====================================
*/

func (a *api) login(userType session.UserType) pipeline.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		req, _ := pipeline.Body[*goGuard.LoginRequest](r)
		in := *req
		in.UserType = userType

		res, err := a.engine.Login(r.Context(), in)
		if err != nil {
			return err
		}
		middleware.SetSessionCookies(w, a.engine, res)
		writeData(w, http.StatusOK, res)
		return nil
	}
}

func (a *api) refresh(w http.ResponseWriter, r *http.Request) error {
	res, err := a.engine.Refresh(r.Context(), middleware.RefreshToken(r, a.engine))
	if err != nil {
		middleware.ClearSessionCookies(w, a.engine)
		return err
	}
	middleware.SetSessionCookies(w, a.engine, res)
	writeData(w, http.StatusOK, res)
	return nil
}

// logout clears the cookies unless the token store failed, in which case the
// token may still be live. An unknown or expired refresh token is
// not an error here.
func (a *api) logout(w http.ResponseWriter, r *http.Request) error {
	if token := middleware.RefreshToken(r, a.engine); token != "" {
		if err := a.engine.Logout(r.Context(), token); err != nil && middleware.Classify(err).Code == middleware.CodeInternal {
			return err
		}
	}
	middleware.ClearSessionCookies(w, a.engine)
	writeData(w, http.StatusOK, nil)
	return nil
}

func (a *api) logoutAll(w http.ResponseWriter, r *http.Request) error {
	caller, _ := goGuard.CallerFromContext(r.Context())
	n, err := a.engine.LogoutAll(r.Context(), caller)
	if err != nil {
		return err
	}
	middleware.ClearSessionCookies(w, a.engine)
	writeData(w, http.StatusOK, map[string]int64{"revoked": n})
	return nil
}

func (a *api) verify(w http.ResponseWriter, r *http.Request) error {
	caller, _ := goGuard.CallerFromContext(r.Context())
	writeData(w, http.StatusOK, map[string]any{
		"user":        caller,
		"permissions": a.engine.Permissions(caller),
	})
	return nil
}

func (a *api) session(w http.ResponseWriter, r *http.Request) error {
	caller, _ := goGuard.CallerFromContext(r.Context())
	scope, _ := tenant.ScopeFrom(r.Context())
	writeData(w, http.StatusOK, map[string]any{
		"user": caller,
		"tenant": map[string]any{
			"id":     scope.TenantID,
			"slug":   scope.TenantSlug,
			"global": scope.Global,
		},
	})
	return nil
}

/*
====================================
SECURITY
====================================
*/

func (a *api) posture(w http.ResponseWriter, _ *http.Request) error {
	writeData(w, http.StatusOK, a.engine.SecurityReport())
	return nil
}

// cspReport accepts both the legacy {"csp-report": {...}} body and the
// Reporting API array and logs each report at warn.
func (a *api) cspReport(w http.ResponseWriter, r *http.Request) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxReportBytes))
	if err != nil {
		return pipeline.NewValidationError(map[string]string{"body": "could not be read"})
	}
	log := logging.FromContext(r.Context(), a.log)

	for _, report := range decodeReports(raw) {
		kv := make([]any, 0, 2*len(report)+2)
		kv = append(kv, "source", "csp")
		for _, k := range sortedKeys(report) {
			kv = append(kv, k, report[k])
		}
		log.Warnw("security report received", kv...)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func decodeReports(raw []byte) []map[string]any {
	var legacy struct {
		Report map[string]any `json:"csp-report"`
	}
	if err := json.Unmarshal(raw, &legacy); err == nil && legacy.Report != nil {
		return []map[string]any{limitFields(legacy.Report)}
	}

	var batch []struct {
		Type string         `json:"type"`
		URL  string         `json:"url"`
		Body map[string]any `json:"body"`
	}
	if err := json.Unmarshal(raw, &batch); err == nil {
		out := make([]map[string]any, 0, len(batch))
		for _, b := range batch {
			rep := limitFields(b.Body)
			rep["type"] = b.Type
			rep["url"] = b.URL
			out = append(out, rep)
		}
		return out
	}

	if len(raw) == 0 {
		return nil
	}
	return []map[string]any{{"raw": string(raw)}}
}

func limitFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for _, k := range sortedKeys(in) {
		if len(out) == maxReportFields {
			break
		}
		out[k] = in[k]
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
