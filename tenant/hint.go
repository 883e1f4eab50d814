package tenant

import (
	"net/http"
	"strings"
)

// HeaderTenantID carries the tenant hint.
const HeaderTenantID = "X-Tenant-Id"

// Hint is an optional tenant target supplied by the request.
type Hint struct {
	TenantID   string
	TenantSlug string
}

// Empty reports whether no hint was supplied.
func (h Hint) Empty() bool {
	return h.TenantID == "" && h.TenantSlug == ""
}

// HintFromRequest reads the x-tenant-id header, then the tenantId and
// tenantSlug query parameters.
func HintFromRequest(r *http.Request) Hint {
	if r == nil {
		return Hint{}
	}
	q := r.URL.Query()
	h := Hint{
		TenantID:   strings.TrimSpace(r.Header.Get(HeaderTenantID)),
		TenantSlug: strings.TrimSpace(q.Get("tenantSlug")),
	}
	if h.TenantID == "" {
		h.TenantID = strings.TrimSpace(q.Get("tenantId"))
	}
	return h
}
