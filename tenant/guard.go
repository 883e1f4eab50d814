package tenant

import (
	"context"
	"fmt"
	"sync/atomic"

	sq "github.com/Masterminds/squirrel"

	"github.com/MrEthical07/goGuard/logging"
)

// Column is the tenant discriminator column on every isolated table.
const Column = "tenant_id"

// ViolationHook is called whenever an isolated resource is touched without
// tenant context. Used for alerting.
type ViolationHook func(ctx context.Context, rt ResourceType)

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithGuardLogger sets the logger used for context violations.
func WithGuardLogger(l logging.Logger) GuardOption {
	return func(g *Guard) {
		if l != nil {
			g.log = l
		}
	}
}

// WithViolationHook registers a callback for context violations.
func WithViolationHook(h ViolationHook) GuardOption {
	return func(g *Guard) {
		g.hook = h
	}
}

// Guard applies tenant isolation to predicates and payloads.
type Guard struct {
	log        logging.Logger
	hook       ViolationHook
	violations atomic.Uint64
}

// NewGuard returns a Guard.
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{log: logging.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// RequiresIsolation reports whether rt is tenant isolated.
func (g *Guard) RequiresIsolation(rt ResourceType) bool {
	return RequiresIsolation(rt)
}

// AssertContext fails with ErrTenantContextRequired when rt is isolated and
// tenantID is empty.
func (g *Guard) AssertContext(ctx context.Context, rt ResourceType, tenantID string) error {
	if !RequiresIsolation(rt) || tenantID != "" {
		return nil
	}
	g.violations.Add(1)
	logging.FromContext(ctx, g.log).Errorw("tenant context required for isolated resource",
		"resource", string(rt),
	)
	if g.hook != nil {
		g.hook(ctx, rt)
	}
	return fmt.Errorf("%w: %s", ErrTenantContextRequired, rt)
}

// Violations returns the number of AssertContext failures.
func (g *Guard) Violations() uint64 {
	return g.violations.Load()
}

// ApplyFilter returns a copy of where with the tenant column set.
func (g *Guard) ApplyFilter(where sq.Eq, tenantID string) sq.Eq {
	out := make(sq.Eq, len(where)+1)
	for k, v := range where {
		out[k] = v
	}
	out[Column] = tenantID
	return out
}

// StampCreate returns a copy of data with the tenant column set.
func (g *Guard) StampCreate(data map[string]any, tenantID string) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out[Column] = tenantID
	return out
}

// StampCreateBatch stamps every row.
func (g *Guard) StampCreateBatch(rows []map[string]any, tenantID string) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = g.StampCreate(row, tenantID)
	}
	return out
}

// ValidateTenantData fails with ErrTenantMismatch when data already names a
// tenant other than tenantID.
func (g *Guard) ValidateTenantData(data map[string]any, tenantID string) error {
	v, ok := data[Column]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok || (s != "" && s != tenantID) {
		return fmt.Errorf("%w: payload names %v", ErrTenantMismatch, v)
	}
	return nil
}
