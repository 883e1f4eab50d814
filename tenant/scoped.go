package tenant

import (
	"context"
	"sort"
	"strings"
	"unicode"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// Runner hands out a squirrel builder bound to the current connection or
// transaction.
type Runner interface {
	Statement(ctx context.Context) sq.StatementBuilderType
}

// TableFunc maps a resource type to its table name (unquoted).
type TableFunc func(ResourceType) string

// SnakeTable maps "BeautyAppointment" to "beauty_appointment".
func SnakeTable(rt ResourceType) string {
	var b strings.Builder
	for i, r := range string(rt) {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ScopedStatements builds queries that always carry the tenant filter of
// the request scope.
type ScopedStatements struct {
	db    Runner
	guard *Guard
	table TableFunc
}

// NewScopedStatements wraps db. A nil table func defaults to SnakeTable.
func NewScopedStatements(db Runner, guard *Guard, table TableFunc) *ScopedStatements {
	if guard == nil {
		guard = NewGuard()
	}
	if table == nil {
		table = SnakeTable
	}
	return &ScopedStatements{db: db, guard: guard, table: table}
}

// Table returns the quoted table name for rt.
func (s *ScopedStatements) Table(rt ResourceType) string {
	return pq.QuoteIdentifier(s.table(rt))
}

// scope returns the tenant to filter on, or "" when no filter applies.
func (s *ScopedStatements) scope(ctx context.Context, rt ResourceType) (string, error) {
	sc, _ := ScopeFrom(ctx)
	if sc.Global || !RequiresIsolation(rt) {
		return "", nil
	}
	if err := s.guard.AssertContext(ctx, rt, sc.TenantID); err != nil {
		return "", err
	}
	return sc.TenantID, nil
}

func (s *ScopedStatements) where(ctx context.Context, rt ResourceType, where sq.Eq) (sq.Eq, error) {
	tid, err := s.scope(ctx, rt)
	if err != nil {
		return nil, err
	}
	if tid == "" {
		return where, nil
	}
	return s.guard.ApplyFilter(where, tid), nil
}

// Select builds a SELECT over rt.
func (s *ScopedStatements) Select(ctx context.Context, rt ResourceType, where sq.Eq, columns ...string) (sq.SelectBuilder, error) {
	w, err := s.where(ctx, rt, where)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	q := s.db.Statement(ctx).Select(columns...).From(s.Table(rt))
	if len(w) > 0 {
		q = q.Where(w)
	}
	return q, nil
}

// Count builds a SELECT COUNT(*) over rt.
func (s *ScopedStatements) Count(ctx context.Context, rt ResourceType, where sq.Eq) (sq.SelectBuilder, error) {
	return s.Select(ctx, rt, where, "COUNT(*)")
}

// Update builds an UPDATE over rt.
func (s *ScopedStatements) Update(ctx context.Context, rt ResourceType, where sq.Eq, set map[string]any) (sq.UpdateBuilder, error) {
	tid, err := s.scope(ctx, rt)
	if err != nil {
		return sq.UpdateBuilder{}, err
	}
	w := where
	if tid != "" {
		if err := s.guard.ValidateTenantData(set, tid); err != nil {
			return sq.UpdateBuilder{}, err
		}
		w = s.guard.ApplyFilter(where, tid)
	}
	q := s.db.Statement(ctx).Update(s.Table(rt)).SetMap(set)
	if len(w) > 0 {
		q = q.Where(w)
	}
	return q, nil
}

// Delete builds a DELETE over rt.
func (s *ScopedStatements) Delete(ctx context.Context, rt ResourceType, where sq.Eq) (sq.DeleteBuilder, error) {
	w, err := s.where(ctx, rt, where)
	if err != nil {
		return sq.DeleteBuilder{}, err
	}
	q := s.db.Statement(ctx).Delete(s.Table(rt))
	if len(w) > 0 {
		q = q.Where(w)
	}
	return q, nil
}

// Insert builds a single-row INSERT. Global scope must name tenant_id in data
// for isolated resources.
func (s *ScopedStatements) Insert(ctx context.Context, rt ResourceType, data map[string]any) (sq.InsertBuilder, error) {
	return s.InsertBatch(ctx, rt, []map[string]any{data})
}

// InsertBatch builds a multi-row INSERT. All rows must share the same keys.
func (s *ScopedStatements) InsertBatch(ctx context.Context, rt ResourceType, rows []map[string]any) (sq.InsertBuilder, error) {
	rows, err := s.stamp(ctx, rt, rows)
	if err != nil {
		return sq.InsertBuilder{}, err
	}
	ins := s.db.Statement(ctx).Insert(s.Table(rt))
	if len(rows) == 0 {
		return ins, nil
	}
	cols := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	ins = ins.Columns(cols...)
	for _, row := range rows {
		vals := make([]any, len(cols))
		for i, c := range cols {
			vals[i] = row[c]
		}
		ins = ins.Values(vals...)
	}
	return ins, nil
}

func (s *ScopedStatements) stamp(ctx context.Context, rt ResourceType, rows []map[string]any) ([]map[string]any, error) {
	if !RequiresIsolation(rt) {
		return rows, nil
	}
	sc, _ := ScopeFrom(ctx)
	if sc.Global {
		for _, row := range rows {
			tid, _ := row[Column].(string)
			if err := s.guard.AssertContext(ctx, rt, tid); err != nil {
				return nil, err
			}
		}
		return rows, nil
	}
	if err := s.guard.AssertContext(ctx, rt, sc.TenantID); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := s.guard.ValidateTenantData(row, sc.TenantID); err != nil {
			return nil, err
		}
	}
	return s.guard.StampCreateBatch(rows, sc.TenantID), nil
}
