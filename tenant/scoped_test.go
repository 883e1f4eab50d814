package tenant

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
)

type dollarRunner struct{}

func (dollarRunner) Statement(context.Context) sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func TestSnakeTable(t *testing.T) {
	cases := map[ResourceType]string{
		ResourceClient:                     "client",
		ResourceBeautyProfessionalSchedule: "beauty_professional_schedule",
		ResourceMenuItem:                   "menu_item",
	}
	for rt, want := range cases {
		if got := SnakeTable(rt); got != want {
			t.Errorf("SnakeTable(%s) = %q, want %q", rt, got, want)
		}
	}
}

func TestScopedStatements_RequiresContext(t *testing.T) {
	s := NewScopedStatements(dollarRunner{}, nil, nil)
	ctx := context.Background()

	if _, err := s.Select(ctx, ResourceClient, nil); !errors.Is(err, ErrTenantContextRequired) {
		t.Errorf("Select: expected ErrTenantContextRequired, got %v", err)
	}
	if _, err := s.Count(ctx, ResourceOrder, nil); !errors.Is(err, ErrTenantContextRequired) {
		t.Errorf("Count: expected ErrTenantContextRequired, got %v", err)
	}
	if _, err := s.Update(ctx, ResourceProject, sq.Eq{"id": "p"}, map[string]any{"name": "x"}); !errors.Is(err, ErrTenantContextRequired) {
		t.Errorf("Update: expected ErrTenantContextRequired, got %v", err)
	}
	if _, err := s.Delete(ctx, ResourcePatient, sq.Eq{"id": "p"}); !errors.Is(err, ErrTenantContextRequired) {
		t.Errorf("Delete: expected ErrTenantContextRequired, got %v", err)
	}
	if _, err := s.Insert(ctx, ResourceMenuItem, map[string]any{"name": "x"}); !errors.Is(err, ErrTenantContextRequired) {
		t.Errorf("Insert: expected ErrTenantContextRequired, got %v", err)
	}
	if _, err := s.Select(ctx, ResourceTenant, nil); err != nil {
		t.Errorf("platform resource should not need scope: %v", err)
	}
}

func TestScopedStatements_SQL(t *testing.T) {
	s := NewScopedStatements(dollarRunner{}, nil, nil)
	ctx := WithScope(context.Background(), Scope{TenantID: "t-1", TenantSlug: "acme"})

	testCases := []struct {
		name         string
		build        func() (sq.Sqlizer, error)
		expectedSQL  string
		expectedArgs []any
	}{
		{
			name: "select",
			build: func() (sq.Sqlizer, error) {
				return s.Select(ctx, ResourceBeautyAppointment, sq.Eq{"id": "a-1"}, "id", "starts_at")
			},
			expectedSQL:  `SELECT id, starts_at FROM "beauty_appointment" WHERE id = $1 AND tenant_id = $2`,
			expectedArgs: []any{"a-1", "t-1"},
		},
		{
			name: "count",
			build: func() (sq.Sqlizer, error) {
				return s.Count(ctx, ResourceClient, nil)
			},
			expectedSQL:  `SELECT COUNT(*) FROM "client" WHERE tenant_id = $1`,
			expectedArgs: []any{"t-1"},
		},
		{
			name: "update",
			build: func() (sq.Sqlizer, error) {
				return s.Update(ctx, ResourceClient, sq.Eq{"id": "c-1"}, map[string]any{"name": "Ann"})
			},
			expectedSQL:  `UPDATE "client" SET name = $1 WHERE id = $2 AND tenant_id = $3`,
			expectedArgs: []any{"Ann", "c-1", "t-1"},
		},
		{
			name: "delete",
			build: func() (sq.Sqlizer, error) {
				return s.Delete(ctx, ResourceOrder, sq.Eq{"id": "o-1"})
			},
			expectedSQL:  `DELETE FROM "order" WHERE id = $1 AND tenant_id = $2`,
			expectedArgs: []any{"o-1", "t-1"},
		},
		{
			name: "insert stamps tenant",
			build: func() (sq.Sqlizer, error) {
				return s.Insert(ctx, ResourceClient, map[string]any{"name": "Ann"})
			},
			expectedSQL:  `INSERT INTO "client" (name,tenant_id) VALUES ($1,$2)`,
			expectedArgs: []any{"Ann", "t-1"},
		},
		{
			name: "batch insert stamps every row",
			build: func() (sq.Sqlizer, error) {
				return s.InsertBatch(ctx, ResourceMenuItem, []map[string]any{{"name": "Soup"}, {"name": "Tea"}})
			},
			expectedSQL:  `INSERT INTO "menu_item" (name,tenant_id) VALUES ($1,$2),($3,$4)`,
			expectedArgs: []any{"Soup", "t-1", "Tea", "t-1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := tc.build()
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			query, args, err := b.ToSql()
			if err != nil {
				t.Fatalf("ToSql: %v", err)
			}
			if query != tc.expectedSQL {
				t.Errorf("expected SQL\n  %s\ngot\n  %s", tc.expectedSQL, query)
			}
			if !reflect.DeepEqual(args, tc.expectedArgs) {
				t.Errorf("expected args %v, got %v", tc.expectedArgs, args)
			}
		})
	}
}

func TestScopedStatements_ForeignPayloadRejected(t *testing.T) {
	s := NewScopedStatements(dollarRunner{}, nil, nil)
	ctx := WithScope(context.Background(), Scope{TenantID: "t-1"})

	if _, err := s.Insert(ctx, ResourceClient, map[string]any{"name": "x", Column: "t-2"}); !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("insert: expected ErrTenantMismatch, got %v", err)
	}
	if _, err := s.Update(ctx, ResourceClient, nil, map[string]any{Column: "t-2"}); !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("update: expected ErrTenantMismatch, got %v", err)
	}
}

func TestScopedStatements_GlobalScope(t *testing.T) {
	s := NewScopedStatements(dollarRunner{}, nil, nil)
	ctx := WithScope(context.Background(), Scope{Global: true})

	q, err := s.Select(ctx, ResourceClient, nil, "id")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	query, _, _ := q.ToSql()
	if query != `SELECT id FROM "client"` {
		t.Fatalf("global select should be unfiltered, got %s", query)
	}

	if _, err := s.Insert(ctx, ResourceClient, map[string]any{"name": "x"}); !errors.Is(err, ErrTenantContextRequired) {
		t.Fatalf("global insert without tenant_id: expected ErrTenantContextRequired, got %v", err)
	}
	ins, err := s.Insert(ctx, ResourceClient, map[string]any{"name": "x", Column: "t-5"})
	if err != nil {
		t.Fatalf("global insert with tenant_id: %v", err)
	}
	_, args, _ := ins.ToSql()
	if !reflect.DeepEqual(args, []any{"x", "t-5"}) {
		t.Fatalf("unexpected args %v", args)
	}
}

// Rows belonging to other tenants never reach the caller because the filter
// is part of the statement sent to the database.
func TestScopedStatements_OnlyTenantRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewScopedStatements(dollarRunner{}, nil, nil)
	ctx := WithScope(context.Background(), Scope{TenantID: "t-A"})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, tenant_id FROM "client" WHERE tenant_id = $1`)).
		WithArgs("t-A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}).
			AddRow("c-1", "t-A").
			AddRow("c-2", "t-A"))

	q, err := s.Select(ctx, ResourceClient, nil, "id", "tenant_id")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	rows, err := q.RunWith(db).QueryContext(ctx)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var id, tid string
		if err := rows.Scan(&id, &tid); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if tid != "t-A" {
			t.Fatalf("row %s from tenant %s leaked", id, tid)
		}
		n++
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
