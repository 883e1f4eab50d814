package tenant

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newSQLMockRepo(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewSQLRepository(sqlx.NewDb(sqlDB, "postgres")), mock
}

func tenantRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "slug", "name", "is_active", "created_at"})
}

func TestSQLRepository_FindByID(t *testing.T) {
	repo, mock := newSQLMockRepo(t)
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, slug, name, is_active, created_at FROM tenants WHERE id=$1`)).
		WithArgs("t-1").
		WillReturnRows(tenantRows().AddRow("t-1", "acme", "Acme", true, created))

	got, err := repo.FindByID(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.ID != "t-1" || got.Slug != "acme" || !got.IsActive || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected tenant %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLRepository_NotFound(t *testing.T) {
	repo, mock := newSQLMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tenants WHERE slug=$1`)).
		WithArgs("ghost").
		WillReturnRows(tenantRows())

	if _, err := repo.FindBySlug(context.Background(), "ghost"); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestSQLRepository_BackendError(t *testing.T) {
	repo, mock := newSQLMockRepo(t)
	boom := errors.New("conn reset")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tenants WHERE id=$1`)).
		WithArgs("t-1").
		WillReturnError(boom)

	_, err := repo.FindByID(context.Background(), "t-1")
	if !errors.Is(err, boom) || errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestSQLRepository_List(t *testing.T) {
	repo, mock := newSQLMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, slug, name, is_active, created_at FROM tenants WHERE is_active = true ORDER BY slug`)).
		WillReturnRows(tenantRows().
			AddRow("t-1", "acme", "Acme", true, now).
			AddRow("t-2", "zen", "Zen", true, now))

	list, err := repo.List(context.Background(), true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[1].Slug != "zen" {
		t.Fatalf("unexpected list %+v", list)
	}
}
