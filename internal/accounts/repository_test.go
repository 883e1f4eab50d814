package accounts

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/permission"
	"github.com/MrEthical07/goGuard/session"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewRepository(sqlx.NewDb(sqlDB, "postgres")), mock
}

func adminRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "is_active"})
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "name", "role", "password_hash", "tenant_id", "tenant_slug", "is_active"})
}

func TestFindByIdentifierTenantUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tenant_users u JOIN tenants t ON t.id = u.tenant_id WHERE u.email = $1`)).
		WithArgs("ed@acme.test").
		WillReturnRows(userRows().AddRow("u-1", "ed@acme.test", "Ed", permission.RoleEditor, "$argon2id$...", "t-1", "acme", true))

	rec, err := repo.FindByIdentifier(context.Background(), "  Ed@Acme.test ", session.UserTypeTenantUser)
	if err != nil {
		t.Fatalf("FindByIdentifier: %v", err)
	}
	if rec.ID != "u-1" || rec.UserType != session.UserTypeTenantUser || rec.TenantSlug != "acme" || rec.Role != permission.RoleEditor || !rec.Active {
		t.Fatalf("unexpected record %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByIdentifierSearchesOperatorsFirst(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM super_admins WHERE email = $1`)).
		WithArgs("ed@acme.test").
		WillReturnRows(adminRows())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tenant_users u`)).
		WithArgs("ed@acme.test").
		WillReturnRows(userRows().AddRow("u-1", "ed@acme.test", "Ed", permission.RoleEditor, "h", "t-1", "acme", true))

	rec, err := repo.FindByIdentifier(context.Background(), "ed@acme.test", "")
	if err != nil {
		t.Fatalf("FindByIdentifier: %v", err)
	}
	if rec.ID != "u-1" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByIDSuperAdmin(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, name, password_hash, is_active FROM super_admins WHERE id = $1`)).
		WithArgs("op-1").
		WillReturnRows(adminRows().AddRow("op-1", "root@example.com", "Root", "h", true))

	rec, err := repo.FindByID(context.Background(), "op-1", session.UserTypeSuperAdmin)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if rec.Role != permission.RoleSuperAdmin || rec.UserType != session.UserTypeSuperAdmin || rec.TenantID != "" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestFindNotFoundAndBackendError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM super_admins`)).
		WithArgs("ghost").
		WillReturnRows(adminRows())
	if _, err := repo.FindByID(context.Background(), "ghost", session.UserTypeSuperAdmin); !errors.Is(err, goGuard.ErrCallerNotFound) {
		t.Fatalf("expected ErrCallerNotFound, got %v", err)
	}

	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tenant_users u`)).
		WithArgs("u-1").
		WillReturnError(boom)
	if _, err := repo.FindByID(context.Background(), "u-1", session.UserTypeTenantUser); !errors.Is(err, boom) || errors.Is(err, goGuard.ErrCallerNotFound) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tenant_users SET password_hash = $1, updated_at = NOW() WHERE id = $2`)).
		WithArgs("new-hash", "op-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE super_admins SET password_hash = $1, updated_at = NOW() WHERE id = $2`)).
		WithArgs("new-hash", "op-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePasswordHash(context.Background(), "op-1", "new-hash"); err != nil {
		t.Fatalf("UpdatePasswordHash: %v", err)
	}

	mock.ExpectExec(`UPDATE tenant_users`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE super_admins`).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.UpdatePasswordHash(context.Background(), "ghost", "h"); !errors.Is(err, goGuard.ErrCallerNotFound) {
		t.Fatalf("expected ErrCallerNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
