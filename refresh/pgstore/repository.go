// Package pgstore persists refresh records in PostgreSQL through squirrel.
//
// Expected schema:
//
//	CREATE TABLE refresh_tokens (
//	    id              uuid PRIMARY KEY,
//	    token_hash      text NOT NULL UNIQUE,
//	    token_encrypted text NOT NULL,
//	    user_id         text NOT NULL,
//	    user_type       text NOT NULL,
//	    tenant_id       text,
//	    expires_at      timestamptz NOT NULL,
//	    revoked         boolean NOT NULL DEFAULT false,
//	    revoked_at      timestamptz,
//	    last_used_at    timestamptz,
//	    created_at      timestamptz NOT NULL
//	);
//	CREATE INDEX refresh_tokens_principal ON refresh_tokens (user_id, user_type) WHERE NOT revoked;
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrEthical07/goGuard/refresh"
	"github.com/MrEthical07/goGuard/session"
)

const (
	table = "refresh_tokens"

	pgErrCodeUniqueViolation = "23505"
)

// ErrDuplicateToken is returned when a token hash already exists.
var ErrDuplicateToken = errors.New("pgstore: duplicate refresh token")

// Runner hands out statement builders bound to a connection or transaction.
type Runner interface {
	Statement(ctx context.Context) sq.StatementBuilderType
}

var _ refresh.Repository = (*Repository)(nil)

// Repository implements refresh.Repository over PostgreSQL.
type Repository struct {
	db     Runner
	tracer trace.Tracer
}

// New returns a Repository using db.
func New(db Runner) *Repository {
	return &Repository{
		db:     db,
		tracer: otel.Tracer("github.com/MrEthical07/goGuard/refresh/pgstore"),
	}
}

func (r *Repository) Create(ctx context.Context, rec *refresh.Record) error {
	ctx, span := r.tracer.Start(ctx, "pgstore.Create")
	defer span.End()

	_, err := r.db.Statement(ctx).
		Insert(table).
		Columns("id", "token_hash", "token_encrypted", "user_id", "user_type", "tenant_id", "expires_at", "revoked", "created_at").
		Values(rec.ID, rec.TokenHash, rec.TokenEncrypted, rec.UserID, string(rec.UserType), nullString(rec.TenantID), rec.ExpiresAt, false, rec.CreatedAt).
		ExecContext(ctx)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateToken
		}
		return fmt.Errorf("%w: insert refresh token: %v", refresh.ErrRepositoryUnavailable, err)
	}
	return nil
}

func (r *Repository) FindByHash(ctx context.Context, tokenHash string) (*refresh.Record, error) {
	ctx, span := r.tracer.Start(ctx, "pgstore.FindByHash")
	defer span.End()

	var (
		rec        refresh.Record
		userType   string
		tenantID   sql.NullString
		revokedAt  sql.NullTime
		lastUsedAt sql.NullTime
	)
	err := r.db.Statement(ctx).
		Select("id", "token_hash", "token_encrypted", "user_id", "user_type", "tenant_id", "expires_at", "revoked", "revoked_at", "last_used_at", "created_at").
		From(table).
		Where(sq.Eq{"token_hash": tokenHash}).
		QueryRowContext(ctx).
		Scan(&rec.ID, &rec.TokenHash, &rec.TokenEncrypted, &rec.UserID, &userType, &tenantID, &rec.ExpiresAt, &rec.Revoked, &revokedAt, &lastUsedAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, refresh.ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: select refresh token: %v", refresh.ErrRepositoryUnavailable, err)
	}

	rec.UserType = session.UserType(userType)
	rec.TenantID = tenantID.String
	if revokedAt.Valid {
		rec.RevokedAt = &revokedAt.Time
	}
	if lastUsedAt.Valid {
		rec.LastUsedAt = &lastUsedAt.Time
	}
	return &rec, nil
}

func (r *Repository) MarkRevoked(ctx context.Context, tokenHash string, at time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "pgstore.MarkRevoked")
	defer span.End()

	return r.exec(ctx, "revoke refresh token", r.db.Statement(ctx).
		Update(table).
		Set("revoked", true).
		Set("revoked_at", at).
		Where(sq.Eq{"token_hash": tokenHash, "revoked": false}))
}

func (r *Repository) RevokeAllForUser(ctx context.Context, userID string, userType session.UserType, at time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "pgstore.RevokeAllForUser")
	defer span.End()

	return r.exec(ctx, "revoke principal refresh tokens", r.db.Statement(ctx).
		Update(table).
		Set("revoked", true).
		Set("revoked_at", at).
		Where(sq.Eq{"user_id": userID, "user_type": string(userType), "revoked": false}))
}

func (r *Repository) Touch(ctx context.Context, tokenHash string, at time.Time) error {
	ctx, span := r.tracer.Start(ctx, "pgstore.Touch")
	defer span.End()

	_, err := r.exec(ctx, "touch refresh token", r.db.Statement(ctx).
		Update(table).
		Set("last_used_at", at).
		Where(sq.Eq{"token_hash": tokenHash}))
	return err
}

func (r *Repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "pgstore.DeleteExpired")
	defer span.End()

	return r.exec(ctx, "delete expired refresh tokens", r.db.Statement(ctx).
		Delete(table).
		Where(sq.Lt{"expires_at": before}))
}

type execer interface {
	ExecContext(ctx context.Context) (sql.Result, error)
}

func (r *Repository) exec(ctx context.Context, op string, q execer) (int64, error) {
	res, err := q.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", refresh.ErrRepositoryUnavailable, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", refresh.ErrRepositoryUnavailable, op, err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation
}
