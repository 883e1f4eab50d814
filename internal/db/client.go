package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/MrEthical07/goGuard/logging"
)

// Config holds the pool settings.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	TracingEnabled  bool
}

// Client owns the pgx pool and the database/sql views over it.
type Client struct {
	pool *pgxpool.Pool
	db   *sql.DB
	x    *sqlx.DB
	log  logging.Logger
}

func poolConfig(cfg Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("DSN validation failed: %w", err)
	}
	if cfg.TracingEnabled {
		// Uses the global TracerProvider installed by internal/tracing.
		pc.ConnConfig.Tracer = otelpgx.NewTracer()
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
		pc.MaxConnLifetimeJitter = cfg.MaxConnLifetime / 10
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	return pc, nil
}

// NewClient opens the pool and pings the database.
func NewClient(ctx context.Context, cfg Config, log logging.Logger) (*Client, error) {
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}
	if cfg.TracingEnabled {
		if err := otelpgx.RecordStats(pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to start metrics collection for database: %w", err)
		}
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		pool.Close()
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	if log == nil {
		log = logging.NewNop()
	}
	log.Infow("database connected", "max_conns", pc.MaxConns, "tracing", cfg.TracingEnabled)

	return &Client{
		pool: pool,
		db:   db,
		x:    sqlx.NewDb(db, "pgx"),
		log:  log,
	}, nil
}

// Pool returns the native pool, used by refresh/pgstore.
func (c *Client) Pool() *pgxpool.Pool { return c.pool }

// SQLX returns the sqlx handle, used by the tenant and account repositories.
func (c *Client) SQLX() *sqlx.DB { return c.x }

// Statement returns a squirrel builder running against the pool. It
// satisfies refresh/pgstore.Runner.
func (c *Client) Statement(_ context.Context) sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(c.db)
}

// Ping checks connectivity, for health endpoints.
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close releases the sql.DB and then the pool.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.db != nil {
		_ = c.db.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
}
