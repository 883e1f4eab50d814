// Package db opens the PostgreSQL pool shared by the goguard service.
//
// One pgx pool backs three views: the pool itself for refresh/pgstore, a
// database/sql handle for squirrel, and sqlx for struct scanning.
package db
