package migrations

import (
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Migrations branch on the engine where Postgres and SQLite disagree,
// mainly around JSON column types and defaults.

// IsSQLite reports whether the registry runs on SQLite.
func IsSQLite(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.SQLite
}

// IsPostgres reports whether the registry runs on Postgres.
func IsPostgres(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.PG
}
