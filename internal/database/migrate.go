package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations brings the console schema (users, session_templates,
// plan_cache, scs sessions) up to date and returns the resulting version.
// Goose's per-migration chatter is silenced so test runs stay quiet; the
// caller logs a single line instead. Call once on startup before the HTTP
// server accepts requests.
func RunMigrations(db *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("database: set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return 0, fmt.Errorf("database: run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("database: read schema version: %w", err)
	}
	return version, nil
}
