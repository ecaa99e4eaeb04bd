package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// pragmas applied right after opening. WAL keeps page reads unblocked
// while a save is in flight, the busy timeout rides out scs session
// writes, and foreign keys back the plan-cache and template tables.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Open opens the console database at dbPath (":memory:" in tests). SQLite
// is single-writer, so the pool is capped at one connection: concurrent
// handlers queue on it instead of failing with SQLITE_BUSY.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("database: exec %q: %w", p, err)
		}
	}

	return db, nil
}
