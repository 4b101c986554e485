// Package store persists run history for the QC engine: one row per
// pipeline invocation plus the diagnostics and flag-token counts it
// produced, so a fleet operator can answer "how has this station's data
// quality trended" without re-reading every output CSV. It also exposes a
// live admin surface (table stats, SQL console, on-demand backup) the way
// the run-history sibling it was adapted from does.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite connection holding QC run history.
type Store struct {
	*sql.DB
}

//go:embed schema.sql
var schemaSQL string

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DevMode switches migrations to the local filesystem for hot-reloading
// during development; production binaries use the embedded copy.
var DevMode = false

func getMigrationsFS() (fs.FS, error) {
	if DevMode {
		return os.DirFS("internal/store/migrations"), nil
	}
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("store: embedded migrations: %w", err)
	}
	return sub, nil
}

// applyPragmas sets the SQLite connection parameters every run-history
// database needs regardless of whether it was just created or opened from
// an existing file: WAL so a concurrent admin-route reader never blocks a
// run in progress, and a busy_timeout so the two don't immediately collide.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("store: %s: %w", p, err)
		}
	}
	return nil
}

// Open opens (creating if necessary) the run-history database at path,
// applies connection pragmas, and brings a brand-new database straight to
// the embedded schema. An existing database is left at whatever migration
// version it is already at; call MigrateUp to advance it.
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := applyPragmas(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	s := &Store{sqlDB}

	var tableCount int
	if err := sqlDB.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
	`).Scan(&tableCount); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("store: count tables: %w", err)
	}

	if tableCount == 0 {
		if _, err := sqlDB.Exec(schemaSQL); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("store: apply schema: %w", err)
		}
	}

	return s, nil
}
