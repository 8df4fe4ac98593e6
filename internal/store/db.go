// internal/store/db.go
//
// Database helpers for the Mastermind server and CLI.
// Responsibilities:
//   - Opening SQLite database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying the embedded migrations (idempotent, recorded in _migrations).

package store

import (
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

/**
 * Open opens (and creates if missing) a SQLite database file.
 *
 * - Ensures parent directory exists for relative DSNs (e.g. ./data/mastermind.db).
 * - Configures busy timeout and WAL journaling mode.
 * - Enforces foreign keys.
 */
func Open(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "mkdir %s", dir)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set pragmas")
	}
	return db, nil
}

/**
 * Migrate applies *.sql files from migrations in lexical order.
 *
 * - Uses a _migrations table to track applied files.
 * - Skips files already recorded.
 * - Scripts that manage their own transaction (BEGIN TRANSACTION or
 *   PRAGMA FOREIGN_KEYS=OFF) run outside the outer transaction.
 */
func Migrate(db *sql.DB, migrations fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return errors.Wrap(err, "create _migrations")
	}

	files, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return errors.Wrap(err, "list migrations")
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return errors.Wrap(err, "query _migrations")
		}

		raw, err := fs.ReadFile(migrations, f)
		if err != nil {
			return errors.Wrapf(err, "read %s", f)
		}
		if err := apply(db, f, string(raw)); err != nil {
			return err
		}
	}
	return nil
}

func apply(db *sql.DB, name, sqlText string) error {
	upper := strings.ToUpper(sqlText)
	selfManaged := strings.Contains(upper, "BEGIN TRANSACTION") ||
		strings.Contains(upper, "PRAGMA FOREIGN_KEYS=OFF") ||
		strings.Contains(upper, "PRAGMA FOREIGN_KEYS = OFF")

	if selfManaged {
		if _, err := db.Exec(sqlText); err != nil {
			return errors.Wrapf(err, "apply %s", name)
		}
		if _, err := db.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name); err != nil {
			return errors.Wrapf(err, "record %s", name)
		}
		log.Info().Str("migration", name).Msg("applied (self-managed)")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	if _, err := tx.Exec(sqlText); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "apply %s", name)
	}
	if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "record %s", name)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit %s", name)
	}
	log.Info().Str("migration", name).Msg("applied")
	return nil
}
