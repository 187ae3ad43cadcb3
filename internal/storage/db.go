// Package storage archives debug reports in a local sqlite database so past
// runs can be listed, re-rendered and matched against new errors.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// InitDB opens the report archive inside dataDir, creating the directory
// when needed.
func InitDB(dataDir string) (*sql.DB, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get user home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".debuggenie")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return OpenDB(filepath.Join(dataDir, "reports.db"))
}

func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id           TEXT PRIMARY KEY,
		created_at   INTEGER NOT NULL,
		signature    TEXT NOT NULL,
		context_type TEXT,
		error_text   TEXT,
		root_cause   TEXT,
		confidence   REAL,
		solutions    INTEGER,
		result       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_signature ON reports(signature);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
	`

	_, err := db.Exec(schema)
	return err
}
