package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/fikri-aulia/tpq-santri-api/pkg/config"
)

// NewSQLite opens (creating if necessary) the embedded SQLite database file.
// Foreign keys are enabled so attendance rows are cascade-deleted with their
// student; WAL keeps readers unblocked during writes.
func NewSQLite(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// The modernc.org/sqlite driver uses _pragma=name(value) DSN syntax.
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		cfg.Path,
		cfg.BusyTimeout.Milliseconds(),
	)

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// A single local file serves a single process; more than one writer
	// connection only manufactures SQLITE_BUSY.
	maxConns := cfg.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// NewMemory opens a throwaway in-memory database, used by tests that need a
// real SQL engine (the schema migrator in particular).
func NewMemory() (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	// In-memory databases with modernc.org/sqlite don't share state across
	// connections; keep the pool at exactly one.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
