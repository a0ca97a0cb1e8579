package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type sqliteDialect struct{}

func (sqliteDialect) DriverName() string { return string(DialectSQLite) }

func (sqliteDialect) DSN(cfg Config) (string, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return cfg.SQLitePath, nil
}

// Prepare pins the pool to one connection: PRAGMA state is per connection
// and a chronicle is written by one player at a time anyway.
func (sqliteDialect) Prepare(db *sql.DB, _ Config) error {
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

func (sqliteDialect) BindVar(int) string { return "?" }

func (sqliteDialect) Returning(string) string { return "" }

func (sqliteDialect) SerialKey() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

// ResyncSerial is empty: sqlite_sequence already tracks explicit ids.
func (sqliteDialect) ResyncSerial(string) string { return "" }

func (sqliteDialect) IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
