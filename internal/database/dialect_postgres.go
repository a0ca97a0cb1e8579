package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type postgresDialect struct{}

func (postgresDialect) DriverName() string { return string(DialectPostgres) }

func (postgresDialect) DSN(cfg Config) (string, error) {
	if cfg.Postgres.Database == "" {
		return "", errors.New("postgres database name is required")
	}
	return cfg.Postgres.DSN(), nil
}

func (postgresDialect) Prepare(db *sql.DB, cfg Config) error {
	pool := cfg.Postgres
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return db.Ping()
}

func (postgresDialect) BindVar(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) Returning(column string) string { return " RETURNING " + column }

func (postgresDialect) SerialKey() string { return "BIGSERIAL PRIMARY KEY" }

func (postgresDialect) ResyncSerial(table string) string {
	return fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`,
		table)
}

// IsUniqueViolation matches SQLSTATE 23505 however the driver phrases it.
func (postgresDialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"23505", "duplicate key", "unique constraint"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
