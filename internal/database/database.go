// Package database provides SQLite- and PostgreSQL-backed persistence for
// vampire chronicles, their owned entities, turn logs and prompt content.
package database

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNotFound is wrapped by every lookup failure in this package.
var ErrNotFound = errors.New("not found")

// Database wraps the SQL connection and provides persistence operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the database selected by cfg.Driver and runs migrations.
func OpenWithConfig(cfg Config) (*Database, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	dsn, err := dialect.DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := dialect.Prepare(db, cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	d := &Database{db: db, dialect: dialect}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	pk := d.dialect.SerialKey()

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS vampires (
			id ` + pk + `,
			name TEXT NOT NULL,
			origin_description TEXT NOT NULL DEFAULT '',
			current_prompt INTEGER NOT NULL DEFAULT 1,
			prompt_entry TEXT NOT NULL DEFAULT 'a',
			game_ended BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Memory slots 1-5
		`CREATE TABLE IF NOT EXISTS memories (
			id ` + pk + `,
			vampire_id BIGINT NOT NULL REFERENCES vampires(id) ON DELETE CASCADE,
			slot INTEGER NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			in_diary BOOLEAN NOT NULL DEFAULT FALSE,
			lost BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE(vampire_id, slot)
		)`,

		// Experiences 1-3 per memory
		`CREATE TABLE IF NOT EXISTS experiences (
			id ` + pk + `,
			memory_id BIGINT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(memory_id, position)
		)`,

		`CREATE TABLE IF NOT EXISTS skills (
			id ` + pk + `,
			vampire_id BIGINT NOT NULL REFERENCES vampires(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			checked BOOLEAN NOT NULL DEFAULT FALSE,
			lost BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS resources (
			id ` + pk + `,
			vampire_id BIGINT NOT NULL REFERENCES vampires(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			stationary BOOLEAN NOT NULL DEFAULT FALSE,
			lost BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Non-player characters
		`CREATE TABLE IF NOT EXISTS characters (
			id ` + pk + `,
			vampire_id BIGINT NOT NULL REFERENCES vampires(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			character_type TEXT NOT NULL DEFAULT 'mortal',
			relationship TEXT NOT NULL DEFAULT 'neutral',
			dead BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS marks (
			id ` + pk + `,
			vampire_id BIGINT NOT NULL REFERENCES vampires(id) ON DELETE CASCADE,
			description TEXT NOT NULL,
			how_concealed TEXT NOT NULL DEFAULT '',
			removed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS diaries (
			id ` + pk + `,
			vampire_id BIGINT NOT NULL UNIQUE REFERENCES vampires(id) ON DELETE CASCADE,
			description TEXT NOT NULL DEFAULT '',
			lost BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Immutable turn log
		`CREATE TABLE IF NOT EXISTS game_sessions (
			id ` + pk + `,
			vampire_id BIGINT NOT NULL REFERENCES vampires(id) ON DELETE CASCADE,
			prompt_number INTEGER NOT NULL,
			prompt_entry TEXT NOT NULL,
			response TEXT NOT NULL,
			d10 INTEGER NOT NULL,
			d6 INTEGER NOT NULL,
			next_prompt INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Shared prompt content and rule-table entries
		`CREATE TABLE IF NOT EXISTS prompts (
			id ` + pk + `,
			number INTEGER NOT NULL,
			entry TEXT NOT NULL,
			body TEXT NOT NULL,
			actions TEXT NOT NULL DEFAULT '[]',
			UNIQUE(number, entry)
		)`,

		// Indexes for common queries
		`CREATE INDEX IF NOT EXISTS idx_memories_vampire_id ON memories(vampire_id)`,
		`CREATE INDEX IF NOT EXISTS idx_experiences_memory_id ON experiences(memory_id)`,
		`CREATE INDEX IF NOT EXISTS idx_skills_vampire_id ON skills(vampire_id)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_vampire_id ON resources(vampire_id)`,
		`CREATE INDEX IF NOT EXISTS idx_characters_vampire_id ON characters(vampire_id)`,
		`CREATE INDEX IF NOT EXISTS idx_marks_vampire_id ON marks(vampire_id)`,
		`CREATE INDEX IF NOT EXISTS idx_game_sessions_vampire_prompt ON game_sessions(vampire_id, prompt_number)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Dialect returns the SQL dialect in use.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// withTx runs fn inside a transaction, committing when fn returns nil.
func (d *Database) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (d *Database) exec(q querier, query string, args ...any) (sql.Result, error) {
	return q.Exec(rebind(d.dialect, query), args...)
}

func (d *Database) query(q querier, query string, args ...any) (*sql.Rows, error) {
	return q.Query(rebind(d.dialect, query), args...)
}

func (d *Database) queryRow(q querier, query string, args ...any) *sql.Row {
	return q.QueryRow(rebind(d.dialect, query), args...)
}

// insert runs an INSERT and returns the new row's id.
func (d *Database) insert(q querier, query string, args ...any) (int64, error) {
	returning := d.dialect.Returning("id")
	if returning == "" {
		result, err := q.Exec(rebind(d.dialect, query), args...)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	var id int64
	if err := q.QueryRow(rebind(d.dialect, query)+returning, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// count runs a COUNT(*) style query.
func (d *Database) count(q querier, query string, args ...any) (int, error) {
	var n int
	if err := d.queryRow(q, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
