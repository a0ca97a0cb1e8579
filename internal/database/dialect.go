package database

import "database/sql"

// Dialect captures what differs between the SQLite and PostgreSQL backends.
// Store code is written once against SQLite syntax with ? markers and relies
// on the dialect for the rest.
type Dialect interface {
	// DriverName is the database/sql driver registered for the backend.
	DriverName() string

	// DSN turns cfg into a connection string, preparing the filesystem when
	// the backend is file based.
	DSN(cfg Config) (string, error)

	// Prepare tunes a freshly opened handle: pool limits, pragmas.
	Prepare(db *sql.DB, cfg Config) error

	// BindVar is the marker for the n-th bound argument, counting from 1.
	BindVar(n int) string

	// Returning is appended to an INSERT so that it yields column. It is
	// empty when the driver reports new ids through LastInsertId.
	Returning(column string) string

	// SerialKey is the column definition of a surrogate id.
	SerialKey() string

	// ResyncSerial moves the id generator of table past its highest id after
	// rows were inserted with explicit ids. Empty when the backend keeps up
	// on its own.
	ResyncSerial(table string) string

	IsUniqueViolation(err error) bool
}

// DialectType names a supported backend.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect returns the dialect for t. Anything unrecognized gets SQLite.
func NewDialect(t DialectType) Dialect {
	if t == DialectPostgres {
		return postgresDialect{}
	}
	return sqliteDialect{}
}
