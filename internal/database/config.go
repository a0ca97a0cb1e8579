package database

import (
	"fmt"
	"strings"
	"time"
)

// Config selects a backend and carries its connection settings.
type Config struct {
	Driver     string // "sqlite" or "postgres"
	SQLitePath string
	Postgres   PostgresConfig
}

// PostgresConfig is the lib/pq connection and pool configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig stores chronicles in a SQLite file at sqlitePath.
func DefaultConfig(sqlitePath string) Config {
	return Config{Driver: string(DialectSQLite), SQLitePath: sqlitePath}
}

// DefaultPostgresConfig points at a local server with a small pool.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DSN renders the keyword/value connection string lib/pq expects.
func (c PostgresConfig) DSN() string {
	ssl := c.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	parts := []string{
		"host=" + c.Host,
		fmt.Sprintf("port=%d", c.Port),
		"user=" + c.User,
		"password=" + c.Password,
		"dbname=" + c.Database,
		"sslmode=" + ssl,
	}
	return strings.Join(parts, " ")
}
