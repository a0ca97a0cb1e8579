// migrate-to-postgres copies a chronicle SQLite database into PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/chronicle.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user chronicle \
//	    -pg-password chronicle \
//	    -pg-database chronicle
package main

import (
	"flag"
	"log"

	"github.com/lawnchairsociety/chronicle/internal/database"
)

func main() {
	sqlitePath := flag.String("sqlite", "data/chronicle.db", "Path to SQLite database")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "chronicle", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "chronicle", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "chronicle", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	flag.Parse()

	log.Println("SQLite to PostgreSQL Migration Tool")
	log.Println("====================================")

	log.Printf("Opening SQLite database: %s", *sqlitePath)
	src, err := database.Open(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite database: %v", err)
	}
	defer src.Close()

	pg := database.DefaultPostgresConfig()
	pg.Host = *pgHost
	pg.Port = *pgPort
	pg.User = *pgUser
	pg.Password = *pgPassword
	pg.Database = *pgDatabase
	pg.SSLMode = *pgSSLMode

	// Opening runs the schema migrations on PostgreSQL.
	log.Printf("Opening PostgreSQL database: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
	dst, err := database.OpenWithConfig(database.Config{Driver: "postgres", Postgres: pg})
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL database: %v", err)
	}
	defer dst.Close()

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	}

	counts, err := src.CopyTo(dst, *dryRun)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	var totalRows int64
	for _, c := range counts {
		log.Printf("Migrated table %s: %d rows", c.Table, c.Rows)
		totalRows += c.Rows
	}

	log.Println("====================================")
	log.Printf("Migration complete! Total rows migrated: %d", totalRows)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}
