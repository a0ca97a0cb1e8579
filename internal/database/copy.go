package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// copyTables lists every table with its columns, parents before children.
var copyTables = []struct {
	name    string
	columns []string
}{
	{"vampires", []string{"id", "name", "origin_description", "current_prompt", "prompt_entry", "game_ended", "created_at", "updated_at"}},
	{"memories", []string{"id", "vampire_id", "slot", "title", "in_diary", "lost"}},
	{"experiences", []string{"id", "memory_id", "position", "body", "created_at"}},
	{"skills", []string{"id", "vampire_id", "name", "description", "checked", "lost", "created_at"}},
	{"resources", []string{"id", "vampire_id", "name", "description", "stationary", "lost", "created_at"}},
	{"characters", []string{"id", "vampire_id", "name", "description", "character_type", "relationship", "dead", "created_at"}},
	{"marks", []string{"id", "vampire_id", "description", "how_concealed", "removed", "created_at"}},
	{"diaries", []string{"id", "vampire_id", "description", "lost", "created_at"}},
	{"game_sessions", []string{"id", "vampire_id", "prompt_number", "prompt_entry", "response", "d10", "d6", "next_prompt", "created_at"}},
	{"prompts", []string{"id", "number", "entry", "body", "actions"}},
}

// TableCount reports how many rows of a table were copied.
type TableCount struct {
	Table string
	Rows  int64
}

// CopyTo copies every row into dst, keeping ids. Rows whose id or unique key
// already exists in dst are skipped. With dryRun set, rows are counted but
// nothing is written.
func (d *Database) CopyTo(dst *Database, dryRun bool) ([]TableCount, error) {
	var counts []TableCount
	err := dst.withTx(func(tx *sql.Tx) error {
		for _, t := range copyTables {
			n, err := d.copyTable(dst, tx, t.name, t.columns, dryRun)
			if err != nil {
				return fmt.Errorf("failed to copy %s: %w", t.name, err)
			}
			counts = append(counts, TableCount{Table: t.name, Rows: n})
		}
		if dryRun {
			return nil
		}
		return dst.resetSequences(tx)
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (d *Database) copyTable(dst *Database, tx *sql.Tx, table string, columns []string, dryRun bool) (int64, error) {
	cols := strings.Join(columns, ", ")
	rows, err := d.query(d.db, `SELECT `+cols+` FROM `+table+` ORDER BY id`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	insert := `INSERT INTO ` + table + ` (` + cols + `) VALUES (?` +
		strings.Repeat(", ?", len(columns)-1) + `) ON CONFLICT DO NOTHING`

	var copied int64
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return copied, err
		}
		if dryRun {
			copied++
			continue
		}

		result, err := dst.exec(tx, insert, values...)
		if err != nil {
			return copied, err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return copied, err
		}
		copied += n
	}
	return copied, rows.Err()
}

// resetSequences moves id generators past the copied ids where the backend
// needs telling.
func (d *Database) resetSequences(tx *sql.Tx) error {
	for _, t := range copyTables {
		stmt := d.dialect.ResyncSerial(t.name)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", t.name, err)
		}
	}
	return nil
}
