package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MemorySlots is the fixed number of memories every vampire owns.
const MemorySlots = 5

// ErrVampireNotFound is returned when no vampire matches the given id.
var ErrVampireNotFound = fmt.Errorf("vampire %w", ErrNotFound)

// Vampire is the player's protagonist and the owner of every other entity.
type Vampire struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	OriginDescription string    `json:"origin_description"`
	CurrentPrompt     int       `json:"current_prompt"`
	PromptEntry       string    `json:"prompt_entry"`
	GameEnded         bool      `json:"game_ended"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateVampire creates a vampire at prompt 1a together with its five empty
// memory slots. A non-blank origin becomes the first experience of memory 1.
func (d *Database) CreateVampire(name, origin string) (*Vampire, error) {
	name = strings.TrimSpace(name)
	origin = strings.TrimSpace(origin)

	var id int64
	err := d.withTx(func(tx *sql.Tx) error {
		var err error
		id, err = d.insert(tx,
			`INSERT INTO vampires (name, origin_description) VALUES (?, ?)`,
			name, origin)
		if err != nil {
			return fmt.Errorf("failed to insert vampire: %w", err)
		}

		var firstMemory int64
		for slot := 1; slot <= MemorySlots; slot++ {
			memoryID, err := d.insert(tx,
				`INSERT INTO memories (vampire_id, slot) VALUES (?, ?)`,
				id, slot)
			if err != nil {
				return fmt.Errorf("failed to create memory slot %d: %w", slot, err)
			}
			if slot == 1 {
				firstMemory = memoryID
			}
		}

		if origin != "" {
			if _, err := d.exec(tx,
				`INSERT INTO experiences (memory_id, position, body) VALUES (?, 1, ?)`,
				firstMemory, origin); err != nil {
				return fmt.Errorf("failed to record origin experience: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return d.GetVampire(id)
}

const vampireColumns = `id, name, origin_description, current_prompt, prompt_entry, game_ended, created_at, updated_at`

func scanVampire(row interface{ Scan(...any) error }) (*Vampire, error) {
	v := &Vampire{}
	err := row.Scan(&v.ID, &v.Name, &v.OriginDescription, &v.CurrentPrompt, &v.PromptEntry,
		&v.GameEnded, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetVampire retrieves a vampire by id.
func (d *Database) GetVampire(id int64) (*Vampire, error) {
	v, err := scanVampire(d.queryRow(d.db,
		`SELECT `+vampireColumns+` FROM vampires WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVampireNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vampire: %w", err)
	}
	return v, nil
}

// ListVampires returns every vampire, oldest first.
func (d *Database) ListVampires() ([]*Vampire, error) {
	rows, err := d.query(d.db, `SELECT `+vampireColumns+` FROM vampires ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list vampires: %w", err)
	}
	defer rows.Close()

	var vampires []*Vampire
	for rows.Next() {
		v, err := scanVampire(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vampire: %w", err)
		}
		vampires = append(vampires, v)
	}
	return vampires, rows.Err()
}

// SetGameEnded marks the vampire's story as finished.
func (d *Database) SetGameEnded(id int64) error {
	result, err := d.exec(d.db,
		`UPDATE vampires SET game_ended = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		true, id)
	if err != nil {
		return fmt.Errorf("failed to end game: %w", err)
	}
	return requireRow(result, ErrVampireNotFound)
}

// DeleteVampire removes a vampire and, by cascade, everything it owns.
func (d *Database) DeleteVampire(id int64) error {
	result, err := d.exec(d.db, `DELETE FROM vampires WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vampire: %w", err)
	}
	return requireRow(result, ErrVampireNotFound)
}

// requireRow returns notFound when result affected no rows.
func requireRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
