package database

import (
	"fmt"
	"strings"
)

// ErrMarkNotFound is returned when no mark of the vampire matches the given id.
var ErrMarkNotFound = fmt.Errorf("mark %w", ErrNotFound)

// Mark is a supernatural stigma and how the vampire hides it.
type Mark struct {
	ID           int64  `json:"id"`
	VampireID    int64  `json:"vampire_id"`
	Description  string `json:"description"`
	HowConcealed string `json:"how_concealed"`
	Removed      bool   `json:"removed"`
}

// CreateMark adds a new mark to the vampire.
func (d *Database) CreateMark(vampireID int64, description, howConcealed string) (*Mark, error) {
	m := &Mark{
		VampireID:    vampireID,
		Description:  strings.TrimSpace(description),
		HowConcealed: strings.TrimSpace(howConcealed),
	}
	id, err := d.insert(d.db,
		`INSERT INTO marks (vampire_id, description, how_concealed) VALUES (?, ?, ?)`,
		m.VampireID, m.Description, m.HowConcealed)
	if err != nil {
		return nil, fmt.Errorf("failed to create mark: %w", err)
	}
	m.ID = id
	return m, nil
}

// GetMark retrieves one of the vampire's marks.
func (d *Database) GetMark(vampireID, markID int64) (*Mark, error) {
	marks, err := d.scanMarks(
		`SELECT id, vampire_id, description, how_concealed, removed FROM marks WHERE id = ? AND vampire_id = ?`,
		markID, vampireID)
	if err != nil {
		return nil, err
	}
	if len(marks) == 0 {
		return nil, ErrMarkNotFound
	}
	return marks[0], nil
}

// ListMarks returns the vampire's marks in creation order, optionally
// leaving out removed ones.
func (d *Database) ListMarks(vampireID int64, excludeRemoved bool) ([]*Mark, error) {
	query := `SELECT id, vampire_id, description, how_concealed, removed FROM marks WHERE vampire_id = ?`
	args := []any{vampireID}
	if excludeRemoved {
		query += ` AND removed = ?`
		args = append(args, false)
	}
	query += ` ORDER BY id`
	return d.scanMarks(query, args...)
}

func (d *Database) scanMarks(query string, args ...any) ([]*Mark, error) {
	rows, err := d.query(d.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query marks: %w", err)
	}
	defer rows.Close()

	var marks []*Mark
	for rows.Next() {
		m := &Mark{}
		if err := rows.Scan(&m.ID, &m.VampireID, &m.Description, &m.HowConcealed, &m.Removed); err != nil {
			return nil, fmt.Errorf("failed to scan mark: %w", err)
		}
		marks = append(marks, m)
	}
	return marks, rows.Err()
}

// SetMarkRemoved marks a mark as removed.
func (d *Database) SetMarkRemoved(vampireID, markID int64) error {
	result, err := d.exec(d.db,
		`UPDATE marks SET removed = ? WHERE id = ? AND vampire_id = ?`,
		true, markID, vampireID)
	if err != nil {
		return fmt.Errorf("failed to remove mark: %w", err)
	}
	return requireRow(result, ErrMarkNotFound)
}
