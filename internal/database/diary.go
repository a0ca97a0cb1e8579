package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDiaryNotFound is returned when the vampire has no diary row.
	ErrDiaryNotFound = fmt.Errorf("diary %w", ErrNotFound)

	// ErrDiaryExists is returned when creating a diary while one is still kept.
	ErrDiaryExists = errors.New("diary already exists")

	// ErrDiaryFull is returned when the diary already holds MaxDiaryMemories memories.
	ErrDiaryFull = errors.New("diary is full")
)

// MaxDiaryMemories is how many memories a diary can hold.
const MaxDiaryMemories = 4

// Diary is the single physical record a vampire may keep of lost-proof memories.
type Diary struct {
	ID          int64  `json:"id"`
	VampireID   int64  `json:"vampire_id"`
	Description string `json:"description"`
	Lost        bool   `json:"lost"`
}

// GetDiary returns the vampire's diary, lost or not.
func (d *Database) GetDiary(vampireID int64) (*Diary, error) {
	return d.getDiary(d.db, vampireID)
}

func (d *Database) getDiary(q querier, vampireID int64) (*Diary, error) {
	diary := &Diary{}
	err := d.queryRow(q,
		`SELECT id, vampire_id, description, lost FROM diaries WHERE vampire_id = ?`,
		vampireID).Scan(&diary.ID, &diary.VampireID, &diary.Description, &diary.Lost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDiaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get diary: %w", err)
	}
	return diary, nil
}

// CreateDiary gives the vampire a diary. A lost diary is replaced by the new
// one; a kept diary yields ErrDiaryExists.
func (d *Database) CreateDiary(vampireID int64, description string) (*Diary, error) {
	description = strings.TrimSpace(description)

	var diary *Diary
	err := d.withTx(func(tx *sql.Tx) error {
		existing, err := d.getDiary(tx, vampireID)
		switch {
		case err == nil && !existing.Lost:
			return ErrDiaryExists
		case err == nil:
			if _, err := d.exec(tx,
				`UPDATE diaries SET description = ?, lost = ? WHERE id = ?`,
				description, false, existing.ID); err != nil {
				return fmt.Errorf("failed to replace diary: %w", err)
			}
			diary = &Diary{ID: existing.ID, VampireID: vampireID, Description: description}
			return nil
		case !errors.Is(err, ErrDiaryNotFound):
			return err
		}

		id, err := d.insert(tx,
			`INSERT INTO diaries (vampire_id, description) VALUES (?, ?)`,
			vampireID, description)
		if err != nil {
			if d.dialect.IsUniqueViolation(err) {
				return ErrDiaryExists
			}
			return fmt.Errorf("failed to create diary: %w", err)
		}
		diary = &Diary{ID: id, VampireID: vampireID, Description: description}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return diary, nil
}

// LoseDiary marks the diary lost and, with it, every memory archived in it.
func (d *Database) LoseDiary(vampireID int64) error {
	return d.withTx(func(tx *sql.Tx) error {
		result, err := d.exec(tx,
			`UPDATE diaries SET lost = ? WHERE vampire_id = ? AND lost = ?`,
			true, vampireID, false)
		if err != nil {
			return fmt.Errorf("failed to lose diary: %w", err)
		}
		if err := requireRow(result, ErrDiaryNotFound); err != nil {
			return err
		}

		if _, err := d.exec(tx,
			`UPDATE memories SET lost = ? WHERE vampire_id = ? AND in_diary = ?`,
			true, vampireID, true); err != nil {
			return fmt.Errorf("failed to lose diary memories: %w", err)
		}
		return nil
	})
}

// MoveMemoryToDiary archives one of the vampire's memories into its kept diary.
func (d *Database) MoveMemoryToDiary(vampireID, memoryID int64) error {
	return d.withTx(func(tx *sql.Tx) error {
		diary, err := d.getDiary(tx, vampireID)
		if err != nil {
			return err
		}
		if diary.Lost {
			return ErrDiaryNotFound
		}

		stored, err := d.count(tx,
			`SELECT COUNT(*) FROM memories WHERE vampire_id = ? AND in_diary = ? AND lost = ?`,
			vampireID, true, false)
		if err != nil {
			return fmt.Errorf("failed to count diary memories: %w", err)
		}
		if stored >= MaxDiaryMemories {
			return ErrDiaryFull
		}

		result, err := d.exec(tx,
			`UPDATE memories SET in_diary = ? WHERE id = ? AND vampire_id = ? AND lost = ?`,
			true, memoryID, vampireID, false)
		if err != nil {
			return fmt.Errorf("failed to move memory to diary: %w", err)
		}
		return requireRow(result, ErrMemoryNotFound)
	})
}
