package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSkillNotFound is returned when no skill of the vampire matches the given id.
	ErrSkillNotFound = fmt.Errorf("skill %w", ErrNotFound)

	// ErrSkillAlreadyChecked is returned by CheckSkill for a skill that was checked before.
	ErrSkillAlreadyChecked = errors.New("skill already checked")
)

// Skill is a named capability of a vampire.
type Skill struct {
	ID          int64  `json:"id"`
	VampireID   int64  `json:"vampire_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Checked     bool   `json:"checked"`
	Lost        bool   `json:"lost"`
}

// SkillFilter narrows ListSkills. The zero value returns every skill.
type SkillFilter struct {
	ExcludeLost    bool
	ExcludeChecked bool
}

// CreateSkill adds a new skill to the vampire.
func (d *Database) CreateSkill(vampireID int64, name, description string) (*Skill, error) {
	s := &Skill{
		VampireID:   vampireID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
	id, err := d.insert(d.db,
		`INSERT INTO skills (vampire_id, name, description) VALUES (?, ?, ?)`,
		s.VampireID, s.Name, s.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to create skill: %w", err)
	}
	s.ID = id
	return s, nil
}

// GetOrCreateSkill finds the vampire's skill with exactly this name, creating
// it when absent. The boolean reports whether a skill was created.
func (d *Database) GetOrCreateSkill(vampireID int64, name, description string) (*Skill, bool, error) {
	name = strings.TrimSpace(name)

	var skill *Skill
	var created bool
	err := d.withTx(func(tx *sql.Tx) error {
		skills, err := d.scanSkills(tx,
			`SELECT id, vampire_id, name, description, checked, lost FROM skills
			 WHERE vampire_id = ? AND name = ? ORDER BY id LIMIT 1`,
			vampireID, name)
		if err != nil {
			return err
		}
		if len(skills) > 0 {
			skill = skills[0]
			return nil
		}

		skill = &Skill{VampireID: vampireID, Name: name, Description: strings.TrimSpace(description)}
		skill.ID, err = d.insert(tx,
			`INSERT INTO skills (vampire_id, name, description) VALUES (?, ?, ?)`,
			skill.VampireID, skill.Name, skill.Description)
		if err != nil {
			return fmt.Errorf("failed to create skill: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return skill, created, nil
}

// GetSkill retrieves one of the vampire's skills.
func (d *Database) GetSkill(vampireID, skillID int64) (*Skill, error) {
	skills, err := d.scanSkills(d.db,
		`SELECT id, vampire_id, name, description, checked, lost FROM skills WHERE id = ? AND vampire_id = ?`,
		skillID, vampireID)
	if err != nil {
		return nil, err
	}
	if len(skills) == 0 {
		return nil, ErrSkillNotFound
	}
	return skills[0], nil
}

// ListSkills returns the vampire's skills in creation order.
func (d *Database) ListSkills(vampireID int64, f SkillFilter) ([]*Skill, error) {
	query := `SELECT id, vampire_id, name, description, checked, lost FROM skills WHERE vampire_id = ?`
	args := []any{vampireID}
	if f.ExcludeLost {
		query += ` AND lost = ?`
		args = append(args, false)
	}
	if f.ExcludeChecked {
		query += ` AND checked = ?`
		args = append(args, false)
	}
	query += ` ORDER BY id`
	return d.scanSkills(d.db, query, args...)
}

func (d *Database) scanSkills(q querier, query string, args ...any) ([]*Skill, error) {
	rows, err := d.query(q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query skills: %w", err)
	}
	defer rows.Close()

	var skills []*Skill
	for rows.Next() {
		s := &Skill{}
		if err := rows.Scan(&s.ID, &s.VampireID, &s.Name, &s.Description, &s.Checked, &s.Lost); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// CheckSkill marks a skill as used. Checking twice returns ErrSkillAlreadyChecked.
func (d *Database) CheckSkill(vampireID, skillID int64) error {
	result, err := d.exec(d.db,
		`UPDATE skills SET checked = ? WHERE id = ? AND vampire_id = ? AND checked = ?`,
		true, skillID, vampireID, false)
	if err != nil {
		return fmt.Errorf("failed to check skill: %w", err)
	}
	if err := requireRow(result, ErrSkillNotFound); err != nil {
		if _, getErr := d.GetSkill(vampireID, skillID); getErr == nil {
			return ErrSkillAlreadyChecked
		}
		return err
	}
	return nil
}

// SetSkillLost strikes out a skill.
func (d *Database) SetSkillLost(vampireID, skillID int64) error {
	result, err := d.exec(d.db,
		`UPDATE skills SET lost = ? WHERE id = ? AND vampire_id = ?`,
		true, skillID, vampireID)
	if err != nil {
		return fmt.Errorf("failed to lose skill: %w", err)
	}
	return requireRow(result, ErrSkillNotFound)
}
