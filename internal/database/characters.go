package database

import (
	"fmt"
	"strings"

	"github.com/lawnchairsociety/chronicle/internal/rules"
)

// ErrCharacterNotFound is returned when no character of the vampire matches the given id.
var ErrCharacterNotFound = fmt.Errorf("character %w", ErrNotFound)

// Character is a non-player character in the vampire's story.
type Character struct {
	ID           int64               `json:"id"`
	VampireID    int64               `json:"vampire_id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Type         rules.CharacterType `json:"type"`
	Relationship rules.Relationship  `json:"relationship"`
	Dead         bool                `json:"dead"`
}

// CharacterFilter narrows ListCharacters. The zero value returns every character.
type CharacterFilter struct {
	Type        rules.CharacterType
	ExcludeDead bool
}

// NewCharacter holds the fields of a character about to be created.
type NewCharacter struct {
	Name         string
	Description  string
	Type         rules.CharacterType
	Relationship rules.Relationship
	Dead         bool
}

// CreateCharacter adds a character to the vampire's story. Unknown types and
// relationships fall back to mortal and neutral.
func (d *Database) CreateCharacter(vampireID int64, nc NewCharacter) (*Character, error) {
	c := &Character{
		VampireID:    vampireID,
		Name:         strings.TrimSpace(nc.Name),
		Description:  strings.TrimSpace(nc.Description),
		Type:         rules.ParseCharacterType(string(nc.Type)),
		Relationship: rules.ParseRelationship(string(nc.Relationship)),
		Dead:         nc.Dead,
	}
	id, err := d.insert(d.db,
		`INSERT INTO characters (vampire_id, name, description, character_type, relationship, dead)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.VampireID, c.Name, c.Description, string(c.Type), string(c.Relationship), c.Dead)
	if err != nil {
		return nil, fmt.Errorf("failed to create character: %w", err)
	}
	c.ID = id
	return c, nil
}

// GetCharacter retrieves one of the vampire's characters.
func (d *Database) GetCharacter(vampireID, characterID int64) (*Character, error) {
	chars, err := d.scanCharacters(
		`SELECT id, vampire_id, name, description, character_type, relationship, dead
		 FROM characters WHERE id = ? AND vampire_id = ?`,
		characterID, vampireID)
	if err != nil {
		return nil, err
	}
	if len(chars) == 0 {
		return nil, ErrCharacterNotFound
	}
	return chars[0], nil
}

// ListCharacters returns the vampire's characters in creation order.
func (d *Database) ListCharacters(vampireID int64, f CharacterFilter) ([]*Character, error) {
	query := `SELECT id, vampire_id, name, description, character_type, relationship, dead
		FROM characters WHERE vampire_id = ?`
	args := []any{vampireID}
	if f.Type != "" {
		query += ` AND character_type = ?`
		args = append(args, string(f.Type))
	}
	if f.ExcludeDead {
		query += ` AND dead = ?`
		args = append(args, false)
	}
	query += ` ORDER BY id`
	return d.scanCharacters(query, args...)
}

// LivingMortals returns the vampire's mortal characters that are not dead.
func (d *Database) LivingMortals(vampireID int64) ([]*Character, error) {
	return d.ListCharacters(vampireID, CharacterFilter{Type: rules.Mortal, ExcludeDead: true})
}

func (d *Database) scanCharacters(query string, args ...any) ([]*Character, error) {
	rows, err := d.query(d.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query characters: %w", err)
	}
	defer rows.Close()

	var chars []*Character
	for rows.Next() {
		c := &Character{}
		var charType, relationship string
		if err := rows.Scan(&c.ID, &c.VampireID, &c.Name, &c.Description, &charType, &relationship, &c.Dead); err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		c.Type = rules.ParseCharacterType(charType)
		c.Relationship = rules.ParseRelationship(relationship)
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// SetCharacterDead marks a character dead.
func (d *Database) SetCharacterDead(vampireID, characterID int64) error {
	result, err := d.exec(d.db,
		`UPDATE characters SET dead = ? WHERE id = ? AND vampire_id = ?`,
		true, characterID, vampireID)
	if err != nil {
		return fmt.Errorf("failed to kill character: %w", err)
	}
	return requireRow(result, ErrCharacterNotFound)
}

// UpdateCharacter persists the type, relationship and description of c.
func (d *Database) UpdateCharacter(c *Character) error {
	result, err := d.exec(d.db,
		`UPDATE characters SET description = ?, character_type = ?, relationship = ? WHERE id = ? AND vampire_id = ?`,
		c.Description, string(c.Type), string(c.Relationship), c.ID, c.VampireID)
	if err != nil {
		return fmt.Errorf("failed to update character: %w", err)
	}
	return requireRow(result, ErrCharacterNotFound)
}
