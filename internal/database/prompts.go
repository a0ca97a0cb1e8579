package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lawnchairsociety/chronicle/internal/rules"
)

// ErrPromptNotFound is returned when no prompt matches the given number and entry.
var ErrPromptNotFound = fmt.Errorf("prompt %w", ErrNotFound)

// GetPrompt retrieves a prompt and its rule-table entry.
func (d *Database) GetPrompt(id rules.PromptID) (*rules.Prompt, error) {
	var body, actions string
	err := d.queryRow(d.db,
		`SELECT body, actions FROM prompts WHERE number = ? AND entry = ?`,
		id.Number, id.Entry).Scan(&body, &actions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPromptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}

	descriptors, err := rules.DecodeActions(actions)
	if err != nil {
		return nil, fmt.Errorf("prompt %s: %w", id, err)
	}
	return &rules.Prompt{ID: id, Text: body, Actions: descriptors}, nil
}

// UpsertPrompt inserts a prompt or replaces the text and actions of an existing one.
func (d *Database) UpsertPrompt(p rules.Prompt) error {
	return d.upsertPrompt(d.db, p)
}

func (d *Database) upsertPrompt(q querier, p rules.Prompt) error {
	if err := rules.ValidateAll(p.Actions); err != nil {
		return fmt.Errorf("prompt %s: %w", p.ID, err)
	}
	actions, err := rules.EncodeActions(p.Actions)
	if err != nil {
		return err
	}

	_, err = d.exec(q, `
		INSERT INTO prompts (number, entry, body, actions) VALUES (?, ?, ?, ?)
		ON CONFLICT (number, entry) DO UPDATE SET body = excluded.body, actions = excluded.actions`,
		p.ID.Number, p.ID.Entry, p.Text, actions)
	if err != nil {
		return fmt.Errorf("failed to upsert prompt %s: %w", p.ID, err)
	}
	return nil
}

// SeedPrompts upserts every prompt in a single transaction.
func (d *Database) SeedPrompts(prompts []rules.Prompt) error {
	return d.withTx(func(tx *sql.Tx) error {
		for _, p := range prompts {
			if err := d.upsertPrompt(tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountPrompts returns the number of stored prompts.
func (d *Database) CountPrompts() (int, error) {
	n, err := d.count(d.db, `SELECT COUNT(*) FROM prompts`)
	if err != nil {
		return 0, fmt.Errorf("failed to count prompts: %w", err)
	}
	return n, nil
}
