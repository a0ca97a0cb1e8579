package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lawnchairsociety/chronicle/internal/rules"
)

// GameSession is the immutable log row of one answered prompt.
type GameSession struct {
	ID           int64     `json:"id"`
	VampireID    int64     `json:"vampire_id"`
	PromptNumber int       `json:"prompt_number"`
	PromptEntry  string    `json:"prompt_entry"`
	Response     string    `json:"response"`
	D10          int       `json:"d10"`
	D6           int       `json:"d6"`
	NextPrompt   int       `json:"next_prompt"`
	CreatedAt    time.Time `json:"created_at"`
}

// PromptID returns the identifier of the prompt this session answered.
func (s *GameSession) PromptID() rules.PromptID {
	return rules.PromptID{Number: s.PromptNumber, Entry: s.PromptEntry}
}

// Turn is the input to RecordTurn: a response and the already rolled dice.
type Turn struct {
	VampireID  int64
	Response   string
	D10        int
	D6         int
	NextPrompt int
}

// TurnOutcome describes everything RecordTurn wrote.
type TurnOutcome struct {
	Session    *GameSession
	Memory     *Memory
	Experience *Experience
	NextEntry  string

	// Evicted is set when every memory was full and the oldest one was
	// overwritten; EvictedTitle is its display title before eviction.
	Evicted      bool
	EvictedTitle string
}

// RecordTurn stores the response as an experience, logs the session and moves
// the vampire to the next prompt, all in one transaction.
func (d *Database) RecordTurn(turn Turn) (*TurnOutcome, error) {
	response := strings.TrimSpace(turn.Response)
	out := &TurnOutcome{}

	err := d.withTx(func(tx *sql.Tx) error {
		v, err := scanVampire(d.queryRow(tx,
			`SELECT `+vampireColumns+` FROM vampires WHERE id = ?`, turn.VampireID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVampireNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get vampire: %w", err)
		}

		if err := d.placeExperience(tx, v, response, out); err != nil {
			return err
		}

		sessionID, err := d.insert(tx,
			`INSERT INTO game_sessions (vampire_id, prompt_number, prompt_entry, response, d10, d6, next_prompt)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.CurrentPrompt, v.PromptEntry, response, turn.D10, turn.D6, turn.NextPrompt)
		if err != nil {
			return fmt.Errorf("failed to record session: %w", err)
		}
		out.Session = &GameSession{
			ID:           sessionID,
			VampireID:    v.ID,
			PromptNumber: v.CurrentPrompt,
			PromptEntry:  v.PromptEntry,
			Response:     response,
			D10:          turn.D10,
			D6:           turn.D6,
			NextPrompt:   turn.NextPrompt,
			CreatedAt:    time.Now(),
		}

		// Counted after the insert, so staying on the same number is a visit.
		visits, err := d.countSessionsAt(tx, v.ID, turn.NextPrompt)
		if err != nil {
			return err
		}
		out.NextEntry = rules.EntryForVisits(visits)

		if _, err := d.exec(tx,
			`UPDATE vampires SET current_prompt = ?, prompt_entry = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			turn.NextPrompt, out.NextEntry, v.ID); err != nil {
			return fmt.Errorf("failed to update prompt position: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// placeExperience writes response into the first non-lost memory with room,
// evicting the lowest non-lost slot when all are full. With every memory lost
// the lowest lost slot is reclaimed.
func (d *Database) placeExperience(tx *sql.Tx, v *Vampire, response string, out *TurnOutcome) error {
	memories, err := d.scanMemories(tx,
		`SELECT id, vampire_id, slot, title, in_diary, lost FROM memories WHERE vampire_id = ? ORDER BY slot`,
		v.ID)
	if err != nil {
		return err
	}
	if err := d.loadExperiences(tx, v.ID, memories); err != nil {
		return err
	}
	if len(memories) == 0 {
		return fmt.Errorf("vampire %d has no memory slots", v.ID)
	}

	// Memories archived in the diary are neither written to nor evicted.
	var target, oldest, reusable *Memory
	for _, m := range memories {
		if m.InDiary {
			continue
		}
		if reusable == nil {
			reusable = m
		}
		if m.Lost {
			continue
		}
		if oldest == nil {
			oldest = m
		}
		if !m.Full() {
			target = m
			break
		}
	}

	if target == nil {
		target = oldest
		switch {
		case target != nil:
			out.Evicted = true
			out.EvictedTitle = target.DisplayTitle()
		case reusable != nil:
			target = reusable
		default:
			target = memories[0]
		}

		title := "Prompt " + strconv.Itoa(v.CurrentPrompt) + v.PromptEntry
		if _, err := d.exec(tx, `DELETE FROM experiences WHERE memory_id = ?`, target.ID); err != nil {
			return fmt.Errorf("failed to clear memory: %w", err)
		}
		if _, err := d.exec(tx,
			`UPDATE memories SET title = ?, lost = ?, in_diary = ? WHERE id = ?`,
			title, false, false, target.ID); err != nil {
			return fmt.Errorf("failed to reuse memory: %w", err)
		}
		target.Title = title
		target.Lost = false
		target.InDiary = false
		target.Experiences = []Experience{}
	}

	exp, err := d.addExperience(tx, target.ID, len(target.Experiences)+1, response)
	if err != nil {
		return err
	}
	target.Experiences = append(target.Experiences, *exp)
	out.Memory = target
	out.Experience = exp
	return nil
}

// CountSessionsAt returns how many sessions of the vampire answered the given
// prompt number.
func (d *Database) CountSessionsAt(vampireID int64, promptNumber int) (int, error) {
	return d.countSessionsAt(d.db, vampireID, promptNumber)
}

func (d *Database) countSessionsAt(q querier, vampireID int64, promptNumber int) (int, error) {
	n, err := d.count(q,
		`SELECT COUNT(*) FROM game_sessions WHERE vampire_id = ? AND prompt_number = ?`,
		vampireID, promptNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// ListSessions returns the vampire's turn log, oldest first.
func (d *Database) ListSessions(vampireID int64) ([]*GameSession, error) {
	rows, err := d.query(d.db, `
		SELECT id, vampire_id, prompt_number, prompt_entry, response, d10, d6, next_prompt, created_at
		FROM game_sessions WHERE vampire_id = ? ORDER BY id`,
		vampireID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*GameSession
	for rows.Next() {
		s := &GameSession{}
		if err := rows.Scan(&s.ID, &s.VampireID, &s.PromptNumber, &s.PromptEntry, &s.Response,
			&s.D10, &s.D6, &s.NextPrompt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
