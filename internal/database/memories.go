package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxExperiences is how many experiences a single memory can hold.
const MaxExperiences = 3

var (
	// ErrMemoryNotFound is returned when no memory of the vampire matches the given id.
	ErrMemoryNotFound = fmt.Errorf("memory %w", ErrNotFound)

	// ErrMemoryFull is returned when a memory already holds MaxExperiences experiences.
	ErrMemoryFull = errors.New("memory is full")

	// ErrMemoryLost is returned when writing to a memory that has been lost.
	ErrMemoryLost = errors.New("memory is lost")
)

// Memory is one of a vampire's five narrative slots.
type Memory struct {
	ID          int64        `json:"id"`
	VampireID   int64        `json:"vampire_id"`
	Slot        int          `json:"slot"`
	Title       string       `json:"title"`
	InDiary     bool         `json:"in_diary"`
	Lost        bool         `json:"lost"`
	Experiences []Experience `json:"experiences"`
}

// DisplayTitle returns the title, or "Memory N" when untitled.
func (m *Memory) DisplayTitle() string {
	if strings.TrimSpace(m.Title) != "" {
		return m.Title
	}
	return fmt.Sprintf("Memory %d", m.Slot)
}

// Full reports whether the memory cannot take another experience.
func (m *Memory) Full() bool {
	return len(m.Experiences) >= MaxExperiences
}

// Experience is a single narrative beat inside a memory.
type Experience struct {
	ID        int64     `json:"id"`
	MemoryID  int64     `json:"memory_id"`
	Position  int       `json:"position"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryFilter narrows ListMemories. The zero value returns every memory.
type MemoryFilter struct {
	ExcludeLost    bool
	ExcludeInDiary bool
}

// ListMemories returns the vampire's memories in slot order, each with its experiences.
func (d *Database) ListMemories(vampireID int64, f MemoryFilter) ([]*Memory, error) {
	query := `SELECT id, vampire_id, slot, title, in_diary, lost FROM memories WHERE vampire_id = ?`
	args := []any{vampireID}
	if f.ExcludeLost {
		query += ` AND lost = ?`
		args = append(args, false)
	}
	if f.ExcludeInDiary {
		query += ` AND in_diary = ?`
		args = append(args, false)
	}
	query += ` ORDER BY slot`

	memories, err := d.scanMemories(d.db, query, args...)
	if err != nil {
		return nil, err
	}
	if err := d.loadExperiences(d.db, vampireID, memories); err != nil {
		return nil, err
	}
	return memories, nil
}

// GetMemory retrieves one of the vampire's memories with its experiences.
func (d *Database) GetMemory(vampireID, memoryID int64) (*Memory, error) {
	return d.getMemory(d.db, vampireID, memoryID)
}

func (d *Database) getMemory(q querier, vampireID, memoryID int64) (*Memory, error) {
	memories, err := d.scanMemories(q,
		`SELECT id, vampire_id, slot, title, in_diary, lost FROM memories WHERE id = ? AND vampire_id = ?`,
		memoryID, vampireID)
	if err != nil {
		return nil, err
	}
	if len(memories) == 0 {
		return nil, ErrMemoryNotFound
	}
	if err := d.loadExperiences(q, vampireID, memories); err != nil {
		return nil, err
	}
	return memories[0], nil
}

// GetMemoryBySlot retrieves the vampire's memory in the given slot.
func (d *Database) GetMemoryBySlot(vampireID int64, slot int) (*Memory, error) {
	memories, err := d.scanMemories(d.db,
		`SELECT id, vampire_id, slot, title, in_diary, lost FROM memories WHERE vampire_id = ? AND slot = ?`,
		vampireID, slot)
	if err != nil {
		return nil, err
	}
	if len(memories) == 0 {
		return nil, ErrMemoryNotFound
	}
	if err := d.loadExperiences(d.db, vampireID, memories); err != nil {
		return nil, err
	}
	return memories[0], nil
}

func (d *Database) scanMemories(q querier, query string, args ...any) ([]*Memory, error) {
	rows, err := d.query(q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var memories []*Memory
	for rows.Next() {
		m := &Memory{}
		if err := rows.Scan(&m.ID, &m.VampireID, &m.Slot, &m.Title, &m.InDiary, &m.Lost); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// loadExperiences fills in the experiences of the given memories with a single query.
func (d *Database) loadExperiences(q querier, vampireID int64, memories []*Memory) error {
	if len(memories) == 0 {
		return nil
	}

	byID := make(map[int64]*Memory, len(memories))
	for _, m := range memories {
		m.Experiences = []Experience{}
		byID[m.ID] = m
	}

	rows, err := d.query(q, `
		SELECT e.id, e.memory_id, e.position, e.body, e.created_at
		FROM experiences e
		JOIN memories m ON m.id = e.memory_id
		WHERE m.vampire_id = ?
		ORDER BY e.memory_id, e.position`,
		vampireID)
	if err != nil {
		return fmt.Errorf("failed to query experiences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Experience
		if err := rows.Scan(&e.ID, &e.MemoryID, &e.Position, &e.Text, &e.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan experience: %w", err)
		}
		if m, ok := byID[e.MemoryID]; ok {
			m.Experiences = append(m.Experiences, e)
		}
	}
	return rows.Err()
}

// AddExperience appends an experience to one of the vampire's memories.
func (d *Database) AddExperience(vampireID, memoryID int64, text string) (*Experience, error) {
	text = strings.TrimSpace(text)

	var exp *Experience
	err := d.withTx(func(tx *sql.Tx) error {
		memory, err := d.getMemory(tx, vampireID, memoryID)
		if err != nil {
			return err
		}
		if memory.Lost {
			return ErrMemoryLost
		}
		if memory.Full() {
			return ErrMemoryFull
		}

		exp, err = d.addExperience(tx, memory.ID, len(memory.Experiences)+1, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func (d *Database) addExperience(q querier, memoryID int64, position int, text string) (*Experience, error) {
	if position > MaxExperiences {
		return nil, ErrMemoryFull
	}
	id, err := d.insert(q,
		`INSERT INTO experiences (memory_id, position, body) VALUES (?, ?, ?)`,
		memoryID, position, text)
	if err != nil {
		if d.dialect.IsUniqueViolation(err) {
			return nil, ErrMemoryFull
		}
		return nil, fmt.Errorf("failed to insert experience: %w", err)
	}
	return &Experience{ID: id, MemoryID: memoryID, Position: position, Text: text, CreatedAt: time.Now()}, nil
}

// SetMemoryTitle renames one of the vampire's memories.
func (d *Database) SetMemoryTitle(vampireID, memoryID int64, title string) error {
	result, err := d.exec(d.db,
		`UPDATE memories SET title = ? WHERE id = ? AND vampire_id = ?`,
		strings.TrimSpace(title), memoryID, vampireID)
	if err != nil {
		return fmt.Errorf("failed to set memory title: %w", err)
	}
	return requireRow(result, ErrMemoryNotFound)
}

// SetMemoryLost marks a memory lost. Its experiences stay attached.
func (d *Database) SetMemoryLost(vampireID, memoryID int64) error {
	result, err := d.exec(d.db,
		`UPDATE memories SET lost = ? WHERE id = ? AND vampire_id = ?`,
		true, memoryID, vampireID)
	if err != nil {
		return fmt.Errorf("failed to lose memory: %w", err)
	}
	return requireRow(result, ErrMemoryNotFound)
}
