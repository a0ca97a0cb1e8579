package database

import "fmt"

// SetupStatus summarizes how far character creation has progressed.
type SetupStatus struct {
	Mortals        int  `json:"mortals"`
	Immortals      int  `json:"immortals"`
	Skills         int  `json:"skills"`
	Resources      int  `json:"resources"`
	Marks          int  `json:"marks"`
	FinalMemorySet bool `json:"final_memory_set"`
}

// GetSetupStatus counts the entities character creation asks for.
func (d *Database) GetSetupStatus(vampireID int64) (*SetupStatus, error) {
	s := &SetupStatus{}
	counts := []struct {
		dest  *int
		query string
	}{
		{&s.Mortals, `SELECT COUNT(*) FROM characters WHERE vampire_id = ? AND character_type = 'mortal'`},
		{&s.Immortals, `SELECT COUNT(*) FROM characters WHERE vampire_id = ? AND character_type = 'immortal'`},
		{&s.Skills, `SELECT COUNT(*) FROM skills WHERE vampire_id = ?`},
		{&s.Resources, `SELECT COUNT(*) FROM resources WHERE vampire_id = ?`},
		{&s.Marks, `SELECT COUNT(*) FROM marks WHERE vampire_id = ?`},
	}
	for _, c := range counts {
		n, err := d.count(d.db, c.query, vampireID)
		if err != nil {
			return nil, fmt.Errorf("failed to read setup status: %w", err)
		}
		*c.dest = n
	}

	final, err := d.count(d.db, `
		SELECT COUNT(*) FROM experiences e
		JOIN memories m ON m.id = e.memory_id
		WHERE m.vampire_id = ? AND m.slot = ?`,
		vampireID, MemorySlots)
	if err != nil {
		return nil, fmt.Errorf("failed to read setup status: %w", err)
	}
	s.FinalMemorySet = final > 0
	return s, nil
}
