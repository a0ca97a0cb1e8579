package play

import (
	"errors"

	"github.com/lawnchairsociety/chronicle/internal/database"
)

// Sheet is everything a player sees about their vampire.
type Sheet struct {
	Vampire       *database.Vampire     `json:"vampire"`
	Memories      []*database.Memory    `json:"memories"`
	Skills        []*database.Skill     `json:"skills"`
	Resources     []*database.Resource  `json:"resources"`
	Characters    []*database.Character `json:"characters"`
	Marks         []*database.Mark      `json:"marks"`
	Diary         *database.Diary       `json:"diary,omitempty"`
	Setup         *database.SetupStatus `json:"setup"`
	SetupComplete bool                  `json:"setup_complete"`
}

// Sheet loads the full character sheet, lost and dead entries included.
func (c *Controller) Sheet(vampireID int64) (*Sheet, error) {
	v, err := c.store.GetVampire(vampireID)
	if err != nil {
		return nil, err
	}
	s := &Sheet{Vampire: v}

	if s.Memories, err = c.store.ListMemories(vampireID, database.MemoryFilter{}); err != nil {
		return nil, err
	}
	if s.Skills, err = c.store.ListSkills(vampireID, database.SkillFilter{}); err != nil {
		return nil, err
	}
	if s.Resources, err = c.store.ListResources(vampireID, database.ResourceFilter{}); err != nil {
		return nil, err
	}
	if s.Characters, err = c.store.ListCharacters(vampireID, database.CharacterFilter{}); err != nil {
		return nil, err
	}
	if s.Marks, err = c.store.ListMarks(vampireID, false); err != nil {
		return nil, err
	}

	diary, err := c.store.GetDiary(vampireID)
	switch {
	case err == nil:
		s.Diary = diary
	case !errors.Is(err, database.ErrNotFound):
		return nil, err
	}

	if s.Setup, err = c.store.GetSetupStatus(vampireID); err != nil {
		return nil, err
	}
	s.SetupComplete = setupDone(s.Setup)
	return s, nil
}
