// Package actions turns prompts into pending actions a player must resolve
// and applies the player's choices to the vampire's persisted state.
package actions

import (
	"errors"

	"github.com/lawnchairsociety/chronicle/internal/database"
	"github.com/lawnchairsociety/chronicle/internal/rules"
)

// State is the read side of a vampire's sheet, as the resolver sees it.
type State interface {
	GetVampire(id int64) (*database.Vampire, error)
	GetPrompt(id rules.PromptID) (*rules.Prompt, error)
	ListCharacters(vampireID int64, f database.CharacterFilter) ([]*database.Character, error)
	LivingMortals(vampireID int64) ([]*database.Character, error)
	ListSkills(vampireID int64, f database.SkillFilter) ([]*database.Skill, error)
	ListResources(vampireID int64, f database.ResourceFilter) ([]*database.Resource, error)
	ListMarks(vampireID int64, excludeRemoved bool) ([]*database.Mark, error)
	ListMemories(vampireID int64, f database.MemoryFilter) ([]*database.Memory, error)
	GetDiary(vampireID int64) (*database.Diary, error)
}

// Store is State plus the mutation primitives the executor applies.
type Store interface {
	State

	GetCharacter(vampireID, characterID int64) (*database.Character, error)
	CreateCharacter(vampireID int64, nc database.NewCharacter) (*database.Character, error)
	UpdateCharacter(c *database.Character) error
	SetCharacterDead(vampireID, characterID int64) error

	GetSkill(vampireID, skillID int64) (*database.Skill, error)
	CreateSkill(vampireID int64, name, description string) (*database.Skill, error)
	GetOrCreateSkill(vampireID int64, name, description string) (*database.Skill, bool, error)
	CheckSkill(vampireID, skillID int64) error
	SetSkillLost(vampireID, skillID int64) error

	GetResource(vampireID, resourceID int64) (*database.Resource, error)
	CreateResource(vampireID int64, name, description string, stationary bool) (*database.Resource, error)
	SetResourceLost(vampireID, resourceID int64) error

	GetMark(vampireID, markID int64) (*database.Mark, error)
	CreateMark(vampireID int64, description, howConcealed string) (*database.Mark, error)
	SetMarkRemoved(vampireID, markID int64) error

	GetMemory(vampireID, memoryID int64) (*database.Memory, error)
	SetMemoryLost(vampireID, memoryID int64) error
	MoveMemoryToDiary(vampireID, memoryID int64) error

	CreateDiary(vampireID int64, description string) (*database.Diary, error)
	LoseDiary(vampireID int64) error
}

var _ Store = (*database.Database)(nil)

// absent reports whether err means the referenced entity does not exist for
// this vampire. Such ids are skipped rather than reported.
func absent(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
