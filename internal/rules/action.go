// Package rules defines the prompt rule table: the closed vocabulary of
// mechanical actions, the descriptors that attach them to prompts, and the
// fixed character vocabularies those actions refer to.
package rules

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownActionType is returned when an action type is not part of the vocabulary.
var ErrUnknownActionType = errors.New("unknown action type")

// ActionType identifies one kind of mechanical consequence of a prompt.
type ActionType string

const (
	// Characters
	KillMortal                 ActionType = "kill_mortal"
	CreateMortal               ActionType = "create_mortal"
	CreateImmortal             ActionType = "create_immortal"
	ConvertMortalToImmortal    ActionType = "convert_mortal_to_immortal"
	AgeMortals                 ActionType = "age_mortals"
	ConvertCharacterToResource ActionType = "convert_character_to_resource"

	// Skills
	AddSkill              ActionType = "add_skill"
	CreateSkill           ActionType = "create_skill"
	CreateSkillFromMemory ActionType = "create_skill_from_memory"
	CheckSkill            ActionType = "check_skill"
	CheckSkills           ActionType = "check_skills"
	LoseSkill             ActionType = "lose_skill"

	// Resources
	CreateResource           ActionType = "create_resource"
	CreateStationaryResource ActionType = "create_stationary_resource"
	LoseResource             ActionType = "lose_resource"
	LoseResources            ActionType = "lose_resources"
	LoseStationaryResources  ActionType = "lose_stationary_resources"

	// Marks
	CreateMark ActionType = "create_mark"
	RemoveMark ActionType = "remove_mark"

	// Memories and the diary
	LoseMemory        ActionType = "lose_memory"
	CreateDiary       ActionType = "create_diary"
	MoveMemoryToDiary ActionType = "move_memory_to_diary"
	LoseDiary         ActionType = "lose_diary"

	// Flow
	Choice     ActionType = "choice"
	TimePasses ActionType = "time_passes"
)

var actionLabels = map[ActionType]string{
	KillMortal:                 "Kill a mortal character",
	CreateMortal:               "Create a new mortal character",
	CreateImmortal:             "Create a new immortal character",
	ConvertMortalToImmortal:    "Convert a mortal to immortal",
	AgeMortals:                 "All mortal characters die of old age",
	ConvertCharacterToResource: "Convert a character into a resource",
	AddSkill:                   "Gain a specific skill",
	CreateSkill:                "Create a new skill",
	CreateSkillFromMemory:      "Create a skill based on a memory",
	CheckSkill:                 "Check a skill",
	CheckSkills:                "Check multiple skills",
	LoseSkill:                  "Lose a skill",
	CreateResource:             "Create a new resource",
	CreateStationaryResource:   "Create a new stationary resource",
	LoseResource:               "Lose a resource",
	LoseResources:              "Lose multiple resources",
	LoseStationaryResources:    "Lose all stationary resources",
	CreateMark:                 "Create a new mark",
	RemoveMark:                 "Remove a mark",
	LoseMemory:                 "Lose a memory",
	CreateDiary:                "Create a diary",
	MoveMemoryToDiary:          "Move a memory to the diary",
	LoseDiary:                  "Lose the diary",
	Choice:                     "Choose a path",
	TimePasses:                 "Significant time passes",
}

// Valid reports whether t belongs to the action vocabulary.
func (t ActionType) Valid() bool {
	_, ok := actionLabels[t]
	return ok
}

// Label returns the default human-readable description of t.
func (t ActionType) Label() string {
	return actionLabels[t]
}

// ParseActionType converts a raw tag into an ActionType.
func ParseActionType(s string) (ActionType, error) {
	t := ActionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownActionType, s)
	}
	return t, nil
}

// ActionTypes returns every known action type in lexical order.
func ActionTypes() []ActionType {
	types := make([]ActionType, 0, len(actionLabels))
	for t := range actionLabels {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Conditional qualifies when a descriptor applies.
type Conditional string

// CreateIfNoneExist makes creation actions apply only when no living mortal exists.
const CreateIfNoneExist Conditional = "create_if_none_exist"
