package actions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lawnchairsociety/chronicle/internal/database"
	"github.com/lawnchairsociety/chronicle/internal/rules"
)

// Defaults applied when the player leaves a field blank.
const (
	defaultVictimName        = "Close Friend"
	defaultVictimDescription = "Someone you cared about, now lost to your hunger."
	defaultMortalName        = "New Mortal"
	defaultMortalDescription = "A mortal who has entered your story."
	defaultImmortalName      = "Ancient Being"
	defaultImmortalDesc      = "An immortal creature whose path has crossed yours."
	defaultGainedDescription = "Gained from prompt actions."
	defaultSkillDescription  = "A skill gained from your experiences."
	defaultResourceName      = "New Resource"
	defaultMarkDescription   = "A new mark has appeared on your vampiric form."
	defaultMarkConcealment   = "You must find a way to hide this mark from mortals."
	defaultDiaryDescription  = "A battered journal that holds what you cannot bear to forget."
	convertedSuffix          = " - Turned into a monster like yourself."
	markLogLength            = 50
)

// ExecuteRequest is one player decision for one pending action.
type ExecuteRequest struct {
	Type    rules.ActionType `json:"type"`
	Choices Choices          `json:"choices"`
	Input   Input            `json:"input_data"`
}

// Choices carries the ids of existing entities the player selected.
type Choices struct {
	CharacterID int64   `json:"character_id,omitempty"`
	CreateNew   bool    `json:"create_new,omitempty"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	SkillName   string  `json:"skill_name,omitempty"`
	SkillID     int64   `json:"skill_id,omitempty"`
	SkillIDs    []int64 `json:"skill_ids,omitempty"`
	ResourceIDs []int64 `json:"resource_ids,omitempty"`
	MarkID      int64   `json:"mark_id,omitempty"`
	MemoryID    int64   `json:"memory_id,omitempty"`
}

// Input carries the fields of an entity the player is creating.
type Input struct {
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	SkillName    string `json:"skill_name,omitempty"`
	IsStationary bool   `json:"is_stationary,omitempty"`
	HowConcealed string `json:"how_concealed,omitempty"`
}

type executeFunc func(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error)

// Executor applies one resolved action to a vampire and reports what changed.
type Executor struct {
	store    Store
	handlers map[rules.ActionType]executeFunc
}

// NewExecutor creates an executor over store.
func NewExecutor(store Store) *Executor {
	return &Executor{
		store: store,
		handlers: map[rules.ActionType]executeFunc{
			rules.KillMortal:                 execKillMortal,
			rules.CreateMortal:               execCreateCharacter,
			rules.CreateImmortal:             execCreateCharacter,
			ConvertMortal:                    execConvertMortal,
			rules.ConvertMortalToImmortal:    execConvertMortal,
			rules.AgeMortals:                 execAgeMortals,
			rules.ConvertCharacterToResource: execConvertCharacter,
			rules.AddSkill:                   execAddSkill,
			rules.CreateSkill:                execCreateSkill,
			rules.CreateSkillFromMemory:      execSkillFromMemory,
			rules.CheckSkill:                 execCheckSkills,
			rules.CheckSkills:                execCheckSkills,
			rules.LoseSkill:                  execLoseSkill,
			rules.CreateResource:             execCreateResource,
			rules.CreateStationaryResource:   execCreateResource,
			rules.LoseResource:               execLoseResources,
			rules.LoseResources:              execLoseResources,
			rules.LoseStationaryResources:    execLoseStationary,
			rules.CreateMark:                 execCreateMark,
			rules.RemoveMark:                 execRemoveMark,
			rules.LoseMemory:                 execLoseMemory,
			rules.CreateDiary:                execCreateDiary,
			rules.MoveMemoryToDiary:          execMoveToDiary,
			rules.LoseDiary:                  execLoseDiary,
			rules.TimePasses:                 execNothing,
		},
	}
}

// Execute applies req for the vampire. Unknown types and missing choices or
// input are no-ops with an empty log; storage failures and invariant
// violations are returned as errors.
func (e *Executor) Execute(vampireID int64, req ExecuteRequest) ([]string, error) {
	if _, err := e.store.GetVampire(vampireID); err != nil {
		return nil, err
	}

	handler, ok := e.handlers[req.Type]
	if !ok {
		return []string{}, nil
	}
	log, err := handler(e, vampireID, req)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", req.Type, err)
	}
	if log == nil {
		log = []string{}
	}
	return log, nil
}

func execNothing(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	return nil, nil
}

func execKillMortal(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	if req.Choices.CharacterID != 0 {
		c, err := e.store.GetCharacter(vampireID, req.Choices.CharacterID)
		if absent(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if c.Dead || c.Type != rules.Mortal {
			return nil, nil
		}
		if err := e.store.SetCharacterDead(vampireID, c.ID); err != nil {
			return nil, err
		}
		return []string{"Killed mortal character: " + c.Name}, nil
	}

	if !req.Choices.CreateNew {
		return nil, nil
	}
	c, err := e.store.CreateCharacter(vampireID, database.NewCharacter{
		Name:         or(req.Choices.Name, defaultVictimName),
		Description:  or(req.Choices.Description, defaultVictimDescription),
		Type:         rules.Mortal,
		Relationship: rules.Friend,
		Dead:         true,
	})
	if err != nil {
		return nil, err
	}
	return []string{"Created and killed mortal character: " + c.Name}, nil
}

func execCreateCharacter(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	nc := database.NewCharacter{
		Name:         or(req.Input.Name, defaultMortalName),
		Description:  or(req.Input.Description, defaultMortalDescription),
		Type:         rules.Mortal,
		Relationship: rules.ParseRelationship(req.Input.Relationship),
	}
	if req.Type == rules.CreateImmortal {
		nc.Name = or(req.Input.Name, defaultImmortalName)
		nc.Description = or(req.Input.Description, defaultImmortalDesc)
		nc.Type = rules.Immortal
	}

	c, err := e.store.CreateCharacter(vampireID, nc)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("Created %s character: %s", c.Type, c.Name)}, nil
}

func execConvertMortal(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	if req.Choices.CharacterID == 0 {
		return nil, nil
	}
	c, err := e.store.GetCharacter(vampireID, req.Choices.CharacterID)
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if c.Type != rules.Mortal || c.Dead {
		return nil, nil
	}

	c.Type = rules.Immortal
	c.Relationship = rules.Enemy
	c.Description += convertedSuffix
	if err := e.store.UpdateCharacter(c); err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("Converted %s from mortal to immortal", c.Name)}, nil
}

func execAgeMortals(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	mortals, err := e.store.LivingMortals(vampireID)
	if err != nil {
		return nil, err
	}
	var log []string
	for _, c := range mortals {
		if err := e.store.SetCharacterDead(vampireID, c.ID); err != nil {
			return log, err
		}
		log = append(log, fmt.Sprintf("Mortal character %s died of old age", c.Name))
	}
	return log, nil
}

// execConvertCharacter strikes a living character from the story and records
// it as a resource.
func execConvertCharacter(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	if req.Choices.CharacterID == 0 {
		return nil, nil
	}
	c, err := e.store.GetCharacter(vampireID, req.Choices.CharacterID)
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if c.Dead {
		return nil, nil
	}

	if err := e.store.SetCharacterDead(vampireID, c.ID); err != nil {
		return nil, err
	}
	r, err := e.store.CreateResource(vampireID,
		or(req.Input.Name, c.Name),
		or(req.Input.Description, c.Description),
		req.Input.IsStationary)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("Converted %s into resource: %s", c.Name, r.Name)}, nil
}

func execAddSkill(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	name := or(req.Input.SkillName, req.Choices.SkillName)
	if name == "" {
		return nil, nil
	}
	skill, created, err := e.store.GetOrCreateSkill(vampireID, name, or(req.Input.Description, defaultGainedDescription))
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}
	return []string{"Gained skill: " + skill.Name}, nil
}

func execCreateSkill(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	name := strings.TrimSpace(req.Input.Name)
	if name == "" {
		return nil, nil
	}
	skill, err := e.store.CreateSkill(vampireID, name, or(req.Input.Description, defaultSkillDescription))
	if err != nil {
		return nil, err
	}
	return []string{"Created skill: " + skill.Name}, nil
}

// execSkillFromMemory creates a skill whose default description names the
// chosen memory.
func execSkillFromMemory(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	name := strings.TrimSpace(req.Input.Name)
	if name == "" {
		return nil, nil
	}

	description := defaultSkillDescription
	if req.Choices.MemoryID != 0 {
		m, err := e.store.GetMemory(vampireID, req.Choices.MemoryID)
		if err != nil && !absent(err) {
			return nil, err
		}
		if err == nil {
			description = "Learned from " + m.DisplayTitle() + "."
		}
	}

	skill, err := e.store.CreateSkill(vampireID, name, or(req.Input.Description, description))
	if err != nil {
		return nil, err
	}
	return []string{"Created skill: " + skill.Name}, nil
}

func execCheckSkills(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	ids := req.Choices.SkillIDs
	if len(ids) == 0 && req.Choices.SkillID != 0 {
		ids = []int64{req.Choices.SkillID}
	}

	var log []string
	for _, id := range ids {
		skill, err := e.store.GetSkill(vampireID, id)
		if absent(err) {
			continue
		}
		if err != nil {
			return log, err
		}
		if skill.Checked {
			continue
		}
		err = e.store.CheckSkill(vampireID, id)
		if errors.Is(err, database.ErrSkillAlreadyChecked) {
			continue
		}
		if err != nil {
			return log, err
		}
		log = append(log, "Checked skill: "+skill.Name)
	}
	return log, nil
}

func execLoseSkill(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	if req.Choices.SkillID == 0 {
		return nil, nil
	}
	skill, err := e.store.GetSkill(vampireID, req.Choices.SkillID)
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if skill.Lost {
		return nil, nil
	}
	if err := e.store.SetSkillLost(vampireID, skill.ID); err != nil {
		return nil, err
	}
	return []string{"Lost skill: " + skill.Name}, nil
}

func execCreateResource(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	stationary := req.Input.IsStationary || req.Type == rules.CreateStationaryResource
	r, err := e.store.CreateResource(vampireID,
		or(req.Input.Name, defaultResourceName),
		or(req.Input.Description, defaultGainedDescription),
		stationary)
	if err != nil {
		return nil, err
	}
	if r.Stationary {
		return []string{"Gained stationary resource: " + r.Name}, nil
	}
	return []string{"Gained resource: " + r.Name}, nil
}

func execLoseResources(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	var log []string
	for _, id := range req.Choices.ResourceIDs {
		r, err := e.store.GetResource(vampireID, id)
		if absent(err) {
			continue
		}
		if err != nil {
			return log, err
		}
		if r.Lost {
			continue
		}
		if err := e.store.SetResourceLost(vampireID, r.ID); err != nil {
			return log, err
		}
		log = append(log, "Lost resource: "+r.Name)
	}
	return log, nil
}

func execLoseStationary(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	resources, err := e.store.ListResources(vampireID, database.ResourceFilter{ExcludeLost: true, StationaryOnly: true})
	if err != nil {
		return nil, err
	}
	var log []string
	for _, r := range resources {
		if err := e.store.SetResourceLost(vampireID, r.ID); err != nil {
			return log, err
		}
		log = append(log, "Lost stationary resource: "+r.Name)
	}
	return log, nil
}

func execCreateMark(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	if _, err := e.store.CreateMark(vampireID,
		or(req.Input.Description, defaultMarkDescription),
		or(req.Input.HowConcealed, defaultMarkConcealment)); err != nil {
		return nil, err
	}
	return []string{"Gained a new Mark"}, nil
}

func execRemoveMark(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	if req.Choices.MarkID == 0 {
		return nil, nil
	}
	m, err := e.store.GetMark(vampireID, req.Choices.MarkID)
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.Removed {
		return nil, nil
	}
	if err := e.store.SetMarkRemoved(vampireID, m.ID); err != nil {
		return nil, err
	}
	return []string{"Removed mark: " + truncateRunes(m.Description, markLogLength)}, nil
}

// execLoseMemory marks the memory lost; its experiences stay attached.
func execLoseMemory(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	if req.Choices.MemoryID == 0 {
		return nil, nil
	}
	m, err := e.store.GetMemory(vampireID, req.Choices.MemoryID)
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.Lost {
		return nil, nil
	}
	if err := e.store.SetMemoryLost(vampireID, m.ID); err != nil {
		return nil, err
	}
	return []string{"Lost memory: " + or(m.Title, "Untitled memory")}, nil
}

func execCreateDiary(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	diary, err := e.store.CreateDiary(vampireID, or(req.Input.Description, defaultDiaryDescription))
	if err != nil {
		return nil, err
	}
	return []string{"Created diary: " + diary.Description}, nil
}

func execMoveToDiary(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	if req.Choices.MemoryID == 0 {
		return nil, nil
	}
	m, err := e.store.GetMemory(vampireID, req.Choices.MemoryID)
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.InDiary || m.Lost {
		return nil, nil
	}

	err = e.store.MoveMemoryToDiary(vampireID, m.ID)
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []string{"Moved memory to diary: " + m.DisplayTitle()}, nil
}

func execLoseDiary(e *Executor, vampireID int64, req ExecuteRequest) ([]string, error) {
	diary, err := e.store.GetDiary(vampireID)
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if diary.Lost {
		return nil, nil
	}
	if err := e.store.LoseDiary(vampireID); err != nil {
		return nil, err
	}
	return []string{"Lost diary: " + diary.Description}, nil
}

// or returns s trimmed, or fallback when s is blank.
func or(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
