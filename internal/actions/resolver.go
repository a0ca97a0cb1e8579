package actions

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lawnchairsociety/chronicle/internal/database"
	"github.com/lawnchairsociety/chronicle/internal/rules"
)

// experiencePreview is how many runes of each experience a lose_memory choice shows.
const experiencePreview = 100

// Request names the prompt to resolve, by id, by raw text, or both.
type Request struct {
	PromptID string `json:"prompt_id"`
	Text     string `json:"text"`
}

// Matcher recognizes actions in free prompt text.
type Matcher interface {
	Match(text string) []rules.Descriptor
}

type resolveFunc func(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error)

// Resolver produces pending actions from the rule table, falling back to a
// Matcher for prompts without one.
type Resolver struct {
	state    State
	fallback Matcher
	handlers map[rules.ActionType]resolveFunc
}

// NewResolver creates a resolver. A nil fallback disables text matching.
func NewResolver(state State, fallback Matcher) *Resolver {
	return &Resolver{
		state:    state,
		fallback: fallback,
		handlers: map[rules.ActionType]resolveFunc{
			rules.KillMortal:                 resolveKillMortal,
			rules.CreateMortal:               resolveCreateMortal,
			rules.CreateImmortal:             resolveCreateImmortal,
			rules.ConvertMortalToImmortal:    resolveConvertMortal,
			rules.AgeMortals:                 resolveAgeMortals,
			rules.ConvertCharacterToResource: resolveConvertCharacter,
			rules.AddSkill:                   resolveAddSkill,
			rules.CreateSkill:                resolveCreateSkill,
			rules.CreateSkillFromMemory:      resolveSkillFromMemory,
			rules.CheckSkill:                 resolveCheckSkills,
			rules.CheckSkills:                resolveCheckSkills,
			rules.LoseSkill:                  resolveLoseSkill,
			rules.CreateResource:             resolveCreateResource,
			rules.CreateStationaryResource:   resolveCreateResource,
			rules.LoseResource:               resolveLoseResources,
			rules.LoseResources:              resolveLoseResources,
			rules.LoseStationaryResources:    resolveLoseStationary,
			rules.CreateMark:                 resolveCreateMark,
			rules.RemoveMark:                 resolveRemoveMark,
			rules.LoseMemory:                 resolveLoseMemory,
			rules.CreateDiary:                resolveCreateDiary,
			rules.MoveMemoryToDiary:          resolveMoveToDiary,
			rules.LoseDiary:                  resolveLoseDiary,
			rules.Choice:                     resolveChoice,
			rules.TimePasses:                 resolveTimePasses,
		},
	}
}

// Resolve returns the pending actions for req against the vampire's current state.
// A prompt id that does not parse or has no stored actions falls back to text
// matching on req.Text, or on the stored prompt text when req.Text is blank.
func (r *Resolver) Resolve(vampireID int64, req Request) ([]PendingAction, error) {
	if _, err := r.state.GetVampire(vampireID); err != nil {
		return nil, err
	}

	text := req.Text
	if strings.TrimSpace(req.PromptID) != "" {
		if id, err := rules.ParsePromptID(req.PromptID); err == nil {
			prompt, err := r.state.GetPrompt(id)
			switch {
			case err == nil && prompt.HasActions():
				return r.resolveAll(vampireID, prompt.Actions)
			case err == nil:
				if strings.TrimSpace(text) == "" {
					text = prompt.Text
				}
			case !errors.Is(err, database.ErrNotFound):
				return nil, err
			}
		}
	}

	if r.fallback == nil || strings.TrimSpace(text) == "" {
		return []PendingAction{}, nil
	}
	return r.resolveAll(vampireID, r.fallback.Match(text))
}

// resolveAll resolves descriptors in order. Handlers may skip a descriptor.
func (r *Resolver) resolveAll(vampireID int64, descriptors []rules.Descriptor) ([]PendingAction, error) {
	pending := make([]PendingAction, 0, len(descriptors))
	for _, d := range descriptors {
		handler, ok := r.handlers[d.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %q", rules.ErrUnknownActionType, d.Type)
		}
		action, err := handler(r, vampireID, d)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", d.Type, err)
		}
		if action != nil {
			pending = append(pending, *action)
		}
	}
	return pending, nil
}

func resolveKillMortal(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	mortals, err := r.state.LivingMortals(vampireID)
	if err != nil {
		return nil, err
	}
	return &PendingAction{
		Type:        rules.KillMortal,
		Description: d.Text(),
		Choices:     characterCandidates(mortals),
		AllowCreate: len(mortals) == 0 && d.Conditional == rules.CreateIfNoneExist,
	}, nil
}

func resolveCreateMortal(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	if d.Conditional == rules.CreateIfNoneExist {
		mortals, err := r.state.LivingMortals(vampireID)
		if err != nil {
			return nil, err
		}
		if len(mortals) > 0 {
			return nil, nil
		}
	}
	return &PendingAction{
		Type:          rules.CreateMortal,
		Description:   d.Text(),
		RequiresInput: true,
		Relationship:  relationshipOr(d.Relationship, rules.Neutral),
	}, nil
}

func resolveCreateImmortal(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	return &PendingAction{
		Type:          rules.CreateImmortal,
		Description:   d.Text(),
		RequiresInput: true,
		Relationship:  relationshipOr(d.Relationship, rules.Neutral),
	}, nil
}

func resolveConvertMortal(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	mortals, err := r.state.LivingMortals(vampireID)
	if err != nil {
		return nil, err
	}
	return &PendingAction{
		Type:            ConvertMortal,
		Description:     d.Text(),
		Choices:         characterCandidates(mortals),
		NewRelationship: relationshipOr(d.RelationshipChange, rules.Enemy),
	}, nil
}

func resolveAgeMortals(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	mortals, err := r.state.LivingMortals(vampireID)
	if err != nil {
		return nil, err
	}
	choices := make([]Candidate, 0, len(mortals))
	for _, c := range mortals {
		choices = append(choices, Candidate{ID: c.ID, Name: c.Name})
	}
	return &PendingAction{
		Type:        rules.AgeMortals,
		Description: d.Text(),
		Choices:     choices,
		AutoExecute: true,
	}, nil
}

func resolveConvertCharacter(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	living, err := r.state.ListCharacters(vampireID, database.CharacterFilter{ExcludeDead: true})
	if err != nil {
		return nil, err
	}
	return &PendingAction{
		Type:          rules.ConvertCharacterToResource,
		Description:   d.Text(),
		Choices:       characterCandidates(living),
		RequiresInput: true,
		Hint:          d.Hint,
	}, nil
}

func resolveAddSkill(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	return &PendingAction{
		Type:        rules.AddSkill,
		Description: d.Text(),
		SkillName:   d.SkillName,
		AutoExecute: true,
	}, nil
}

func resolveCreateSkill(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	return &PendingAction{
		Type:          rules.CreateSkill,
		Description:   d.Text(),
		RequiresInput: true,
		Hint:          d.Hint,
	}, nil
}

func resolveSkillFromMemory(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	memories, err := r.state.ListMemories(vampireID, database.MemoryFilter{ExcludeLost: true})
	if err != nil {
		return nil, err
	}
	return &PendingAction{
		Type:          rules.CreateSkillFromMemory,
		Description:   d.Text(),
		Choices:       memoryCandidates(memories),
		RequiresInput: true,
		Hint:          d.Hint,
	}, nil
}

// resolveCheckSkills offers up to twice the requested count of unchecked skills.
func resolveCheckSkills(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	count := d.CountOrOne()
	if d.Type == rules.CheckSkill {
		count = 1
	}
	skills, err := r.state.ListSkills(vampireID, database.SkillFilter{ExcludeLost: true, ExcludeChecked: true})
	if err != nil {
		return nil, err
	}
	if len(skills) > 2*count {
		skills = skills[:2*count]
	}
	return &PendingAction{
		Type:        rules.CheckSkills,
		Description: d.Text(),
		Count:       count,
		Choices:     skillCandidates(skills),
	}, nil
}

func resolveLoseSkill(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	skills, err := r.state.ListSkills(vampireID, database.SkillFilter{ExcludeLost: true})
	if err != nil {
		return nil, err
	}
	return &PendingAction{
		Type:        rules.LoseSkill,
		Description: d.Text(),
		Choices:     skillCandidates(skills),
	}, nil
}

func resolveCreateResource(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	return &PendingAction{
		Type:          rules.CreateResource,
		Description:   d.Text(),
		RequiresInput: true,
		IsStationary:  d.Type == rules.CreateStationaryResource,
		Hint:          d.Hint,
	}, nil
}

func resolveLoseResources(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	count := d.CountOrOne()
	if d.Type == rules.LoseResource {
		count = 1
	}
	resources, err := r.state.ListResources(vampireID, database.ResourceFilter{ExcludeLost: true})
	if err != nil {
		return nil, err
	}
	return &PendingAction{
		Type:        rules.LoseResources,
		Description: d.Text(),
		Count:       count,
		Choices:     resourceCandidates(resources),
	}, nil
}

func resolveLoseStationary(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	resources, err := r.state.ListResources(vampireID, database.ResourceFilter{ExcludeLost: true, StationaryOnly: true})
	if err != nil {
		return nil, err
	}
	return &PendingAction{
		Type:        rules.LoseStationaryResources,
		Description: d.Text(),
		Choices:     resourceCandidates(resources),
		AutoExecute: true,
	}, nil
}

func resolveCreateMark(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	return &PendingAction{
		Type:          rules.CreateMark,
		Description:   d.Text(),
		RequiresInput: true,
		Hint:          d.Hint,
	}, nil
}

func resolveRemoveMark(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	marks, err := r.state.ListMarks(vampireID, true)
	if err != nil {
		return nil, err
	}
	choices := make([]Candidate, 0, len(marks))
	for _, m := range marks {
		choices = append(choices, Candidate{ID: m.ID, Description: m.Description})
	}
	return &PendingAction{
		Type:        rules.RemoveMark,
		Description: d.Text(),
		Choices:     choices,
		Optional:    d.Optional,
	}, nil
}

func resolveLoseMemory(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	memories, err := r.state.ListMemories(vampireID, database.MemoryFilter{ExcludeLost: true})
	if err != nil {
		return nil, err
	}
	return &PendingAction{
		Type:        rules.LoseMemory,
		Description: d.Text(),
		Choices:     memoryCandidates(memories),
	}, nil
}

// resolveCreateDiary is skipped while a diary is still kept.
func resolveCreateDiary(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	diary, err := r.state.GetDiary(vampireID)
	if err != nil && !absent(err) {
		return nil, err
	}
	if err == nil && !diary.Lost {
		return nil, nil
	}
	return &PendingAction{
		Type:          rules.CreateDiary,
		Description:   d.Text(),
		RequiresInput: true,
		Hint:          d.Hint,
	}, nil
}

func resolveMoveToDiary(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	memories, err := r.state.ListMemories(vampireID, database.MemoryFilter{ExcludeLost: true, ExcludeInDiary: true})
	if err != nil {
		return nil, err
	}
	return &PendingAction{
		Type:        rules.MoveMemoryToDiary,
		Description: d.Text(),
		Choices:     memoryCandidates(memories),
		Optional:    d.Optional,
	}, nil
}

// resolveLoseDiary is skipped when there is no kept diary to lose.
func resolveLoseDiary(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	diary, err := r.state.GetDiary(vampireID)
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if diary.Lost {
		return nil, nil
	}
	return &PendingAction{
		Type:        rules.LoseDiary,
		Description: d.Text(),
		Choices:     []Candidate{{ID: diary.ID, Description: diary.Description}},
		AutoExecute: true,
	}, nil
}

func resolveTimePasses(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	return &PendingAction{
		Type:        rules.TimePasses,
		Description: d.Text(),
		AutoExecute: true,
		Hint:        d.Hint,
	}, nil
}

// resolveChoice resolves every branch so the player can compare them.
func resolveChoice(r *Resolver, vampireID int64, d rules.Descriptor) (*PendingAction, error) {
	options := make([]PendingOption, 0, len(d.Options))
	for _, opt := range d.Options {
		actions, err := r.resolveAll(vampireID, opt.Actions)
		if err != nil {
			return nil, err
		}
		options = append(options, PendingOption{Choice: opt.Choice, Actions: actions})
	}
	return &PendingAction{
		Type:        rules.Choice,
		Description: d.Text(),
		Options:     options,
	}, nil
}

func relationshipOr(r, fallback rules.Relationship) rules.Relationship {
	if r.Valid() {
		return r
	}
	return fallback
}

func characterCandidates(chars []*database.Character) []Candidate {
	out := make([]Candidate, 0, len(chars))
	for _, c := range chars {
		out = append(out, Candidate{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	return out
}

func skillCandidates(skills []*database.Skill) []Candidate {
	out := make([]Candidate, 0, len(skills))
	for _, s := range skills {
		out = append(out, Candidate{ID: s.ID, Name: s.Name, Description: s.Description})
	}
	return out
}

func resourceCandidates(resources []*database.Resource) []Candidate {
	out := make([]Candidate, 0, len(resources))
	for _, res := range resources {
		out = append(out, Candidate{ID: res.ID, Name: res.Name, Description: res.Description})
	}
	return out
}

func memoryCandidates(memories []*database.Memory) []Candidate {
	out := make([]Candidate, 0, len(memories))
	for _, m := range memories {
		texts := make([]string, 0, len(m.Experiences))
		for _, e := range m.Experiences {
			texts = append(texts, truncateRunes(e.Text, experiencePreview))
		}
		out = append(out, Candidate{ID: m.ID, Title: m.DisplayTitle(), Experiences: texts})
	}
	return out
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
