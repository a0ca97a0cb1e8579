// Package play drives a chronicle from character creation through the prompt
// loop: setup, turns and the end of the game.
package play

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/lawnchairsociety/chronicle/internal/database"
	"github.com/lawnchairsociety/chronicle/internal/dice"
	"github.com/lawnchairsociety/chronicle/internal/logger"
	"github.com/lawnchairsociety/chronicle/internal/telemetry"
)

var (
	ErrEmptyResponse   = errors.New("response must not be empty")
	ErrGameEnded       = errors.New("the chronicle has ended")
	ErrSetupIncomplete = errors.New("character setup is incomplete")
	ErrEmptyName       = errors.New("name must not be empty")
)

var tracer = telemetry.Tracer("play")

// Store is the persistence the controller needs.
type Store interface {
	CreateVampire(name, origin string) (*database.Vampire, error)
	GetVampire(id int64) (*database.Vampire, error)
	SetGameEnded(id int64) error
	RecordTurn(turn database.Turn) (*database.TurnOutcome, error)
	GetSetupStatus(vampireID int64) (*database.SetupStatus, error)

	CreateCharacter(vampireID int64, nc database.NewCharacter) (*database.Character, error)
	CreateSkill(vampireID int64, name, description string) (*database.Skill, error)
	CreateResource(vampireID int64, name, description string, stationary bool) (*database.Resource, error)
	CreateMark(vampireID int64, description, howConcealed string) (*database.Mark, error)
	GetMemoryBySlot(vampireID int64, slot int) (*database.Memory, error)
	AddExperience(vampireID, memoryID int64, text string) (*database.Experience, error)

	ListMemories(vampireID int64, f database.MemoryFilter) ([]*database.Memory, error)
	ListSkills(vampireID int64, f database.SkillFilter) ([]*database.Skill, error)
	ListResources(vampireID int64, f database.ResourceFilter) ([]*database.Resource, error)
	ListCharacters(vampireID int64, f database.CharacterFilter) ([]*database.Character, error)
	ListMarks(vampireID int64, excludeRemoved bool) ([]*database.Mark, error)
	GetDiary(vampireID int64) (*database.Diary, error)
}

var _ Store = (*database.Database)(nil)

// Options configures a Controller.
type Options struct {
	// RequireSetup refuses turns until character setup is complete.
	RequireSetup bool
}

// Controller runs the play loop for any number of vampires.
type Controller struct {
	store  Store
	roller dice.Roller
	opts   Options
}

// NewController creates a controller. A nil roller rolls real dice.
func NewController(store Store, roller dice.Roller, opts Options) *Controller {
	if roller == nil {
		roller = dice.RandomRoller{}
	}
	return &Controller{store: store, roller: roller, opts: opts}
}

// CreateVampire starts a new chronicle at prompt 1a.
func (c *Controller) CreateVampire(name, origin string) (*database.Vampire, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	v, err := c.store.CreateVampire(name, origin)
	if err != nil {
		return nil, err
	}
	logger.Info("Vampire created", "vampire_id", v.ID, "name", v.Name)
	return v, nil
}

// TurnResult is what the player learns after answering a prompt.
type TurnResult struct {
	PromptNumber     int    `json:"prompt_number"`
	PromptEntry      string `json:"prompt_entry"`
	NextPromptNumber int    `json:"next_prompt_number"`
	NextEntry        string `json:"next_entry"`
	D10              int    `json:"d10"`
	D6               int    `json:"d6"`
	Movement         int    `json:"movement"`
	MemorySlot       int    `json:"memory_slot"`
	Evicted          bool   `json:"evicted"`
	Note             string `json:"note,omitempty"`
}

// AdvanceTurn records the response as an experience, rolls the dice and
// moves the vampire to its next prompt.
func (c *Controller) AdvanceTurn(ctx context.Context, vampireID int64, response string) (*TurnResult, error) {
	ctx, span := tracer.Start(ctx, "play.AdvanceTurn")
	defer span.End()
	span.SetAttributes(attribute.Int64("vampire.id", vampireID))

	result, err := c.advanceTurn(ctx, vampireID, response)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("dice.d10", result.D10),
		attribute.Int("dice.d6", result.D6),
		attribute.String("prompt.next", fmt.Sprintf("%d%s", result.NextPromptNumber, result.NextEntry)),
	)
	return result, nil
}

func (c *Controller) advanceTurn(ctx context.Context, vampireID int64, response string) (*TurnResult, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, ErrEmptyResponse
	}

	v, err := c.store.GetVampire(vampireID)
	if err != nil {
		return nil, err
	}
	if v.GameEnded {
		return nil, ErrGameEnded
	}
	if c.opts.RequireSetup {
		done, err := c.SetupComplete(vampireID)
		if err != nil {
			return nil, err
		}
		if !done {
			return nil, ErrSetupIncomplete
		}
	}

	roll := c.roller.Roll()
	outcome, err := c.store.RecordTurn(database.Turn{
		VampireID:  vampireID,
		Response:   response,
		D10:        roll.D10,
		D6:         roll.D6,
		NextPrompt: roll.NextPrompt(v.CurrentPrompt),
	})
	if err != nil {
		return nil, err
	}

	result := &TurnResult{
		PromptNumber:     outcome.Session.PromptNumber,
		PromptEntry:      outcome.Session.PromptEntry,
		NextPromptNumber: outcome.Session.NextPrompt,
		NextEntry:        outcome.NextEntry,
		D10:              roll.D10,
		D6:               roll.D6,
		Movement:         roll.Movement(),
		MemorySlot:       outcome.Memory.Slot,
		Evicted:          outcome.Evicted,
	}
	if outcome.Evicted {
		result.Note = "Lost memory: " + outcome.EvictedTitle
		logger.InfoContext(ctx, "Memory evicted", "vampire_id", vampireID, "slot", outcome.Memory.Slot, "title", outcome.EvictedTitle)
	}

	logger.DebugContext(ctx, "Turn advanced",
		"vampire_id", vampireID,
		"from", outcome.Session.PromptID().String(),
		"d10", roll.D10,
		"d6", roll.D6,
		"next", fmt.Sprintf("%d%s", result.NextPromptNumber, result.NextEntry))
	return result, nil
}

// EndGame closes the chronicle. Further turns return ErrGameEnded.
func (c *Controller) EndGame(vampireID int64) error {
	if err := c.store.SetGameEnded(vampireID); err != nil {
		return err
	}
	logger.Info("Chronicle ended", "vampire_id", vampireID)
	return nil
}
