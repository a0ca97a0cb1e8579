package play

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lawnchairsociety/chronicle/internal/database"
	"github.com/lawnchairsociety/chronicle/internal/rules"
)

// Setup limits per step.
const (
	SetupSteps      = 4
	MaxSetupEntries = 3
	minSkills       = 3
	minResources    = 3
)

var (
	ErrInvalidSetupStep = errors.New("setup step must be between 1 and 4")
	ErrTooManyEntries   = errors.New("too many entries for setup step")
)

// SetupCharacter is a character written during setup.
type SetupCharacter struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Relationship string `json:"relationship,omitempty"`
}

// SetupSkill is a skill written during setup.
type SetupSkill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SetupResource is a resource written during setup.
type SetupResource struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	IsStationary bool   `json:"is_stationary"`
}

// SetupMark is the mark written in step 4.
type SetupMark struct {
	Description  string `json:"description"`
	HowConcealed string `json:"how_concealed"`
}

// SetupRequest carries the fields of one setup step. Only the fields of the
// requested step are read.
type SetupRequest struct {
	// Step 1
	Mortals []SetupCharacter `json:"mortals,omitempty"`

	// Step 2
	Skills    []SetupSkill    `json:"skills,omitempty"`
	Resources []SetupResource `json:"resources,omitempty"`

	// Step 3: experiences for memories 2, 3 and 4 in order.
	Experiences []string `json:"experiences,omitempty"`

	// Step 4
	Immortal       *SetupCharacter `json:"immortal,omitempty"`
	Mark           *SetupMark      `json:"mark,omitempty"`
	Transformation string          `json:"transformation,omitempty"`
}

// ApplySetup writes one step of character creation and returns what was
// created. Entries with a blank name or text are skipped.
func (c *Controller) ApplySetup(vampireID int64, step int, req SetupRequest) ([]string, error) {
	if step < 1 || step > SetupSteps {
		return nil, ErrInvalidSetupStep
	}
	v, err := c.store.GetVampire(vampireID)
	if err != nil {
		return nil, err
	}
	if v.GameEnded {
		return nil, ErrGameEnded
	}

	switch step {
	case 1:
		return c.setupMortals(vampireID, req.Mortals)
	case 2:
		return c.setupSkillsAndResources(vampireID, req.Skills, req.Resources)
	case 3:
		return c.setupExperiences(vampireID, req.Experiences)
	default:
		return c.setupTransformation(vampireID, req)
	}
}

func (c *Controller) setupMortals(vampireID int64, mortals []SetupCharacter) ([]string, error) {
	if len(mortals) > MaxSetupEntries {
		return nil, fmt.Errorf("%w: %d mortals", ErrTooManyEntries, len(mortals))
	}

	log := []string{}
	for _, m := range mortals {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		ch, err := c.store.CreateCharacter(vampireID, database.NewCharacter{
			Name:         m.Name,
			Description:  m.Description,
			Type:         rules.Mortal,
			Relationship: rules.Relationship(m.Relationship),
		})
		if err != nil {
			return log, err
		}
		log = append(log, "Created mortal: "+ch.Name)
	}
	return log, nil
}

func (c *Controller) setupSkillsAndResources(vampireID int64, skills []SetupSkill, resources []SetupResource) ([]string, error) {
	if len(skills) > MaxSetupEntries {
		return nil, fmt.Errorf("%w: %d skills", ErrTooManyEntries, len(skills))
	}
	if len(resources) > MaxSetupEntries {
		return nil, fmt.Errorf("%w: %d resources", ErrTooManyEntries, len(resources))
	}

	log := []string{}
	for _, s := range skills {
		if strings.TrimSpace(s.Name) == "" {
			continue
		}
		skill, err := c.store.CreateSkill(vampireID, s.Name, s.Description)
		if err != nil {
			return log, err
		}
		log = append(log, "Created skill: "+skill.Name)
	}
	for _, r := range resources {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		res, err := c.store.CreateResource(vampireID, r.Name, r.Description, r.IsStationary)
		if err != nil {
			return log, err
		}
		log = append(log, "Created resource: "+res.Name)
	}
	return log, nil
}

func (c *Controller) setupExperiences(vampireID int64, experiences []string) ([]string, error) {
	if len(experiences) > MaxSetupEntries {
		return nil, fmt.Errorf("%w: %d experiences", ErrTooManyEntries, len(experiences))
	}

	log := []string{}
	for i, text := range experiences {
		slot := i + 2
		line, err := c.writeExperience(vampireID, slot, text)
		if err != nil {
			return log, err
		}
		if line != "" {
			log = append(log, line)
		}
	}
	return log, nil
}

func (c *Controller) setupTransformation(vampireID int64, req SetupRequest) ([]string, error) {
	log := []string{}

	if req.Immortal != nil && strings.TrimSpace(req.Immortal.Name) != "" {
		ch, err := c.store.CreateCharacter(vampireID, database.NewCharacter{
			Name:         req.Immortal.Name,
			Description:  req.Immortal.Description,
			Type:         rules.Immortal,
			Relationship: rules.Master,
		})
		if err != nil {
			return log, err
		}
		log = append(log, "Created immortal: "+ch.Name)
	}

	if req.Mark != nil && strings.TrimSpace(req.Mark.Description) != "" {
		if _, err := c.store.CreateMark(vampireID, req.Mark.Description, req.Mark.HowConcealed); err != nil {
			return log, err
		}
		log = append(log, "Created mark")
	}

	line, err := c.writeExperience(vampireID, database.MemorySlots, req.Transformation)
	if err != nil {
		return log, err
	}
	if line != "" {
		log = append(log, line)
	}
	return log, nil
}

func (c *Controller) writeExperience(vampireID int64, slot int, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	m, err := c.store.GetMemoryBySlot(vampireID, slot)
	if err != nil {
		return "", err
	}
	if _, err := c.store.AddExperience(vampireID, m.ID, text); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added experience to memory %d", slot), nil
}

// SetupComplete reports whether the vampire has the skills, resources,
// immortal, mark and transformation memory a chronicle starts with.
func (c *Controller) SetupComplete(vampireID int64) (bool, error) {
	s, err := c.store.GetSetupStatus(vampireID)
	if err != nil {
		return false, err
	}
	return setupDone(s), nil
}

func setupDone(s *database.SetupStatus) bool {
	return s.Skills >= minSkills &&
		s.Resources >= minResources &&
		s.Immortals > 0 &&
		s.Marks > 0 &&
		s.FinalMemorySet
}
