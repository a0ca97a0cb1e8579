package actions

import "github.com/lawnchairsociety/chronicle/internal/rules"

// ConvertMortal is the pending and executable form of convert_mortal_to_immortal.
const ConvertMortal rules.ActionType = "convert_mortal"

// PendingAction is a descriptor resolved against the vampire's live state.
type PendingAction struct {
	Type            rules.ActionType   `json:"type"`
	Description     string             `json:"description"`
	Choices         []Candidate        `json:"choices,omitempty"`
	AutoExecute     bool               `json:"auto_execute,omitempty"`
	AllowCreate     bool               `json:"allow_create,omitempty"`
	RequiresInput   bool               `json:"requires_input,omitempty"`
	Count           int                `json:"count,omitempty"`
	SkillName       string             `json:"skill_name,omitempty"`
	Relationship    rules.Relationship `json:"relationship,omitempty"`
	NewRelationship rules.Relationship `json:"new_relationship,omitempty"`
	IsStationary    bool               `json:"is_stationary,omitempty"`
	Hint            string             `json:"hint,omitempty"`
	Optional        bool               `json:"optional,omitempty"`
	Options         []PendingOption    `json:"options,omitempty"`
}

// Candidate is one entity the player may pick for a pending action.
type Candidate struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Title       string   `json:"title,omitempty"`
	Experiences []string `json:"experiences,omitempty"`
}

// PendingOption is one branch of a pending choice with its resolved actions.
type PendingOption struct {
	Choice  string          `json:"choice"`
	Actions []PendingAction `json:"actions"`
}
