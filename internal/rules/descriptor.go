package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDescriptor is returned when a descriptor fails validation.
var ErrInvalidDescriptor = errors.New("invalid action descriptor")

// Descriptor is one required mechanical consequence of a prompt.
type Descriptor struct {
	Type               ActionType   `yaml:"type" json:"type"`
	Description        string       `yaml:"description" json:"description"`
	Conditional        Conditional  `yaml:"conditional,omitempty" json:"conditional,omitempty"`
	Count              int          `yaml:"count,omitempty" json:"count,omitempty"`
	SkillName          string       `yaml:"skill_name,omitempty" json:"skill_name,omitempty"`
	Relationship       Relationship `yaml:"relationship,omitempty" json:"relationship,omitempty"`
	RelationshipChange Relationship `yaml:"relationship_change,omitempty" json:"relationship_change,omitempty"`
	Hint               string       `yaml:"hint,omitempty" json:"hint,omitempty"`
	Note               string       `yaml:"note,omitempty" json:"note,omitempty"`
	Optional           bool         `yaml:"optional,omitempty" json:"optional,omitempty"`
	Options            []Option     `yaml:"options,omitempty" json:"options,omitempty"`
}

// Option is one mutually exclusive branch of a choice descriptor.
type Option struct {
	Choice  string       `yaml:"choice" json:"choice"`
	Actions []Descriptor `yaml:"actions" json:"actions"`
}

// Text returns the descriptor's description, or the action label when blank.
func (d Descriptor) Text() string {
	if strings.TrimSpace(d.Description) != "" {
		return d.Description
	}
	return d.Type.Label()
}

// CountOrOne returns the requested count, treating zero as one.
func (d Descriptor) CountOrOne() int {
	if d.Count <= 0 {
		return 1
	}
	return d.Count
}

// Validate checks a descriptor against the vocabulary.
func (d Descriptor) Validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownActionType, d.Type)
	}
	if d.Count < 0 {
		return fmt.Errorf("%w: %s count must not be negative", ErrInvalidDescriptor, d.Type)
	}
	if d.Conditional != "" && d.Conditional != CreateIfNoneExist {
		return fmt.Errorf("%w: %s has unknown conditional %q", ErrInvalidDescriptor, d.Type, d.Conditional)
	}
	if d.Relationship != "" && !d.Relationship.Valid() {
		return fmt.Errorf("%w: %s has unknown relationship %q", ErrInvalidDescriptor, d.Type, d.Relationship)
	}
	if d.RelationshipChange != "" && !d.RelationshipChange.Valid() {
		return fmt.Errorf("%w: %s has unknown relationship change %q", ErrInvalidDescriptor, d.Type, d.RelationshipChange)
	}

	switch d.Type {
	case AddSkill:
		if strings.TrimSpace(d.SkillName) == "" {
			return fmt.Errorf("%w: add_skill requires skill_name", ErrInvalidDescriptor)
		}
	case Choice:
		if len(d.Options) == 0 {
			return fmt.Errorf("%w: choice requires options", ErrInvalidDescriptor)
		}
		for i, opt := range d.Options {
			if strings.TrimSpace(opt.Choice) == "" {
				return fmt.Errorf("%w: choice option %d has no name", ErrInvalidDescriptor, i)
			}
			if err := ValidateAll(opt.Actions); err != nil {
				return fmt.Errorf("choice option %q: %w", opt.Choice, err)
			}
		}
	default:
		if len(d.Options) > 0 {
			return fmt.Errorf("%w: only choice may carry options", ErrInvalidDescriptor)
		}
	}

	return nil
}

// ValidateAll validates every descriptor in order.
func ValidateAll(descriptors []Descriptor) error {
	for i, d := range descriptors {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

// EncodeActions serializes a descriptor list for storage.
func EncodeActions(descriptors []Descriptor) (string, error) {
	if len(descriptors) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(descriptors)
	if err != nil {
		return "", fmt.Errorf("failed to encode actions: %w", err)
	}
	return string(data), nil
}

// DecodeActions parses a stored descriptor list. Blank input yields no actions.
func DecodeActions(data string) ([]Descriptor, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	var descriptors []Descriptor
	if err := json.Unmarshal([]byte(data), &descriptors); err != nil {
		return nil, fmt.Errorf("failed to decode actions: %w", err)
	}
	return descriptors, nil
}
