package rules

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPromptID is returned when a prompt identifier cannot be parsed.
var ErrInvalidPromptID = errors.New("invalid prompt id")

// Entries lists the lettered variants of a prompt number, in visit order.
var Entries = []string{"a", "b", "c"}

// PromptID identifies a prompt by number and entry letter, e.g. "9a".
type PromptID struct {
	Number int
	Entry  string
}

// ParsePromptID parses identifiers such as "9a" or "10C".
func ParsePromptID(s string) (PromptID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i == len(s) {
		return PromptID{}, fmt.Errorf("%w: %q", ErrInvalidPromptID, s)
	}

	number, err := strconv.Atoi(s[:i])
	if err != nil || number < 1 {
		return PromptID{}, fmt.Errorf("%w: %q", ErrInvalidPromptID, s)
	}

	entry := s[i:]
	if !ValidEntry(entry) {
		return PromptID{}, fmt.Errorf("%w: %q", ErrInvalidPromptID, s)
	}

	return PromptID{Number: number, Entry: entry}, nil
}

// String formats the identifier as number followed by entry.
func (p PromptID) String() string {
	return strconv.Itoa(p.Number) + p.Entry
}

// ValidEntry reports whether e is one of the entry letters.
func ValidEntry(e string) bool {
	for _, entry := range Entries {
		if e == entry {
			return true
		}
	}
	return false
}

// EntryForVisits picks the entry letter for a prompt number that has been
// visited the given number of times. Visits past the last entry stay on it.
func EntryForVisits(visits int) string {
	switch {
	case visits <= 0:
		return Entries[0]
	case visits >= len(Entries):
		return Entries[len(Entries)-1]
	default:
		return Entries[visits]
	}
}

// Prompt is a unit of story content and its rule-table entry.
type Prompt struct {
	ID      PromptID
	Text    string
	Actions []Descriptor
}

// HasActions reports whether the prompt carries a rule-table entry.
func (p *Prompt) HasActions() bool {
	return p != nil && len(p.Actions) > 0
}

// PromptDefinition is a prompt as written in the prompts YAML file.
type PromptDefinition struct {
	ID      string       `yaml:"id"`
	Text    string       `yaml:"text"`
	Actions []Descriptor `yaml:"actions"`
}

// PromptsFile represents the structure of the prompts.yaml file.
type PromptsFile struct {
	Prompts []PromptDefinition `yaml:"prompts"`
}

// ParsePrompts converts YAML prompt data into validated prompts.
func ParsePrompts(data []byte) ([]Prompt, error) {
	var file PromptsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompts YAML: %w", err)
	}

	seen := make(map[PromptID]bool, len(file.Prompts))
	prompts := make([]Prompt, 0, len(file.Prompts))
	for _, def := range file.Prompts {
		id, err := ParsePromptID(def.ID)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate prompt %s", id)
		}
		seen[id] = true

		if err := ValidateAll(def.Actions); err != nil {
			return nil, fmt.Errorf("prompt %s: %w", id, err)
		}

		prompts = append(prompts, Prompt{
			ID:      id,
			Text:    strings.TrimSpace(def.Text),
			Actions: def.Actions,
		})
	}

	return prompts, nil
}

// LoadPromptsFromYAML loads prompt definitions from a YAML file.
func LoadPromptsFromYAML(filename string) ([]Prompt, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return ParsePrompts(data)
}
