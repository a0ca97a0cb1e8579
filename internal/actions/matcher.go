package actions

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lawnchairsociety/chronicle/internal/rules"
)

var (
	killPhrases = []string{
		"kill a mortal character",
		"kill a character",
		"murder someone",
		"destroy someone close to you",
	}
	createMortalPhrases = []string{
		"create a new mortal character",
		"create a mortal character",
	}
	createImmortalPhrases = []string{
		"create an immortal",
		"create a new immortal character",
		"create an immortal character",
	}
	convertPhrases = []string{
		"convert a mortal character into an immortal",
		"turning them into a monster like yourself",
	}
	createSkillPhrases = []string{
		"create a skill that reflects",
		"create a skill based on",
		"create an appropriate skill",
	}
	loseSkillPhrases = []string{
		"lose a skill",
		"lose one of your skills",
	}
	stationaryResourcePhrases = []string{
		"gain a stationary resource",
		"create a stationary resource",
	}
	resourcePhrases = []string{
		"gain a resource",
		"create a resource",
	}
	createMarkPhrases = []string{
		"gain a mark",
		"create a mark",
		"take a mark",
	}
	removeMarkPhrases = []string{
		"remove a mark",
		"you may remove a mark",
	}
	loseMemoryPhrases = []string{
		"strikeout a memory",
		"lose a memory",
	}

	namedSkillPattern    = regexp.MustCompile(`(?:take|gain) the skill ([^.]+?)(?:\.|$)`)
	checkSkillsPattern   = regexp.MustCompile(`check (\d+) skills?`)
	loseResourcesPattern = regexp.MustCompile(`lose (\d+) resources?`)
)

// TextMatcher is the best-effort fallback for prompts with no rule-table
// entry. It recognizes a fixed list of rulebook phrases and emits the same
// descriptors a rule-table entry would.
type TextMatcher struct{}

// NewTextMatcher creates a TextMatcher.
func NewTextMatcher() *TextMatcher {
	return &TextMatcher{}
}

// Match scans text case-insensitively and returns the descriptors it implies.
func (m *TextMatcher) Match(text string) []rules.Descriptor {
	text = strings.ToLower(text)

	var found []rules.Descriptor
	found = append(found, matchCharacters(text)...)
	found = append(found, matchSkills(text)...)
	found = append(found, matchResources(text)...)
	found = append(found, matchMarks(text)...)
	found = append(found, matchMemories(text)...)
	return found
}

func matchCharacters(text string) []rules.Descriptor {
	var found []rules.Descriptor
	if containsAny(text, killPhrases) {
		found = append(found, rules.Descriptor{
			Type:        rules.KillMortal,
			Description: "Kill a mortal character",
			Conditional: rules.CreateIfNoneExist,
		})
	}
	if containsAny(text, createMortalPhrases) && !strings.Contains(text, "create a mortal if none are available") {
		found = append(found, rules.Descriptor{
			Type:        rules.CreateMortal,
			Description: "Create a new mortal character",
		})
	}
	if containsAny(text, createImmortalPhrases) {
		found = append(found, rules.Descriptor{
			Type:        rules.CreateImmortal,
			Description: "Create a new immortal character",
		})
	}
	if containsAny(text, convertPhrases) {
		found = append(found, rules.Descriptor{
			Type:        rules.ConvertMortalToImmortal,
			Description: "Convert a mortal character into an immortal",
		})
	}
	return found
}

func matchSkills(text string) []rules.Descriptor {
	var found []rules.Descriptor
	for _, match := range namedSkillPattern.FindAllStringSubmatch(text, -1) {
		name := titleSkill(match[1])
		if name == "" {
			continue
		}
		found = append(found, rules.Descriptor{
			Type:        rules.AddSkill,
			Description: "Gain the skill: " + name,
			SkillName:   name,
		})
	}

	named := len(found) > 0
	generic := containsAny(text, createSkillPhrases) ||
		(strings.Contains(text, "create a skill") &&
			!strings.Contains(text, "take the skill") &&
			!strings.Contains(text, "gain the skill"))
	if generic && !named {
		found = append(found, rules.Descriptor{Type: rules.CreateSkill, Description: "Create a new skill"})
	}

	for _, match := range checkSkillsPattern.FindAllStringSubmatch(text, -1) {
		count, err := strconv.Atoi(match[1])
		if err != nil || count < 1 {
			continue
		}
		found = append(found, rules.Descriptor{
			Type:        rules.CheckSkills,
			Description: fmt.Sprintf("Check %d skill(s)", count),
			Count:       count,
		})
	}

	if containsAny(text, loseSkillPhrases) {
		found = append(found, rules.Descriptor{Type: rules.LoseSkill, Description: "Lose a skill"})
	}
	return found
}

func matchResources(text string) []rules.Descriptor {
	var found []rules.Descriptor
	if containsAny(text, stationaryResourcePhrases) {
		found = append(found, rules.Descriptor{
			Type:        rules.CreateStationaryResource,
			Description: "Gain a new stationary resource",
		})
	}
	if containsAny(text, resourcePhrases) {
		found = append(found, rules.Descriptor{Type: rules.CreateResource, Description: "Gain a new resource"})
	}
	for _, match := range loseResourcesPattern.FindAllStringSubmatch(text, -1) {
		count, err := strconv.Atoi(match[1])
		if err != nil || count < 1 {
			continue
		}
		found = append(found, rules.Descriptor{
			Type:        rules.LoseResources,
			Description: fmt.Sprintf("Lose %d resource(s)", count),
			Count:       count,
		})
	}
	if strings.Contains(text, "lose all stationary resources") {
		found = append(found, rules.Descriptor{
			Type:        rules.LoseStationaryResources,
			Description: "Lose all stationary resources",
		})
	}
	return found
}

func matchMarks(text string) []rules.Descriptor {
	var found []rules.Descriptor
	if containsAny(text, createMarkPhrases) {
		found = append(found, rules.Descriptor{Type: rules.CreateMark, Description: "Gain a new mark"})
	}
	if containsAny(text, removeMarkPhrases) {
		found = append(found, rules.Descriptor{
			Type:        rules.RemoveMark,
			Description: "Remove a mark",
			Optional:    strings.Contains(text, "you may"),
		})
	}
	return found
}

func matchMemories(text string) []rules.Descriptor {
	switch {
	case strings.Contains(text, "strikeout all mortal characters"):
		return []rules.Descriptor{{Type: rules.AgeMortals, Description: "All mortal characters die of old age"}}
	case containsAny(text, loseMemoryPhrases):
		return []rules.Descriptor{{Type: rules.LoseMemory, Description: "Lose a memory"}}
	}
	return nil
}

// titleSkill title-cases a captured skill name, keeping "and" lower case.
func titleSkill(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = cases.Title(language.English).String(s)
	return strings.ReplaceAll(s, " And", " and")
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
