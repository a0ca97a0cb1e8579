package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParsePromptID(t *testing.T) {
	tests := []struct {
		input   string
		want    PromptID
		wantErr bool
	}{
		{"1a", PromptID{1, "a"}, false},
		{"9b", PromptID{9, "b"}, false},
		{"10C", PromptID{10, "c"}, false},
		{" 42a ", PromptID{42, "a"}, false},
		{"", PromptID{}, true},
		{"a", PromptID{}, true},
		{"12", PromptID{}, true},
		{"3d", PromptID{}, true},
		{"3ab", PromptID{}, true},
		{"0a", PromptID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePromptID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPromptID) {
					t.Errorf("ParsePromptID(%q) error = %v, want ErrInvalidPromptID", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePromptID(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePromptID(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPromptIDString(t *testing.T) {
	id := PromptID{Number: 17, Entry: "b"}
	if id.String() != "17b" {
		t.Errorf("Expected '17b', got '%s'", id.String())
	}
}

func TestEntryForVisits(t *testing.T) {
	tests := []struct {
		visits int
		want   string
	}{
		{0, "a"},
		{1, "b"},
		{2, "c"},
		{3, "c"},
		{10, "c"},
		{-1, "a"},
	}
	for _, tt := range tests {
		if got := EntryForVisits(tt.visits); got != tt.want {
			t.Errorf("EntryForVisits(%d) = %q, want %q", tt.visits, got, tt.want)
		}
	}
}

func TestParseActionType(t *testing.T) {
	if _, err := ParseActionType("kill_mortal"); err != nil {
		t.Errorf("kill_mortal should be known: %v", err)
	}
	if _, err := ParseActionType("kil_mortal"); !errors.Is(err, ErrUnknownActionType) {
		t.Errorf("Expected ErrUnknownActionType for typo, got %v", err)
	}
}

func TestActionTypesHaveLabels(t *testing.T) {
	for _, at := range ActionTypes() {
		if at.Label() == "" {
			t.Errorf("Action type %s has no label", at)
		}
	}
}

func TestParseRelationship(t *testing.T) {
	tests := []struct {
		input string
		want  Relationship
	}{
		{"enemy", Enemy},
		{" Lover ", Lover},
		{"", Neutral},
		{"rival", Neutral},
	}
	for _, tt := range tests {
		if got := ParseRelationship(tt.input); got != tt.want {
			t.Errorf("ParseRelationship(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParseCharacterType(t *testing.T) {
	if ParseCharacterType("IMMORTAL") != Immortal {
		t.Error("Expected immortal")
	}
	if ParseCharacterType("ghost") != Mortal {
		t.Error("Unknown types should default to mortal")
	}
}

func TestDescriptorValidate(t *testing.T) {
	tests := []struct {
		name    string
		d       Descriptor
		wantErr bool
	}{
		{"valid kill", Descriptor{Type: KillMortal, Conditional: CreateIfNoneExist}, false},
		{"unknown type", Descriptor{Type: "feed"}, true},
		{"add skill without name", Descriptor{Type: AddSkill}, true},
		{"negative count", Descriptor{Type: CheckSkills, Count: -1}, true},
		{"bad conditional", Descriptor{Type: CreateMortal, Conditional: "sometimes"}, true},
		{"bad relationship", Descriptor{Type: CreateImmortal, Relationship: "rival"}, true},
		{"choice without options", Descriptor{Type: Choice}, true},
		{"options on non-choice", Descriptor{Type: CreateMark, Options: []Option{{Choice: "x"}}}, true},
		{"choice with bad nested action", Descriptor{Type: Choice, Options: []Option{
			{Choice: "a", Actions: []Descriptor{{Type: "bogus"}}},
		}}, true},
		{"valid choice", Descriptor{Type: Choice, Options: []Option{
			{Choice: "a", Actions: []Descriptor{{Type: AddSkill, SkillName: "Patience"}}},
			{Choice: "b", Actions: []Descriptor{{Type: CheckSkills, Count: 2}}},
		}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDescriptorText(t *testing.T) {
	d := Descriptor{Type: LoseSkill}
	if d.Text() != "Lose a skill" {
		t.Errorf("Expected label fallback, got '%s'", d.Text())
	}
	d.Description = "Forget your craft"
	if d.Text() != "Forget your craft" {
		t.Errorf("Expected description, got '%s'", d.Text())
	}
}

func TestEncodeDecodeActions(t *testing.T) {
	actions := []Descriptor{
		{Type: KillMortal, Description: "Kill", Conditional: CreateIfNoneExist},
		{Type: Choice, Description: "Pick", Options: []Option{
			{Choice: "crawl_back", Actions: []Descriptor{{Type: AddSkill, SkillName: "Belly on the Ground"}}},
		}},
	}

	encoded, err := EncodeActions(actions)
	if err != nil {
		t.Fatalf("EncodeActions failed: %v", err)
	}

	decoded, err := DecodeActions(encoded)
	if err != nil {
		t.Fatalf("DecodeActions failed: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 actions, got %d", len(decoded))
	}
	if decoded[0].Conditional != CreateIfNoneExist {
		t.Errorf("Conditional lost in round trip: %q", decoded[0].Conditional)
	}
	if decoded[1].Options[0].Actions[0].SkillName != "Belly on the Ground" {
		t.Errorf("Nested skill name lost: %+v", decoded[1].Options[0])
	}

	empty, err := DecodeActions("")
	if err != nil || empty != nil {
		t.Errorf("Expected nil actions for blank input, got %v, %v", empty, err)
	}
}

func TestParsePrompts(t *testing.T) {
	data := []byte(`
prompts:
  - id: 1a
    text: Kill a mortal character.
    actions:
      - type: kill_mortal
        description: Kill a mortal character
        conditional: create_if_none_exist
  - id: 4a
    text: Create a mark.
`)

	prompts, err := ParsePrompts(data)
	if err != nil {
		t.Fatalf("ParsePrompts failed: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("Expected 2 prompts, got %d", len(prompts))
	}
	if prompts[0].ID != (PromptID{1, "a"}) || !prompts[0].HasActions() {
		t.Errorf("Unexpected first prompt: %+v", prompts[0])
	}
	if prompts[1].HasActions() {
		t.Error("Prompt 4a should have no actions")
	}
}

func TestParsePromptsRejectsUnknownAction(t *testing.T) {
	data := []byte(`
prompts:
  - id: 1a
    text: Something.
    actions:
      - type: kil_mortal
`)
	if _, err := ParsePrompts(data); !errors.Is(err, ErrUnknownActionType) {
		t.Errorf("Expected ErrUnknownActionType, got %v", err)
	}
}

func TestParsePromptsRejectsDuplicates(t *testing.T) {
	data := []byte(`
prompts:
  - id: 1a
    text: One.
  - id: 1A
    text: Again.
`)
	if _, err := ParsePrompts(data); err == nil {
		t.Error("Expected duplicate prompt error")
	}
}

func TestLoadPromptsFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := "prompts:\n  - id: 2a\n    text: Create a stationary Resource.\n    actions:\n      - type: create_stationary_resource\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write prompts file: %v", err)
	}

	prompts, err := LoadPromptsFromYAML(path)
	if err != nil {
		t.Fatalf("LoadPromptsFromYAML failed: %v", err)
	}
	if len(prompts) != 1 || prompts[0].Actions[0].Type != CreateStationaryResource {
		t.Errorf("Unexpected prompts: %+v", prompts)
	}

	if _, err := LoadPromptsFromYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestShippedPromptsFileIsValid(t *testing.T) {
	prompts, err := LoadPromptsFromYAML(filepath.Join("..", "..", "data", "prompts.yaml"))
	if err != nil {
		t.Fatalf("Shipped prompts file failed to load: %v", err)
	}
	if len(prompts) == 0 {
		t.Fatal("Shipped prompts file is empty")
	}
}
