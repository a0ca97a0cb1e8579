package actions

import (
	"testing"

	"github.com/lawnchairsociety/chronicle/internal/rules"
)

func TestTextMatcher(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []rules.ActionType
	}{
		{"kill", "You must kill a mortal character.", []rules.ActionType{rules.KillMortal}},
		{"create mortal", "Create a new mortal character who loves you.", []rules.ActionType{rules.CreateMortal}},
		{"conditional mortal is not created", "Kill a character. Create a mortal if none are available and create a mortal character.", []rules.ActionType{rules.KillMortal}},
		{"immortal", "Create an immortal who hunts you.", []rules.ActionType{rules.CreateImmortal}},
		{"convert", "Drink deep, turning them into a monster like yourself.", []rules.ActionType{rules.ConvertMortalToImmortal}},
		{"generic skill", "Create a skill that reflects your loss.", []rules.ActionType{rules.CreateSkill}},
		{"named skill suppresses generic", "Create a skill. Gain the skill Patience.", []rules.ActionType{rules.AddSkill}},
		{"check", "Check 2 Skills.", []rules.ActionType{rules.CheckSkills}},
		{"lose skill", "Lose one of your skills.", []rules.ActionType{rules.LoseSkill}},
		{"resources", "Gain a stationary resource. Lose 1 resource.", []rules.ActionType{rules.CreateStationaryResource, rules.LoseResources}},
		{"all stationary", "Lose all stationary resources.", []rules.ActionType{rules.LoseStationaryResources}},
		{"mark", "Take a mark.", []rules.ActionType{rules.CreateMark}},
		{"remove mark", "You may remove a mark.", []rules.ActionType{rules.RemoveMark}},
		{"age", "Centuries pass. Strikeout all mortal characters.", []rules.ActionType{rules.AgeMortals}},
		{"memory", "Strikeout a memory.", []rules.ActionType{rules.LoseMemory}},
		{"nothing", "The night is quiet.", nil},
	}

	m := NewTextMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Match(%q) = %+v, want types %v", tt.text, got, tt.want)
			}
			for i, d := range got {
				if d.Type != tt.want[i] {
					t.Errorf("Match(%q)[%d] = %s, want %s", tt.text, i, d.Type, tt.want[i])
				}
				if err := d.Validate(); err != nil {
					t.Errorf("Match(%q)[%d] is invalid: %v", tt.text, i, err)
				}
			}
		})
	}
}

func TestTextMatcherSkillNames(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Take the skill Bloodthirsty.", "Bloodthirsty"},
		{"gain the skill belly on the ground", "Belly On The Ground"},
		{"Take the skill Cunning and Guile. Then rest.", "Cunning and Guile"},
	}
	m := NewTextMatcher()
	for _, tt := range tests {
		got := m.Match(tt.text)
		if len(got) != 1 || got[0].SkillName != tt.want {
			t.Errorf("Match(%q) = %+v, want skill %q", tt.text, got, tt.want)
		}
	}
}

func TestTextMatcherCounts(t *testing.T) {
	m := NewTextMatcher()

	got := m.Match("Check 3 skills and lose 2 resources.")
	if len(got) != 2 || got[0].Count != 3 || got[1].Count != 2 {
		t.Errorf("Unexpected counts: %+v", got)
	}

	got = m.Match("Remove a mark.")
	if len(got) != 1 || got[0].Optional {
		t.Errorf("Remove a mark without 'you may' is not optional: %+v", got)
	}

	got = m.Match("Kill a character.")
	if got[0].Conditional != rules.CreateIfNoneExist {
		t.Errorf("Fallback kill should allow creating a victim: %+v", got[0])
	}
}
