package play

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/lawnchairsociety/chronicle/internal/database"
	"github.com/lawnchairsociety/chronicle/internal/dice"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// sequence returns its rolls in order and then repeats the last one.
type sequence struct {
	rolls []dice.Roll
	next  int
}

func (s *sequence) Roll() dice.Roll {
	r := s.rolls[min(s.next, len(s.rolls)-1)]
	s.next++
	return r
}

func newController(t *testing.T, roller dice.Roller) (*Controller, *database.Database) {
	t.Helper()
	db := setupTestDB(t)
	return NewController(db, roller, Options{}), db
}

func completeSetup(t *testing.T, c *Controller, vampireID int64) {
	t.Helper()
	steps := []SetupRequest{
		{Mortals: []SetupCharacter{{Name: "Ada", Relationship: "lover"}, {Name: "Bram"}, {Name: "Cora"}}},
		{
			Skills:    []SetupSkill{{Name: "Bookkeeping"}, {Name: "Prayer"}, {Name: "Riding"}},
			Resources: []SetupResource{{Name: "Family Farm", IsStationary: true}, {Name: "Silver Ring"}, {Name: "Old Horse"}},
		},
		{Experiences: []string{"I kept the ledgers.", "I prayed every dusk.", "I rode to market."}},
		{
			Immortal:       &SetupCharacter{Name: "The Stranger", Description: "Pale and patient."},
			Mark:           &SetupMark{Description: "Cold skin", HowConcealed: "Gloves"},
			Transformation: "The Stranger drank from me in the barn.",
		},
	}
	for i, req := range steps {
		if _, err := c.ApplySetup(vampireID, i+1, req); err != nil {
			t.Fatalf("ApplySetup step %d failed: %v", i+1, err)
		}
	}
}

func TestCreateVampire(t *testing.T) {
	c, db := newController(t, nil)

	v, err := c.CreateVampire("Marguerite", "A farmer's daughter.")
	if err != nil {
		t.Fatalf("CreateVampire failed: %v", err)
	}
	if v.CurrentPrompt != 1 || v.PromptEntry != "a" {
		t.Errorf("Expected prompt 1a, got %d%s", v.CurrentPrompt, v.PromptEntry)
	}

	memories, err := db.ListMemories(v.ID, database.MemoryFilter{})
	if err != nil {
		t.Fatalf("ListMemories failed: %v", err)
	}
	if len(memories) != database.MemorySlots {
		t.Fatalf("Expected %d memories, got %d", database.MemorySlots, len(memories))
	}
	if len(memories[0].Experiences) != 1 || memories[0].Experiences[0].Text != "A farmer's daughter." {
		t.Errorf("Expected origin in memory 1, got %+v", memories[0].Experiences)
	}

	if _, err := c.CreateVampire("   ", ""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
}

func TestAdvanceTurn(t *testing.T) {
	c, db := newController(t, dice.Fixed{D10: 7, D6: 2})
	v, _ := c.CreateVampire("Marguerite", "")

	result, err := c.AdvanceTurn(context.Background(), v.ID, "  I hid in the cellar.  ")
	if err != nil {
		t.Fatalf("AdvanceTurn failed: %v", err)
	}
	if result.D10 != 7 || result.D6 != 2 || result.Movement != 5 {
		t.Errorf("Unexpected dice: %+v", result)
	}
	if result.PromptNumber != 1 || result.PromptEntry != "a" {
		t.Errorf("Expected answered prompt 1a, got %d%s", result.PromptNumber, result.PromptEntry)
	}
	if result.NextPromptNumber != 6 || result.NextEntry != "a" {
		t.Errorf("Expected next prompt 6a, got %d%s", result.NextPromptNumber, result.NextEntry)
	}
	if result.MemorySlot != 1 || result.Evicted {
		t.Errorf("Expected memory 1 without eviction, got %+v", result)
	}

	updated, _ := db.GetVampire(v.ID)
	if updated.CurrentPrompt != 6 || updated.PromptEntry != "a" {
		t.Errorf("Vampire not moved: %d%s", updated.CurrentPrompt, updated.PromptEntry)
	}

	sessions, _ := db.ListSessions(v.ID)
	if len(sessions) != 1 || sessions[0].Response != "I hid in the cellar." {
		t.Errorf("Expected one trimmed session, got %+v", sessions)
	}
}

func TestAdvanceTurnNeverBelowOne(t *testing.T) {
	c, _ := newController(t, dice.Fixed{D10: 1, D6: 6})
	v, _ := c.CreateVampire("Marguerite", "")

	result, err := c.AdvanceTurn(context.Background(), v.ID, "I waited.")
	if err != nil {
		t.Fatalf("AdvanceTurn failed: %v", err)
	}
	if result.Movement != -5 || result.NextPromptNumber != 1 {
		t.Errorf("Expected clamp to prompt 1, got %+v", result)
	}
	// The turn just recorded at prompt 1 counts as a visit.
	if result.NextEntry != "b" {
		t.Errorf("Expected entry b when staying on prompt 1, got %s", result.NextEntry)
	}
}

func TestAdvanceTurnEntryLetters(t *testing.T) {
	// 1 -> 3, 3 -> 1, 1 -> 3: the second arrival at 3 is entry b.
	roller := &sequence{rolls: []dice.Roll{{D10: 3, D6: 1}, {D10: 1, D6: 3}, {D10: 3, D6: 1}}}
	c, _ := newController(t, roller)
	v, _ := c.CreateVampire("Marguerite", "")

	want := []string{"3a", "1b", "3b"}
	for i, w := range want {
		result, err := c.AdvanceTurn(context.Background(), v.ID, "A night passes.")
		if err != nil {
			t.Fatalf("Turn %d failed: %v", i, err)
		}
		got := fmt.Sprintf("%d%s", result.NextPromptNumber, result.NextEntry)
		if got != w {
			t.Errorf("Turn %d: expected %s, got %s", i, w, got)
		}
	}
}

func TestAdvanceTurnEviction(t *testing.T) {
	c, db := newController(t, dice.Fixed{D10: 5, D6: 4})
	v, _ := c.CreateVampire("Marguerite", "")

	// Fill all five memories.
	for i := 0; i < database.MemorySlots*database.MaxExperiences; i++ {
		if _, err := c.AdvanceTurn(context.Background(), v.ID, "Another year."); err != nil {
			t.Fatalf("Turn %d failed: %v", i, err)
		}
	}

	before, _ := db.GetVampire(v.ID)
	result, err := c.AdvanceTurn(context.Background(), v.ID, "Something new.")
	if err != nil {
		t.Fatalf("AdvanceTurn failed: %v", err)
	}
	if !result.Evicted || result.MemorySlot != 1 {
		t.Fatalf("Expected eviction of memory 1, got %+v", result)
	}
	if result.Note != "Lost memory: Memory 1" {
		t.Errorf("Unexpected note: %q", result.Note)
	}

	m, _ := db.GetMemoryBySlot(v.ID, 1)
	wantTitle := "Prompt " + strconv.Itoa(before.CurrentPrompt) + before.PromptEntry
	if m.Title != wantTitle {
		t.Errorf("Expected title %q, got %q", wantTitle, m.Title)
	}
	if len(m.Experiences) != 1 || m.Experiences[0].Text != "Something new." {
		t.Errorf("Expected only the new experience, got %+v", m.Experiences)
	}
}

func TestAdvanceTurnErrors(t *testing.T) {
	c, _ := newController(t, nil)
	v, _ := c.CreateVampire("Marguerite", "")
	ctx := context.Background()

	if _, err := c.AdvanceTurn(ctx, v.ID, " \n\t "); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
	if _, err := c.AdvanceTurn(ctx, 9999, "Hello"); !errors.Is(err, database.ErrVampireNotFound) {
		t.Errorf("Expected ErrVampireNotFound, got %v", err)
	}

	if err := c.EndGame(v.ID); err != nil {
		t.Fatalf("EndGame failed: %v", err)
	}
	if _, err := c.AdvanceTurn(ctx, v.ID, "Hello"); !errors.Is(err, ErrGameEnded) {
		t.Errorf("Expected ErrGameEnded, got %v", err)
	}
	if err := c.EndGame(9999); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected not found for unknown vampire, got %v", err)
	}
}

func TestAdvanceTurnRequiresSetup(t *testing.T) {
	db := setupTestDB(t)
	c := NewController(db, dice.Fixed{D10: 2, D6: 1}, Options{RequireSetup: true})
	v, _ := c.CreateVampire("Marguerite", "A farmer's daughter.")
	ctx := context.Background()

	if _, err := c.AdvanceTurn(ctx, v.ID, "Hello"); !errors.Is(err, ErrSetupIncomplete) {
		t.Fatalf("Expected ErrSetupIncomplete, got %v", err)
	}

	completeSetup(t, c, v.ID)

	if _, err := c.AdvanceTurn(ctx, v.ID, "Hello"); err != nil {
		t.Errorf("AdvanceTurn after setup failed: %v", err)
	}
}

func TestApplySetup(t *testing.T) {
	c, db := newController(t, nil)
	v, _ := c.CreateVampire("Marguerite", "A farmer's daughter.")

	done, err := c.SetupComplete(v.ID)
	if err != nil || done {
		t.Fatalf("Expected incomplete setup, got %v, %v", done, err)
	}

	completeSetup(t, c, v.ID)

	done, err = c.SetupComplete(v.ID)
	if err != nil || !done {
		t.Fatalf("Expected complete setup, got %v, %v", done, err)
	}

	characters, _ := db.ListCharacters(v.ID, database.CharacterFilter{})
	if len(characters) != 4 {
		t.Fatalf("Expected 4 characters, got %d", len(characters))
	}
	if characters[0].Relationship != "lover" || characters[1].Relationship != "neutral" {
		t.Errorf("Unexpected relationships: %s, %s", characters[0].Relationship, characters[1].Relationship)
	}
	if characters[3].Type != "immortal" || characters[3].Relationship != "master" {
		t.Errorf("Expected immortal master, got %+v", characters[3])
	}

	for slot := 2; slot <= database.MemorySlots; slot++ {
		m, _ := db.GetMemoryBySlot(v.ID, slot)
		if len(m.Experiences) != 1 {
			t.Errorf("Memory %d: expected 1 experience, got %d", slot, len(m.Experiences))
		}
	}

	resources, _ := db.ListResources(v.ID, database.ResourceFilter{StationaryOnly: true})
	if len(resources) != 1 || resources[0].Name != "Family Farm" {
		t.Errorf("Expected the farm to be stationary, got %+v", resources)
	}
}

func TestApplySetupValidation(t *testing.T) {
	c, db := newController(t, nil)
	v, _ := c.CreateVampire("Marguerite", "")

	for _, step := range []int{0, 5} {
		if _, err := c.ApplySetup(v.ID, step, SetupRequest{}); !errors.Is(err, ErrInvalidSetupStep) {
			t.Errorf("Step %d: expected ErrInvalidSetupStep, got %v", step, err)
		}
	}

	four := []SetupCharacter{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}
	if _, err := c.ApplySetup(v.ID, 1, SetupRequest{Mortals: four}); !errors.Is(err, ErrTooManyEntries) {
		t.Errorf("Expected ErrTooManyEntries, got %v", err)
	}
	characters, _ := db.ListCharacters(v.ID, database.CharacterFilter{})
	if len(characters) != 0 {
		t.Errorf("Rejected step should create nothing, got %d characters", len(characters))
	}

	log, err := c.ApplySetup(v.ID, 2, SetupRequest{Skills: []SetupSkill{{Name: " "}, {Name: "Patience"}}})
	if err != nil {
		t.Fatalf("ApplySetup failed: %v", err)
	}
	if len(log) != 1 || log[0] != "Created skill: Patience" {
		t.Errorf("Expected blank skill to be skipped, got %v", log)
	}

	if _, err := c.ApplySetup(9999, 1, SetupRequest{}); !errors.Is(err, database.ErrVampireNotFound) {
		t.Errorf("Expected ErrVampireNotFound, got %v", err)
	}
}

func TestSheet(t *testing.T) {
	c, db := newController(t, nil)
	v, _ := c.CreateVampire("Marguerite", "A farmer's daughter.")
	completeSetup(t, c, v.ID)

	sheet, err := c.Sheet(v.ID)
	if err != nil {
		t.Fatalf("Sheet failed: %v", err)
	}
	if !sheet.SetupComplete || sheet.Diary != nil {
		t.Errorf("Unexpected sheet: complete=%v diary=%+v", sheet.SetupComplete, sheet.Diary)
	}
	if len(sheet.Memories) != 5 || len(sheet.Skills) != 3 || len(sheet.Resources) != 3 ||
		len(sheet.Characters) != 4 || len(sheet.Marks) != 1 {
		t.Errorf("Unexpected sheet counts: %+v", sheet)
	}

	if _, err := db.CreateDiary(v.ID, "A red book"); err != nil {
		t.Fatalf("CreateDiary failed: %v", err)
	}
	sheet, _ = c.Sheet(v.ID)
	if sheet.Diary == nil || sheet.Diary.Description != "A red book" {
		t.Errorf("Expected diary on sheet, got %+v", sheet.Diary)
	}

	if _, err := c.Sheet(9999); !errors.Is(err, database.ErrVampireNotFound) {
		t.Errorf("Expected ErrVampireNotFound, got %v", err)
	}
}
