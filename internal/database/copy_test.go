package database

import (
	"testing"

	"github.com/lawnchairsociety/chronicle/internal/rules"
)

func TestCopyTo(t *testing.T) {
	src := setupTestDB(t)
	dst := setupTestDB(t)

	v := createTestVampire(t, src, "Born in a plague year.")
	if _, err := src.CreateSkill(v.ID, "Patience", ""); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	if _, err := src.CreateCharacter(v.ID, NewCharacter{Name: "Ada", Type: rules.Mortal, Dead: true}); err != nil {
		t.Fatalf("CreateCharacter failed: %v", err)
	}
	if _, err := src.RecordTurn(Turn{VampireID: v.ID, Response: "I hid.", D10: 4, D6: 1, NextPrompt: 4}); err != nil {
		t.Fatalf("RecordTurn failed: %v", err)
	}

	counts, err := src.CopyTo(dst, false)
	if err != nil {
		t.Fatalf("CopyTo failed: %v", err)
	}
	rows := map[string]int64{}
	for _, c := range counts {
		rows[c.Table] = c.Rows
	}
	if rows["vampires"] != 1 || rows["memories"] != MemorySlots || rows["skills"] != 1 || rows["game_sessions"] != 1 {
		t.Errorf("Unexpected counts: %+v", counts)
	}

	copied, err := dst.GetVampire(v.ID)
	if err != nil {
		t.Fatalf("GetVampire on copy failed: %v", err)
	}
	if copied.Name != v.Name || copied.CurrentPrompt != 4 {
		t.Errorf("Unexpected copied vampire: %+v", copied)
	}
	chars, err := dst.ListCharacters(v.ID, CharacterFilter{})
	if err != nil {
		t.Fatalf("ListCharacters failed: %v", err)
	}
	if len(chars) != 1 || !chars[0].Dead {
		t.Errorf("Expected one dead character, got %+v", chars)
	}

	// A second copy skips rows that already exist.
	counts, err = src.CopyTo(dst, false)
	if err != nil {
		t.Fatalf("Second CopyTo failed: %v", err)
	}
	for _, c := range counts {
		if c.Rows != 0 {
			t.Errorf("Expected nothing copied for %s, got %d", c.Table, c.Rows)
		}
	}

	// New rows in the copy do not collide with copied ids.
	next, err := dst.CreateVampire("Second", "")
	if err != nil {
		t.Fatalf("CreateVampire after copy failed: %v", err)
	}
	if next.ID <= v.ID {
		t.Errorf("Expected id after %d, got %d", v.ID, next.ID)
	}
}

func TestCopyToDryRun(t *testing.T) {
	src := setupTestDB(t)
	dst := setupTestDB(t)
	createTestVampire(t, src, "")

	counts, err := src.CopyTo(dst, true)
	if err != nil {
		t.Fatalf("CopyTo failed: %v", err)
	}
	if counts[0].Table != "vampires" || counts[0].Rows != 1 {
		t.Errorf("Expected 1 vampire counted, got %+v", counts[0])
	}

	vampires, err := dst.ListVampires()
	if err != nil {
		t.Fatalf("ListVampires failed: %v", err)
	}
	if len(vampires) != 0 {
		t.Errorf("Dry run wrote %d vampires", len(vampires))
	}
}
