package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// setupTestDB opens a fresh SQLite database in a temporary directory.
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestVampire creates a vampire with the given origin.
func createTestVampire(t *testing.T, db *Database, origin string) *Vampire {
	t.Helper()
	v, err := db.CreateVampire("Vlad", origin)
	if err != nil {
		t.Fatalf("Failed to create vampire: %v", err)
	}
	return v
}

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "chronicle.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	tables := []string{"vampires", "memories", "experiences", "skills", "resources",
		"characters", "marks", "diaries", "game_sessions", "prompts"}
	for _, table := range tables {
		var count int
		if err := db.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Errorf("Failed to query %s table: %v", table, err)
		}
	}
}

func TestClose(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Failed to close database: %v", err)
	}

	var count int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM vampires").Scan(&count); err == nil {
		t.Error("Expected error querying closed database")
	}
}

func TestMigration_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("First open failed: %v", err)
	}
	if _, err := db.CreateVampire("Vlad", "Born in Wallachia."); err != nil {
		t.Fatalf("CreateVampire failed: %v", err)
	}
	db.Close()

	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("Second open failed: %v", err)
	}
	defer db.Close()

	vampires, err := db.ListVampires()
	if err != nil {
		t.Fatalf("ListVampires failed: %v", err)
	}
	if len(vampires) != 1 {
		t.Errorf("Expected data to survive reopen, got %d vampires", len(vampires))
	}
}

func TestMigration_ForeignKeysEnabled(t *testing.T) {
	db := setupTestDB(t)

	var enabled int
	if err := db.db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("Failed to read PRAGMA: %v", err)
	}
	if enabled != 1 {
		t.Error("Foreign keys should be enabled")
	}

	if _, err := db.CreateSkill(9999, "Orphan", ""); err == nil {
		t.Error("Expected foreign key violation for unknown vampire")
	}
}

func TestMigration_UniqueMemorySlots(t *testing.T) {
	db := setupTestDB(t)
	v := createTestVampire(t, db, "")

	_, err := db.db.Exec("INSERT INTO memories (vampire_id, slot) VALUES (?, 1)", v.ID)
	if err == nil || !db.Dialect().IsUniqueViolation(err) {
		t.Errorf("Expected duplicate slot to be rejected, got %v", err)
	}
}

func TestMigration_CascadeDelete(t *testing.T) {
	db := setupTestDB(t)
	v := createTestVampire(t, db, "A shepherd.")

	if _, err := db.CreateSkill(v.ID, "Patience", ""); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	if _, err := db.CreateMark(v.ID, "Cold skin", "Gloves"); err != nil {
		t.Fatalf("CreateMark failed: %v", err)
	}

	if err := db.DeleteVampire(v.ID); err != nil {
		t.Fatalf("DeleteVampire failed: %v", err)
	}

	for _, table := range []string{"memories", "experiences", "skills", "marks"} {
		var count int
		if err := db.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatalf("Failed to count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("Expected %s to be emptied by cascade, found %d rows", table, count)
		}
	}

	if err := db.DeleteVampire(v.ID); !errors.Is(err, ErrVampireNotFound) {
		t.Errorf("Expected ErrVampireNotFound deleting twice, got %v", err)
	}
}
