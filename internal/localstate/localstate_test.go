package localstate

import (
	"path/filepath"
	"testing"
)

func TestDB_SetGetDelete(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, found, err := db.Get(KeyUserID); err != nil || found {
		t.Fatalf("fresh db: found=%v err=%v, want absent", found, err)
	}

	if err := db.Set(KeyUserID, "42"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, found, err := db.Get(KeyUserID)
	if err != nil || !found || value != "42" {
		t.Fatalf("get = (%q, %v, %v), want (42, true, nil)", value, found, err)
	}

	// Overwrite.
	if err := db.Set(KeyUserID, "7"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _, _ = db.Get(KeyUserID)
	if value != "7" {
		t.Errorf("value after overwrite = %q, want 7", value)
	}

	if err := db.Delete(KeyUserID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := db.Get(KeyUserID); found {
		t.Error("key still present after delete")
	}

	// Deleting an absent key is fine.
	if err := db.Delete(KeyUserID); err != nil {
		t.Errorf("delete absent key: %v", err)
	}
}

func TestDB_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Set(KeyAccessToken, "tok-123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	db.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()

	value, found, err := db2.Get(KeyAccessToken)
	if err != nil || !found || value != "tok-123" {
		t.Errorf("after reopen: (%q, %v, %v), want (tok-123, true, nil)", value, found, err)
	}
}
