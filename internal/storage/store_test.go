package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"platewatch/internal/domain"
)

func newTestStore(t *testing.T) (*FileStore, string, string) {
	t.Helper()

	dir := t.TempDir()
	platesPath := filepath.Join(dir, "plates.json")
	seenPath := filepath.Join(dir, "found_plates.txt")

	store, err := NewFileStore(platesPath, seenPath)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	return store, platesPath, seenPath
}

func TestFileStoreSeenRoundTrip(t *testing.T) {
	t.Parallel()

	store, platesPath, seenPath := newTestStore(t)

	if !store.IsNew("EN00001") {
		t.Fatal("fresh store must consider every plate new")
	}

	if err := store.RecordSeen("EN00001"); err != nil {
		t.Fatalf("RecordSeen error: %v", err)
	}
	if err := store.RecordSeen("EN00002"); err != nil {
		t.Fatalf("RecordSeen error: %v", err)
	}
	if store.IsNew("EN00001") {
		t.Fatal("recorded plate must not be new")
	}

	reloaded, err := NewFileStore(platesPath, seenPath)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if reloaded.IsNew("EN00001") || reloaded.IsNew("EN00002") {
		t.Fatal("seen plates must survive a reload")
	}
	if !reloaded.IsNew("EN99999") {
		t.Fatal("unknown plates must stay new after reload")
	}
}

func TestFileStoreSeenLogAppendOnly(t *testing.T) {
	t.Parallel()

	store, _, seenPath := newTestStore(t)

	for _, plate := range []string{"EN00001", "EN00002", "EN00001"} {
		if err := store.RecordSeen(plate); err != nil {
			t.Fatalf("RecordSeen error: %v", err)
		}
	}

	raw, err := os.ReadFile(seenPath)
	if err != nil {
		t.Fatalf("read seen log: %v", err)
	}
	if string(raw) != "EN00001\nEN00002\n" {
		t.Fatalf("unexpected seen log content %q", raw)
	}
}

func TestFileStoreInsertAndDuplicateGuard(t *testing.T) {
	t.Parallel()

	store, _, _ := newTestStore(t)

	entry := domain.RegistrationEntry{Date: "2026-08-28", Plate: "EN00001"}
	store.Insert("Tryg", entry)
	store.Insert("Tryg", entry)

	if got := store.NewCount(); got != 1 {
		t.Fatalf("expected 1 insertion, got %d", got)
	}

	entries := store.Entries()
	if len(entries["Tryg"]) != 1 {
		t.Fatalf("expected a single entry for the insurer, got %d", len(entries["Tryg"]))
	}
	if !store.HasEntry("Tryg", "EN00001") {
		t.Fatal("HasEntry must see the inserted plate")
	}
	if store.HasEntry("Alka", "EN00001") {
		t.Fatal("HasEntry must be scoped per insurer")
	}
}

func TestFileStorePersistStable(t *testing.T) {
	t.Parallel()

	store, platesPath, seenPath := newTestStore(t)

	store.Insert("Tryg", domain.RegistrationEntry{Date: "2026-08-28", Plate: "EN00002"})
	store.Insert("Alka", domain.RegistrationEntry{Date: "2026-08-27", Plate: "EN00001"})
	store.Insert("Tryg", domain.RegistrationEntry{Date: "2026-08-28", Plate: "EN00003"})

	if err := store.Persist(); err != nil {
		t.Fatalf("Persist error: %v", err)
	}

	first, err := os.ReadFile(platesPath)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}

	// Load and persist again without modification: byte-for-byte identical.
	reloaded, err := NewFileStore(platesPath, seenPath)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if err := reloaded.Persist(); err != nil {
		t.Fatalf("re-persist error: %v", err)
	}

	second, err := os.ReadFile(platesPath)
	if err != nil {
		t.Fatalf("re-read state: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("persistence is not stable:\n%s\nvs\n%s", first, second)
	}

	entries := reloaded.Entries()
	if entries["Tryg"][0].Plate != "EN00002" || entries["Tryg"][1].Plate != "EN00003" {
		t.Fatalf("insertion order lost: %+v", entries["Tryg"])
	}
}

func TestFileStorePersistCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	platesPath := filepath.Join(dir, "nested", "deeper", "plates.json")
	seenPath := filepath.Join(dir, "nested", "found_plates.txt")

	store, err := NewFileStore(platesPath, seenPath)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	store.Insert("Tryg", domain.RegistrationEntry{Date: "2026-08-28", Plate: "EN00001"})
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist error: %v", err)
	}

	if _, err := os.Stat(platesPath); err != nil {
		t.Fatalf("state file missing: %v", err)
	}
}

func TestFileStoreCorruptStateFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	platesPath := filepath.Join(dir, "plates.json")
	if err := os.WriteFile(platesPath, []byte("{broken"), 0o640); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	store, err := NewFileStore(platesPath, filepath.Join(dir, "found_plates.txt"))
	if err != nil {
		t.Fatalf("corrupt state must not fail construction: %v", err)
	}
	if len(store.Entries()) != 0 {
		t.Fatal("corrupt state must load as empty")
	}
}
