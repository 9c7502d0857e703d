package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"platewatch/internal/domain"
	"platewatch/internal/ports"
)

// FileStore is the dedup authority and persistence boundary. It keeps the
// insurer -> entries mapping from plates.json and the append-only seen-plate
// log in memory, serializes all mutation behind one mutex, and writes the
// mapping back in a single pass.
//
// The seen log is appended immediately per confirmed plate, so a crash
// mid-run does not cause the same plate to be reprocessed next time.
type FileStore struct {
	platesPath string
	seenPath   string

	mu       sync.Mutex
	entries  map[string][]domain.RegistrationEntry
	seen     map[string]struct{}
	newCount int
}

var _ ports.RegistrationStore = (*FileStore)(nil)

// NewFileStore loads both persisted structures. A missing or unreadable
// plates file yields an empty mapping (first run); a missing seen log
// yields an empty set.
func NewFileStore(platesPath, seenPath string) (*FileStore, error) {
	s := &FileStore{
		platesPath: platesPath,
		seenPath:   seenPath,
		entries:    map[string][]domain.RegistrationEntry{},
		seen:       map[string]struct{}{},
	}

	if raw, err := os.ReadFile(platesPath); err == nil {
		var loaded map[string][]domain.RegistrationEntry
		if err := json.Unmarshal(raw, &loaded); err == nil && loaded != nil {
			s.entries = loaded
		}
	}

	raw, err := os.ReadFile(seenPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read seen log: %w", err)
		}
		return s, nil
	}

	for _, line := range strings.Split(string(raw), "\n") {
		plate := strings.TrimSpace(line)
		if plate != "" {
			s.seen[plate] = struct{}{}
		}
	}

	return s, nil
}

// IsNew reports whether the plate has never been confirmed before.
func (s *FileStore) IsNew(plate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[plate]
	return !ok
}

// RecordSeen marks the plate as confirmed and appends it to the durable log
// immediately, not batched.
func (s *FileStore) RecordSeen(plate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[plate]; ok {
		return nil
	}
	s.seen[plate] = struct{}{}

	if dir := filepath.Dir(s.seenPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create seen log dir: %w", err)
		}
	}

	f, err := os.OpenFile(s.seenPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open seen log: %w", err)
	}

	if _, err := fmt.Fprintln(f, plate); err != nil {
		_ = f.Close()
		return fmt.Errorf("append seen log: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close seen log: %w", err)
	}

	return nil
}

// HasEntry reports whether the insurer's sequence already contains the
// plate. Guards against the same plate surfacing twice within one run.
func (s *FileStore) HasEntry(insurer, plate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasEntryLocked(insurer, plate)
}

func (s *FileStore) hasEntryLocked(insurer, plate string) bool {
	for _, entry := range s.entries[insurer] {
		if entry.Plate == plate {
			return true
		}
	}
	return false
}

// Insert appends the entry to the insurer's sequence, creating it if
// absent. Duplicate plates within one insurer are silently dropped.
func (s *FileStore) Insert(insurer string, entry domain.RegistrationEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasEntryLocked(insurer, entry.Plate) {
		return
	}

	s.entries[insurer] = append(s.entries[insurer], entry)
	s.newCount++
}

// NewCount returns how many entries this run inserted.
func (s *FileStore) NewCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newCount
}

// Persist writes the full mapping in one pass: keys sorted, entries in
// insertion order, four-space indent. The structure is marshalled entirely
// in memory before anything touches the disk, so a failure leaves the prior
// file untouched.
func (s *FileStore) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(s.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if dir := filepath.Dir(s.platesPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	if err := os.WriteFile(s.platesPath, raw, 0o640); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	return nil
}

// Entries returns a copy of the insurer mapping, for tests and reporting.
func (s *FileStore) Entries() map[string][]domain.RegistrationEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]domain.RegistrationEntry, len(s.entries))
	for insurer, list := range s.entries {
		out[insurer] = append([]domain.RegistrationEntry(nil), list...)
	}
	return out
}
