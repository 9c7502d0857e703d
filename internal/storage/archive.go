package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver

	"platewatch/internal/domain"
	"platewatch/internal/ports"
)

// Archive keeps an auditable history of every confirmed registration in a
// local SQLite database. The JSON state file stays the source of truth; the
// archive only accumulates.
type Archive struct {
	db *sql.DB
}

var _ ports.Archiver = (*Archive)(nil)

const archiveSchema = `CREATE TABLE IF NOT EXISTS registrations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	plate TEXT NOT NULL,
	insurer TEXT NOT NULL,
	entry_date TEXT NOT NULL,
	strategy TEXT NOT NULL,
	discovered_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_registrations_plate ON registrations(plate);`

// OpenArchive opens or creates the archive database at the given path.
func OpenArchive(path string) (*Archive, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Record stores one confirmed registration with the strategy that found it.
func (a *Archive) Record(ctx context.Context, entry domain.RegistrationEntry, insurer, strategy string) error {
	query, args, err := sq.
		Insert("registrations").
		Columns("plate", "insurer", "entry_date", "strategy", "discovered_at").
		Values(entry.Plate, insurer, entry.Date, strategy, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build archive insert: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("archive insert: %w", err)
	}

	return nil
}

// CountSince reports how many registrations were archived at or after t.
func (a *Archive) CountSince(ctx context.Context, t time.Time) (int, error) {
	query, args, err := sq.
		Select("COUNT(*)").
		From("registrations").
		Where(sq.GtOrEq{"discovered_at": t.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build archive count: %w", err)
	}

	var count int
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("archive count: %w", err)
	}

	return count, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}
