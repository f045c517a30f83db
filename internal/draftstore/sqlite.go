// Package draftstore holds the durable local slot for the in-progress
// workout draft.
package draftstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/claude/nextrep/internal/workout"
)

const currentSlot = "current"

// SQLite stores the draft in a single row of a local SQLite database and
// keeps a log of drafts that were handed off to the server.
type SQLite struct {
	db *sql.DB
}

var _ workout.DraftStore = (*SQLite)(nil)

// Open opens (or creates) the SQLite database at dir/draft.db.
func Open(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "draft.db"))
	if err != nil {
		return nil, fmt.Errorf("opening draft db: %w", err)
	}
	// One writer; the slot is last-write-wins.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS draft_slot (
		slot       TEXT PRIMARY KEY,
		body       TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS saved_drafts (
		draft_id   TEXT PRIMARY KEY,
		workout_id TEXT NOT NULL,
		name       TEXT NOT NULL,
		saved_at   TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating draft tables: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Load returns the stored draft, or nil if the slot is empty.
func (s *SQLite) Load(ctx context.Context) (*workout.Draft, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM draft_slot WHERE slot = ?`, currentSlot).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading draft slot: %w", err)
	}

	var d workout.Draft
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return nil, fmt.Errorf("decoding stored draft: %w", err)
	}
	return &d, nil
}

// Save overwrites the slot with d.
func (s *SQLite) Save(ctx context.Context, d workout.Draft) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO draft_slot (slot, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		currentSlot, string(body),
	)
	if err != nil {
		return fmt.Errorf("writing draft slot: %w", err)
	}
	return nil
}

// Clear empties the slot.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM draft_slot WHERE slot = ?`, currentSlot); err != nil {
		return fmt.Errorf("clearing draft slot: %w", err)
	}
	return nil
}

// SavedDraft is a local record of a draft the server accepted.
type SavedDraft struct {
	DraftID   string
	WorkoutID uuid.UUID
	Name      string
	SavedAt   time.Time
}

// RecordSaved notes that a draft was persisted as workoutID.
func (s *SQLite) RecordSaved(ctx context.Context, rec SavedDraft) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO saved_drafts (draft_id, workout_id, name, saved_at) VALUES (?, ?, ?, ?)`,
		rec.DraftID, rec.WorkoutID.String(), rec.Name, rec.SavedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording saved draft: %w", err)
	}
	return nil
}

// RecentSaved returns the most recently saved drafts, newest first.
func (s *SQLite) RecentSaved(ctx context.Context, limit int) ([]SavedDraft, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT draft_id, workout_id, name, saved_at FROM saved_drafts ORDER BY saved_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying saved drafts: %w", err)
	}
	defer rows.Close()

	var out []SavedDraft
	for rows.Next() {
		var rec SavedDraft
		var workoutID string
		if err := rows.Scan(&rec.DraftID, &workoutID, &rec.Name, &rec.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning saved draft: %w", err)
		}
		if rec.WorkoutID, err = uuid.Parse(workoutID); err != nil {
			return nil, fmt.Errorf("parsing workout id %q: %w", workoutID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
