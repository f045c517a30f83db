package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/ingest"
)

// ImportLog represents a single import operation's outcome.
type ImportLog struct {
	ID           int64            `json:"id"`
	UserID       *uuid.UUID       `json:"userId"`
	CreatedAt    time.Time        `json:"createdAt"`
	Source       string           `json:"source"`
	Status       string           `json:"status"`
	RecordsTotal int              `json:"recordsTotal"`
	RecordsSaved int              `json:"recordsSaved"`
	ErrorMessage *string          `json:"errorMessage"`
	Metadata     *json.RawMessage `json:"metadata"`
}

// NewImportLog describes the outcome of one history import by uid.
func NewImportLog(uid uuid.UUID, source string, result *ingest.Result, importErr error, elapsed time.Duration) ImportLog {
	entry := ImportLog{
		UserID: &uid,
		Source: source,
		Status: "success",
	}
	if importErr != nil {
		entry.Status = "error"
		msg := importErr.Error()
		entry.ErrorMessage = &msg
	}
	if result != nil {
		entry.RecordsTotal = result.SessionsReceived
		entry.RecordsSaved = result.SessionsSaved
	}
	meta, err := json.Marshal(map[string]any{"durationMs": elapsed.Milliseconds(), "result": result})
	if err == nil {
		raw := json.RawMessage(meta)
		entry.Metadata = &raw
	}
	return entry
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (user_id, source, status, records_total, records_saved, error_message, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id`,
		log.UserID, log.Source, log.Status, log.RecordsTotal, log.RecordsSaved,
		log.ErrorMessage, log.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// UpdateImportLog updates an existing import log entry (typically from "running" to "success" or "error").
func (db *DB) UpdateImportLog(ctx context.Context, id int64, log ImportLog) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE import_logs SET
		 status = $2, records_total = $3, records_saved = $4, error_message = $5, metadata = $6
		 WHERE id = $1`,
		id, log.Status, log.RecordsTotal, log.RecordsSaved, log.ErrorMessage, log.Metadata,
	)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, err)
	}
	return nil
}

// QueryImportLogs returns the most recent import logs for a user.
func (db *DB) QueryImportLogs(ctx context.Context, userID uuid.UUID, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, created_at, source, status, records_total, records_saved, error_message, metadata
		 FROM import_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	result := []ImportLog{}
	for rows.Next() {
		var l ImportLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.Source, &l.Status,
			&l.RecordsTotal, &l.RecordsSaved, &l.ErrorMessage, &l.Metadata); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
