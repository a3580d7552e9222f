package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/lexilaw/internal/models"
)

// SQLiteLog implements Log using SQLite.
type SQLiteLog struct {
	db *sql.DB
}

// NewSQLiteLog opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteLog(dbPath string) (*SQLiteLog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteLog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TIMESTAMP NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		used_case TEXT,
		source_document_ids TEXT NOT NULL,
		session_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_timestamp ON interactions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_interactions_used_case ON interactions(used_case);
	`
	_, err := db.Exec(schema)
	return err
}

// Append inserts one record. A zero Timestamp is set to now (UTC).
func (s *SQLiteLog) Append(ctx context.Context, rec *models.InteractionRecord) error {
	sources, err := json.Marshal(sourcesOrEmpty(rec.SourceDocumentIDs))
	if err != nil {
		return fmt.Errorf("failed to marshal source ids: %w", err)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	var usedCase sql.NullString
	if rec.UsedCase != nil {
		usedCase = sql.NullString{String: *rec.UsedCase, Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interactions (timestamp, question, answer, used_case, source_document_ids, session_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.UTC(), rec.Question, rec.Answer, usedCase, string(sources), rec.SessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// ListInteractions returns logged records ordered by timestamp.
func (s *SQLiteLog) ListInteractions(ctx context.Context, opts ListOptions) ([]*models.InteractionRecord, error) {
	order := "ASC"
	if opts.Newest {
		order = "DESC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, question, answer, used_case, source_document_ids, session_id
		 FROM interactions ORDER BY timestamp `+order+`, id `+order+` LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.InteractionRecord
	for rows.Next() {
		var rec models.InteractionRecord
		var usedCase sql.NullString
		var sources string
		if err := rows.Scan(&rec.Timestamp, &rec.Question, &rec.Answer, &usedCase, &sources, &rec.SessionID); err != nil {
			return nil, err
		}
		if usedCase.Valid {
			name := usedCase.String
			rec.UsedCase = &name
		}
		if sources != "" {
			if err := json.Unmarshal([]byte(sources), &rec.SourceDocumentIDs); err != nil {
				return nil, fmt.Errorf("failed to decode source ids of interaction at %s: %w", rec.Timestamp.Format(time.RFC3339), err)
			}
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Count returns the total number of logged interactions.
func (s *SQLiteLog) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteLog) Close() error {
	return s.db.Close()
}
