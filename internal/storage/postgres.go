package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyperjump/lexilaw/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS interactions (
	id BIGSERIAL PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	used_case TEXT,
	source_document_ids TEXT[] NOT NULL DEFAULT '{}',
	session_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_timestamp ON interactions(timestamp);
`

// PostgresLog implements Log using PostgreSQL.
type PostgresLog struct {
	pool *pgxpool.Pool
}

// NewPostgresLog connects to dsn and creates the interactions table if needed.
func NewPostgresLog(ctx context.Context, dsn string) (*PostgresLog, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresLog{pool: pool}, nil
}

// Append inserts one record.
func (p *PostgresLog) Append(ctx context.Context, rec *models.InteractionRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO interactions (timestamp, question, answer, used_case, source_document_ids, session_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.Timestamp.UTC(), rec.Question, rec.Answer, rec.UsedCase, sourcesOrEmpty(rec.SourceDocumentIDs), rec.SessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// ListInteractions returns logged records ordered by timestamp.
func (p *PostgresLog) ListInteractions(ctx context.Context, opts ListOptions) ([]*models.InteractionRecord, error) {
	order := "ASC"
	if opts.Newest {
		order = "DESC"
	}
	query := `SELECT timestamp, question, answer, used_case, source_document_ids, session_id
		FROM interactions ORDER BY timestamp ` + order + `, id ` + order
	args := []any{}
	if opts.Limit > 0 {
		query += ` LIMIT $1`
		args = append(args, opts.Limit)
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.InteractionRecord
	for rows.Next() {
		var rec models.InteractionRecord
		if err := rows.Scan(&rec.Timestamp, &rec.Question, &rec.Answer, &rec.UsedCase, &rec.SourceDocumentIDs, &rec.SessionID); err != nil {
			return nil, err
		}
		rec.Timestamp = rec.Timestamp.UTC()
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Close closes the pool.
func (p *PostgresLog) Close() error {
	p.pool.Close()
	return nil
}
