// Package storage persists the append-only interaction log.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/lexilaw/internal/models"
)

// Supported log drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// ErrUnsupportedDriver is returned by Open for an unknown driver name.
var ErrUnsupportedDriver = errors.New("unsupported interaction log driver")

// Sink appends interaction records. There are no update or delete operations.
type Sink interface {
	Append(ctx context.Context, rec *models.InteractionRecord) error
	Close() error
}

// ListOptions controls ListInteractions.
type ListOptions struct {
	// Limit caps the number of records; 0 means no limit.
	Limit int
	// Newest returns records newest first; otherwise oldest first.
	Newest bool
}

// Reader lists logged interactions for analytics.
type Reader interface {
	ListInteractions(ctx context.Context, opts ListOptions) ([]*models.InteractionRecord, error)
}

// Log is a sink that can also be read back.
type Log interface {
	Sink
	Reader
}

// Options configures Open.
type Options struct {
	Driver     string
	DSN        string
	Database   string // mongo only
	Collection string // mongo collection or SQL table
}

// Open returns the interaction log for the configured driver.
func Open(ctx context.Context, opts Options) (Log, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return NewSQLiteLog(opts.DSN)
	case DriverMongo:
		return NewMongoLog(ctx, opts.DSN, opts.Database, opts.Collection)
	case DriverPostgres:
		return NewPostgresLog(ctx, opts.DSN)
	case DriverNone:
		return NopLog{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, opts.Driver)
}

// NopLog discards records and lists nothing.
type NopLog struct{}

func (NopLog) Append(context.Context, *models.InteractionRecord) error { return nil }

func (NopLog) ListInteractions(context.Context, ListOptions) ([]*models.InteractionRecord, error) {
	return nil, nil
}

func (NopLog) Close() error { return nil }

func sourcesOrEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
