// Package session keeps HTTP chat sessions between requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/lexilaw/internal/rag"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Store persists sessions. Get returns a copy; callers Save after modifying it.
type Store interface {
	Create(ctx context.Context) (*rag.Session, error)
	Get(ctx context.Context, id string) (*rag.Session, error)
	Save(ctx context.Context, sess *rag.Session) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Options configures Open.
type Options struct {
	Backend  string
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Open returns the store for the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryStore(opts.TTL), nil
	case BackendRedis:
		client, err := DialRedis(ctx, opts.Addr, opts.Password, opts.DB)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, opts.TTL), nil
	}
	return nil, fmt.Errorf("unsupported session backend: %s", opts.Backend)
}
