// Package blob publishes persisted store directories to object storage and fetches them back.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Get for a missing key and by Fetch for an empty prefix.
var ErrNotFound = errors.New("object not found")

// Bucket is a flat key/value object store.
type Bucket interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns keys under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Key joins parts into an object key with "/" separators.
func Key(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			clean = append(clean, p)
		}
	}
	return path.Join(clean...)
}

// Publish uploads every regular file directly inside dir under prefix. Returns the keys written.
func Publish(ctx context.Context, b Bucket, dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		key := Key(prefix, e.Name())
		if err := putFile(ctx, b, key, filepath.Join(dir, e.Name())); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func putFile(ctx context.Context, b Bucket, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := b.Put(ctx, key, f); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Fetch downloads every object under prefix into dir, replacing dir only once all
// downloads succeed.
func Fetch(ctx context.Context, b Bucket, prefix, dir string) error {
	keys, err := b.List(ctx, Key(prefix)+"/")
	if err != nil {
		return fmt.Errorf("list %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-fetch-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	for _, key := range keys {
		if err := getFile(ctx, b, key, filepath.Join(tmp, path.Base(key))); err != nil {
			return err
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.Rename(tmp, dir)
}

func getFile(ctx context.Context, b Bucket, key, file string) error {
	rc, err := b.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	defer rc.Close()
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return fmt.Errorf("download %s: %w", key, err)
	}
	return f.Close()
}
