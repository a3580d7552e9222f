package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/lexilaw/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestKey(t *testing.T) {
	if got := Key("/vectorstores/", "", "acts", "index.bin"); got != "vectorstores/acts/index.bin" {
		t.Errorf("Key = %q", got)
	}
}

func TestPublishFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := filepath.Join(root, "stores", "acts")
	writeFile(t, filepath.Join(store, "index.bin"), "vectors")
	writeFile(t, filepath.Join(store, "docstore.json"), "{}")
	writeFile(t, filepath.Join(store, "nested", "ignored"), "x")

	bucket := NewLocalBucket(filepath.Join(root, "bucket"))
	keys, err := Publish(ctx, bucket, store, Key("vectorstores", "acts"))
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}

	dest := filepath.Join(root, "pulled", "acts")
	writeFile(t, filepath.Join(dest, "stale.bin"), "old")
	if err := Fetch(ctx, bucket, "vectorstores/acts", dest); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "index.bin"))
	if err != nil || string(data) != "vectors" {
		t.Errorf("index.bin = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dest, "stale.bin")); !os.IsNotExist(err) {
		t.Error("fetch should replace the destination directory")
	}
}

func TestFetch_missingPrefix(t *testing.T) {
	bucket := NewLocalBucket(t.TempDir())
	err := Fetch(context.Background(), bucket, "vectorstores/cases", filepath.Join(t.TempDir(), "cases"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalBucket_GetMissing(t *testing.T) {
	_, err := NewLocalBucket(t.TempDir()).Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open(context.Background(), config.PublishConfig{Driver: "local"}); err == nil {
		t.Error("local driver without dir should fail")
	}
	b, err := Open(context.Background(), config.PublishConfig{Driver: "local", LocalDir: t.TempDir()})
	if err != nil || b == nil {
		t.Errorf("Open local: %v", err)
	}
	if _, err := Open(context.Background(), config.PublishConfig{Driver: "gcs"}); err == nil {
		t.Error("unknown driver should fail")
	}
}
