package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
pipeline:
  batch_size: 5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Pipeline.BatchSize != 5 {
		t.Errorf("batch_size = %d, want 5", cfg.Pipeline.BatchSize)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_pathsRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
paths:
  data_dir: "./corpus"
  acts_store: "stores/acts"
  metadata_file: "/abs/meta.json"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "corpus"); cfg.Paths.DataDir != want {
		t.Errorf("data_dir = %s, want %s", cfg.Paths.DataDir, want)
	}
	if want := filepath.Join(dir, "stores", "acts"); cfg.Paths.ActsStore != want {
		t.Errorf("acts_store = %s, want %s", cfg.Paths.ActsStore, want)
	}
	if cfg.Paths.MetadataFile != "/abs/meta.json" {
		t.Errorf("metadata_file = %s, want absolute path unchanged", cfg.Paths.MetadataFile)
	}
	if want := filepath.Join(dir, "data", "case_pdfs"); cfg.Paths.CaseDir != want {
		t.Errorf("case_dir default = %s, want %s", cfg.Paths.CaseDir, want)
	}
	if want := filepath.Join(dir, "data", "db", "interactions.db"); cfg.Log.DSN != want {
		t.Errorf("log dsn = %s, want %s", cfg.Log.DSN, want)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Pipeline.BatchSize != 20 {
		t.Errorf("default batch size: got %d, want 20", cfg.Pipeline.BatchSize)
	}
	if cfg.Query.TopK != 3 {
		t.Errorf("default top_k: got %d, want 3", cfg.Query.TopK)
	}
	if cfg.Metadata.MaxPages != 2 {
		t.Errorf("default max_pages: got %d, want 2", cfg.Metadata.MaxPages)
	}
	if len(cfg.Pipeline.Extensions) != 1 || cfg.Pipeline.Extensions[0] != ".pdf" {
		t.Errorf("default extensions: got %v", cfg.Pipeline.Extensions)
	}
	if cfg.Embedding.Provider != "gemini" || cfg.Embedding.Model != "models/embedding-001" {
		t.Errorf("default embedding: got %s/%s", cfg.Embedding.Provider, cfg.Embedding.Model)
	}
	if cfg.Generation.Model != "gemini-2.5-flash-preview-04-17" {
		t.Errorf("default generation model: got %s", cfg.Generation.Model)
	}
	if cfg.Log.Driver != "sqlite" || cfg.Log.Collection != "chat_logs" {
		t.Errorf("default log: got %+v", cfg.Log)
	}
	if cfg.Sessions.Backend != "memory" {
		t.Errorf("default session backend: got %s", cfg.Sessions.Backend)
	}
}

func TestApplyDefaults_providerSpecific(t *testing.T) {
	cfg := &Config{
		Embedding:  EmbeddingConfig{Provider: "openai"},
		Generation: GenerationConfig{Provider: "openai"},
	}
	ApplyDefaults(cfg)
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("openai dimensions: got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Generation.Model != "gpt-4o-mini" {
		t.Errorf("openai model: got %s", cfg.Generation.Model)
	}
}

func TestGenerationConfig_TemperatureOrDefault(t *testing.T) {
	t.Run("nil_returns_default", func(t *testing.T) {
		g := &GenerationConfig{}
		if got := g.TemperatureOrDefault(); got != 0.7 {
			t.Errorf("TemperatureOrDefault() = %v, want 0.7", got)
		}
	})
	t.Run("explicit_zero_kept", func(t *testing.T) {
		zero := 0.0
		g := &GenerationConfig{Temperature: &zero}
		if got := g.TemperatureOrDefault(); got != 0 {
			t.Errorf("TemperatureOrDefault() = %v, want 0", got)
		}
	})
}

func TestQueryConfig_CondenseOrDefault(t *testing.T) {
	q := &QueryConfig{}
	if !q.CondenseOrDefault() {
		t.Error("condense should default to true")
	}
	off := false
	q.CondenseQuestion = &off
	if q.CondenseOrDefault() {
		t.Error("condense should be false when set false")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("LEXILAW_LOG_DSN", "mongodb://example")
	cfg := &Config{}
	ApplyDefaults(cfg)
	ApplyEnv(cfg)
	if cfg.Embedding.APIKey != "g-key" || cfg.Generation.APIKey != "g-key" {
		t.Errorf("api keys not applied: %q %q", cfg.Embedding.APIKey, cfg.Generation.APIKey)
	}
	if cfg.Log.DSN != "mongodb://example" {
		t.Errorf("log dsn = %q", cfg.Log.DSN)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("LEXILAW_TEST_SECRET=abc\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("LEXILAW_TEST_SECRET") })
	if err := LoadDotEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("LEXILAW_TEST_SECRET"); got != "abc" {
		t.Errorf("LEXILAW_TEST_SECRET = %q", got)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{Server: ServerConfig{Host: "localhost", Port: 9090}}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
