// Package config provides configuration loading and structs for LexiLaw.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Paths      PathsConfig      `yaml:"paths"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Metadata   MetadataConfig   `yaml:"metadata"`
	Query      QueryConfig      `yaml:"query"`
	Log        LogConfig        `yaml:"interaction_log"`
	Sessions   SessionConfig    `yaml:"sessions"`
	Publish    PublishConfig    `yaml:"publish"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// PathsConfig holds the on-disk layout: source PDFs, persisted stores and the metadata file.
type PathsConfig struct {
	DataDir      string `yaml:"data_dir"`
	CaseDir      string `yaml:"case_dir"`
	ActsStore    string `yaml:"acts_store"`
	CasesStore   string `yaml:"cases_store"`
	MetadataFile string `yaml:"metadata_file"`
	CaseIndex    string `yaml:"case_index"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // gemini, openai, onnx or mock
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
	CacheSize  int    `yaml:"cache_size"`
	ModelPath  string `yaml:"model_path"`
	MaxTokens  int    `yaml:"max_tokens"`
}

// GenerationConfig selects and configures the text generation provider.
type GenerationConfig struct {
	Provider       string   `yaml:"provider"` // gemini, openai or mock
	Model          string   `yaml:"model"`
	BaseURL        string   `yaml:"base_url"`
	APIKey         string   `yaml:"api_key"`
	Temperature    *float64 `yaml:"temperature"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// TemperatureOrDefault returns the configured temperature; defaults to 0.7 when unset.
func (g *GenerationConfig) TemperatureOrDefault() float64 {
	if g.Temperature != nil {
		return *g.Temperature
	}
	return DefaultTemperature
}

// PipelineConfig holds vector store build settings.
type PipelineConfig struct {
	BatchSize    int      `yaml:"batch_size"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Extensions   []string `yaml:"extensions"`
}

// MetadataConfig holds case metadata extraction settings.
type MetadataConfig struct {
	MaxPages int `yaml:"max_pages"`
}

// QueryConfig holds retrieval settings.
type QueryConfig struct {
	TopK             int   `yaml:"top_k"`
	CondenseQuestion *bool `yaml:"condense_question"`
}

// CondenseOrDefault returns whether follow-up questions are rewritten before retrieval; defaults to true.
func (q *QueryConfig) CondenseOrDefault() bool {
	if q.CondenseQuestion != nil {
		return *q.CondenseQuestion
	}
	return true
}

// LogConfig configures the interaction log sink.
type LogConfig struct {
	Driver       string `yaml:"driver"` // sqlite, mongo, postgres, amqp or none
	DSN          string `yaml:"dsn"`
	Database     string `yaml:"database"`
	Collection   string `yaml:"collection"`
	AMQPURL      string `yaml:"amqp_url"`
	Queue        string `yaml:"queue"`
	WorkerDriver string `yaml:"worker_driver"` // store driver used by log-worker
	WorkerDSN    string `yaml:"worker_dsn"`
}

// SessionConfig configures where HTTP chat sessions are kept.
type SessionConfig struct {
	Backend       string `yaml:"backend"` // memory or redis
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLMinutes    int    `yaml:"ttl_minutes"`
}

// PublishConfig configures where built stores are published.
type PublishConfig struct {
	Driver   string `yaml:"driver"` // local or s3
	LocalDir string `yaml:"local_dir"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Prefix   string `yaml:"prefix"`
	// Pull downloads published stores before serving when true.
	Pull bool `yaml:"pull"`
}

// WatchConfig holds watch-mode settings.
type WatchConfig struct {
	DebounceMillis int `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, applies defaults and
// overlays secrets from the environment.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	finish(&cfg, filepath.Dir(path))
	return &cfg, nil
}

// Default returns the default configuration with paths resolved against baseDir.
func Default(baseDir string) *Config {
	var cfg Config
	finish(&cfg, baseDir)
	return &cfg
}

func finish(cfg *Config, baseDir string) {
	ApplyDefaults(cfg)
	ApplyEnv(cfg)

	p := &cfg.Paths
	p.DataDir = expandPath(p.DataDir, baseDir)
	p.CaseDir = expandPath(p.CaseDir, baseDir)
	p.ActsStore = expandPath(p.ActsStore, baseDir)
	p.CasesStore = expandPath(p.CasesStore, baseDir)
	p.MetadataFile = expandPath(p.MetadataFile, baseDir)
	p.CaseIndex = expandPath(p.CaseIndex, baseDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, baseDir)
	}
	if cfg.Log.Driver == "sqlite" {
		cfg.Log.DSN = expandPath(cfg.Log.DSN, baseDir)
	}
	if cfg.Log.WorkerDriver == "sqlite" {
		cfg.Log.WorkerDSN = expandPath(cfg.Log.WorkerDSN, baseDir)
	}
	if cfg.Publish.LocalDir != "" {
		cfg.Publish.LocalDir = expandPath(cfg.Publish.LocalDir, baseDir)
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to baseDir;
// "~/" is the home directory; other relative paths are also taken relative to baseDir.
func expandPath(path string, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(baseDir, path)
}
