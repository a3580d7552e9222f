package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=value pairs from the given files (default ".env") into the process
// environment. Missing files are ignored; variables already set are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays secrets and connection strings from the environment. Values present in
// the environment win over the config file so secrets can stay out of it.
func ApplyEnv(cfg *Config) {
	if key := providerKey(cfg.Embedding.Provider); key != "" {
		cfg.Embedding.APIKey = key
	}
	if key := providerKey(cfg.Generation.Provider); key != "" {
		cfg.Generation.APIKey = key
	}
	if v := os.Getenv("LEXILAW_LOG_DSN"); v != "" {
		cfg.Log.DSN = v
	} else if v := os.Getenv("MONGO_URI"); v != "" && cfg.Log.Driver == "mongo" {
		cfg.Log.DSN = v
	}
	if v := os.Getenv("LEXILAW_AMQP_URL"); v != "" {
		cfg.Log.AMQPURL = v
	}
	if v := os.Getenv("LEXILAW_REDIS_ADDR"); v != "" {
		cfg.Sessions.RedisAddr = v
	}
	if v := os.Getenv("LEXILAW_REDIS_PASSWORD"); v != "" {
		cfg.Sessions.RedisPassword = v
	}
	if v := os.Getenv("LEXILAW_S3_BUCKET"); v != "" {
		cfg.Publish.Bucket = v
	}
}

func providerKey(provider string) string {
	switch provider {
	case "gemini":
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			return v
		}
		return os.Getenv("GOOGLE_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}
