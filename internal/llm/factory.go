package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/lexilaw/internal/config"
)

// New creates the generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.GenerationConfig) (Generator, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Provider {
	case "gemini", "":
		return NewGemini(ctx, cfg.APIKey, cfg.Model, timeout)
	case "openai":
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model, timeout)
	case "mock":
		return &Mock{}, nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}
