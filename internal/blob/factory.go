package blob

import (
	"context"
	"fmt"

	"github.com/hyperjump/lexilaw/internal/config"
)

// Open returns the bucket configured by cfg.
func Open(ctx context.Context, cfg config.PublishConfig) (Bucket, error) {
	switch cfg.Driver {
	case "local", "":
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("publish.local_dir is required for the local driver")
		}
		return NewLocalBucket(cfg.LocalDir), nil
	case "s3":
		return NewS3Bucket(ctx, cfg.Bucket, cfg.Region)
	}
	return nil, fmt.Errorf("unsupported publish driver: %s", cfg.Driver)
}
