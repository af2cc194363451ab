package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/twinsgen/twin-problem-service/internal/models"
)

// Open builds the problem store for the configured backend
func Open(ctx context.Context, cfg models.StoreConfig) (*ProblemStore, error) {
	kv, err := openKV(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(kv, cfg.Key), nil
}

func openKV(ctx context.Context, cfg models.StoreConfig) (KV, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		path := cfg.Path
		if path == "" {
			path = "./data"
		}
		return NewFileKV(path)
	case "memory":
		return NewMemoryKV(), nil
	case "redis":
		return NewRedisKV(ctx, cfg.Redis)
	case "postgres":
		return NewPostgresKV(ctx)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
