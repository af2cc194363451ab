package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/twinsgen/twin-problem-service/internal/db"
)

// PostgresKV stores values in the kv_store table of the global db pool
type PostgresKV struct{}

// NewPostgresKV initializes the pool if needed and creates the table
func NewPostgresKV(ctx context.Context) (*PostgresKV, error) {
	if db.Pool == nil {
		if err := db.Init(ctx); err != nil {
			return nil, err
		}
	}
	if err := db.EnsureKVTable(ctx); err != nil {
		return nil, fmt.Errorf("postgres: ensure kv table: %w", err)
	}
	return &PostgresKV{}, nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := db.GetValue(ctx, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get: %w", err)
	}
	return value, nil
}

func (p *PostgresKV) Put(ctx context.Context, key string, value []byte) error {
	if err := db.PutValue(ctx, key, value); err != nil {
		return fmt.Errorf("postgres put: %w", err)
	}
	return nil
}

// Ping checks the pool
func (p *PostgresKV) Ping(ctx context.Context) error {
	return db.Ping(ctx)
}
