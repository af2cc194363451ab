package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

func kvTable() string {
	return pgx.Identifier{Schema(), "kv_store"}.Sanitize()
}

// EnsureKVTable creates the key-value table when missing
func EnsureKVTable(ctx context.Context) error {
	if Pool == nil {
		return ErrNoDatabase
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, kvTable())
	_, err := Pool.Exec(ctx, query)
	return err
}

// GetValue returns the value stored under key; pgx.ErrNoRows when absent
func GetValue(ctx context.Context, key string) ([]byte, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, kvTable())

	var value []byte
	if err := Pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		return nil, err
	}
	return value, nil
}

// PutValue inserts or replaces the value under key
func PutValue(ctx context.Context, key string, value []byte) error {
	if Pool == nil {
		return ErrNoDatabase
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, kvTable())
	_, err := Pool.Exec(ctx, query, key, value)
	return err
}
