package store

import (
	"context"
	"strings"
)

// NewRepository creates a postgres-backed store when configured, otherwise
// in-memory.
func NewRepository(ctx context.Context, databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryRepository(), nil
	}
	return NewPostgresRepository(ctx, databaseURL)
}
