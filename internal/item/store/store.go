// Package store persists item records. Every implementation enforces one record per
// identifier at its storage boundary and reports absence with sentinel.ErrNotFound.
package store

import (
	"context"

	"lostfound/internal/item/models"
)

// Backend is the keyed upsert and point lookup contract shared by all stores.
type Backend interface {
	Upsert(ctx context.Context, identifier, contactDigits, message string) (*models.Item, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.Item, error)
	Ping(ctx context.Context) error
}

var (
	_ Backend = (*InMemory)(nil)
	_ Backend = (*PostgresStore)(nil)
	_ Backend = (*SQLiteStore)(nil)
	_ Backend = (*Cached)(nil)
)
