package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lostfound/internal/item/models"
	"lostfound/pkg/platform/sentinel"
	"lostfound/pkg/requestcontext"
)

const itemColumns = `identifier, contact_digits, message, version, created_at, updated_at`

// PostgresStore persists items in PostgreSQL. The items primary key serializes
// concurrent upserts of the same identifier; each upsert is a single statement.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed item store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, identifier, contactDigits, message string) (*models.Item, error) {
	query := `
		INSERT INTO items (identifier, contact_digits, message, version, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $4)
		ON CONFLICT (identifier) DO UPDATE SET
			contact_digits = EXCLUDED.contact_digits,
			message = EXCLUDED.message,
			version = items.version + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + itemColumns

	item := &models.Item{}
	err := s.db.QueryRowContext(ctx, query, identifier, contactDigits, message, requestcontext.Now(ctx).UTC()).Scan(
		&item.Identifier,
		&item.ContactDigits,
		&item.Message,
		&item.Version,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) FindByIdentifier(ctx context.Context, identifier string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE identifier = $1`

	item := &models.Item{}
	err := s.db.QueryRowContext(ctx, query, identifier).Scan(
		&item.Identifier,
		&item.ContactDigits,
		&item.Message,
		&item.Version,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find item by identifier: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
