package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"lostfound/internal/item/models"
	"lostfound/pkg/platform/sentinel"
	"lostfound/pkg/requestcontext"
)

// sqliteSchema is applied by EnsureSchema. Timestamps are unix milliseconds.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
	identifier     TEXT PRIMARY KEY,
	contact_digits TEXT NOT NULL,
	message        TEXT NOT NULL,
	version        INTEGER NOT NULL DEFAULT 1,
	created_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL
)`

// SQLiteStore persists items in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return NewSQLite(db), nil
}

// NewSQLite wraps an open SQLite handle.
func NewSQLite(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// EnsureSchema creates the items table when missing. Safe to call repeatedly.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, identifier, contactDigits, message string) (*models.Item, error) {
	query := `
		INSERT INTO items (identifier, contact_digits, message, version, created_at, updated_at)
		VALUES (?1, ?2, ?3, 1, ?4, ?4)
		ON CONFLICT (identifier) DO UPDATE SET
			contact_digits = excluded.contact_digits,
			message = excluded.message,
			version = items.version + 1,
			updated_at = excluded.updated_at
		RETURNING ` + itemColumns

	row := s.db.QueryRowContext(ctx, query, identifier, contactDigits, message, requestcontext.Now(ctx).UnixMilli())
	item, err := scanSQLiteItem(row)
	if err != nil {
		return nil, fmt.Errorf("upsert item: %w", err)
	}
	return item, nil
}

func (s *SQLiteStore) FindByIdentifier(ctx context.Context, identifier string) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE identifier = ?1`, identifier)
	item, err := scanSQLiteItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find item by identifier: %w", err)
	}
	return item, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanSQLiteItem(row *sql.Row) (*models.Item, error) {
	var (
		item               models.Item
		createdAt, updated int64
	)
	if err := row.Scan(&item.Identifier, &item.ContactDigits, &item.Message, &item.Version, &createdAt, &updated); err != nil {
		return nil, err
	}
	item.CreatedAt = time.UnixMilli(createdAt).UTC()
	item.UpdatedAt = time.UnixMilli(updated).UTC()
	return &item, nil
}
