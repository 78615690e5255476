package store

import (
	"context"
	"log/slog"

	"lostfound/internal/item/metrics"
	"lostfound/internal/item/models"
	"lostfound/pkg/requestcontext"
)

// Cache holds item records keyed by identifier. A miss returns (nil, false, nil).
//
// Add fills an absent entry and leaves an existing one alone; lookups use it so
// a record read before a concurrent upsert cannot replace the upserted one.
// Set stores the item unless the cached entry carries a higher Version.
type Cache interface {
	Get(ctx context.Context, identifier string) (*models.Item, bool, error)
	Add(ctx context.Context, item *models.Item) error
	Set(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, identifier string) error
}

// Cached decorates a Backend with a write-through cache. The backend stays the
// source of truth and cache failures are logged, never returned. Every upsert
// writes the committed record to the cache; when that fails the entry is
// evicted instead.
type Cached struct {
	backend Backend
	cache   Cache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// CachedOption configures a Cached store.
type CachedOption func(*Cached)

func WithCacheLogger(logger *slog.Logger) CachedOption {
	return func(c *Cached) {
		c.logger = logger
	}
}

func WithCacheMetrics(m *metrics.Metrics) CachedOption {
	return func(c *Cached) {
		c.metrics = m
	}
}

func NewCached(backend Backend, cache Cache, opts ...CachedOption) *Cached {
	c := &Cached{
		backend: backend,
		cache:   cache,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cached) Upsert(ctx context.Context, identifier, contactDigits, message string) (*models.Item, error) {
	item, err := c.backend.Upsert(ctx, identifier, contactDigits, message)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, item); err != nil {
		c.logger.WarnContext(ctx, "failed to write cached item",
			"identifier", identifier,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		if err := c.cache.Delete(ctx, identifier); err != nil {
			c.logger.WarnContext(ctx, "failed to evict cached item",
				"identifier", identifier,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	return item, nil
}

func (c *Cached) FindByIdentifier(ctx context.Context, identifier string) (*models.Item, error) {
	item, ok, err := c.cache.Get(ctx, identifier)
	switch {
	case err != nil:
		c.metrics.IncrementCacheLookup("error")
		c.logger.WarnContext(ctx, "item cache read failed",
			"identifier", identifier,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	case ok:
		c.metrics.IncrementCacheLookup("hit")
		return item, nil
	default:
		c.metrics.IncrementCacheLookup("miss")
	}

	item, err = c.backend.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Add(ctx, item); err != nil {
		c.logger.WarnContext(ctx, "failed to populate item cache",
			"identifier", identifier,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return item, nil
}

func (c *Cached) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}
