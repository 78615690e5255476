package store

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"lostfound/internal/item/models"
)

// MemoryCache is a process-local TTL cache used when Redis is not configured.
type MemoryCache struct {
	// mu serializes writers so Set's version check and store are atomic.
	mu    sync.Mutex
	items *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(_ context.Context, identifier string) (*models.Item, bool, error) {
	v, ok := c.items.Get(identifier)
	if !ok {
		return nil, false, nil
	}
	item := v.(models.Item)
	return &item, true, nil
}

func (c *MemoryCache) Add(_ context.Context, item *models.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// go-cache reports an existing entry as an error; for a fill that is the
	// expected outcome, not a failure.
	_ = c.items.Add(item.Identifier, *item, gocache.DefaultExpiration)
	return nil
}

func (c *MemoryCache) Set(_ context.Context, item *models.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.items.Get(item.Identifier); ok && v.(models.Item).Version > item.Version {
		return nil
	}
	c.items.SetDefault(item.Identifier, *item)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, identifier string) error {
	c.items.Delete(identifier)
	return nil
}
