package store

import (
	"context"
	"sync"

	"lostfound/internal/item/models"
	"lostfound/pkg/platform/sentinel"
	"lostfound/pkg/requestcontext"
)

// InMemory keeps items in a map guarded by a RWMutex. The map key is the
// identifier, so uniqueness holds by construction.
type InMemory struct {
	mu    sync.RWMutex
	items map[string]models.Item
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[string]models.Item)}
}

func (s *InMemory) Upsert(ctx context.Context, identifier, contactDigits, message string) (*models.Item, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[identifier]
	if !ok {
		item = models.Item{Identifier: identifier, CreatedAt: now}
	}
	item.ContactDigits = contactDigits
	item.Message = message
	item.UpdatedAt = now
	item.Version++
	s.items[identifier] = item
	return &item, nil
}

func (s *InMemory) FindByIdentifier(_ context.Context, identifier string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[identifier]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &item, nil
}

func (s *InMemory) Ping(context.Context) error {
	return nil
}
