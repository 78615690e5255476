package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lostfound/internal/item/models"
)

const itemKeyPrefix = "item:"

// setIfNotOlder stores ARGV[1] unless the JSON already under KEYS[1] carries a
// version above ARGV[2]. ARGV[3] is the TTL in milliseconds, 0 for none.
var setIfNotOlder = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current then
	local ok, decoded = pcall(cjson.decode, current)
	if ok and type(decoded) == "table" and (tonumber(decoded.version) or 0) > tonumber(ARGV[2]) then
		return 0
	end
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`)

// RedisCache stores item records as JSON under "item:<identifier>" with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

type cachedItem struct {
	Identifier    string    `json:"identifier"`
	ContactDigits string    `json:"contact_digits"`
	Message       string    `json:"message"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (c *RedisCache) Get(ctx context.Context, identifier string) (*models.Item, bool, error) {
	raw, err := c.client.Get(ctx, itemKeyPrefix+identifier).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get item: %w", err)
	}
	var ci cachedItem
	if err := json.Unmarshal(raw, &ci); err != nil {
		return nil, false, fmt.Errorf("decode cached item: %w", err)
	}
	return &models.Item{
		Identifier:    ci.Identifier,
		ContactDigits: ci.ContactDigits,
		Message:       ci.Message,
		Version:       ci.Version,
		CreatedAt:     ci.CreatedAt,
		UpdatedAt:     ci.UpdatedAt,
	}, true, nil
}

func (c *RedisCache) Add(ctx context.Context, item *models.Item) error {
	raw, err := encodeItem(item)
	if err != nil {
		return err
	}
	if err := c.client.SetNX(ctx, itemKeyPrefix+item.Identifier, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis add item: %w", err)
	}
	return nil
}

func (c *RedisCache) Set(ctx context.Context, item *models.Item) error {
	raw, err := encodeItem(item)
	if err != nil {
		return err
	}
	keys := []string{itemKeyPrefix + item.Identifier}
	if err := setIfNotOlder.Run(ctx, c.client, keys, raw, item.Version, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis set item: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, identifier string) error {
	if err := c.client.Del(ctx, itemKeyPrefix+identifier).Err(); err != nil {
		return fmt.Errorf("redis delete item: %w", err)
	}
	return nil
}

func encodeItem(item *models.Item) ([]byte, error) {
	raw, err := json.Marshal(cachedItem{
		Identifier:    item.Identifier,
		ContactDigits: item.ContactDigits,
		Message:       item.Message,
		Version:       item.Version,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode cached item: %w", err)
	}
	return raw, nil
}
