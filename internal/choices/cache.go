// Package choices caches the distinct values of emission columns for form
// dropdowns. The cache is redis-backed so every process shares one copy and
// redis owns expiry.
package choices

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Choice is one (value, label) dropdown entry.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Placeholder is the leading empty entry of every choice list.
var Placeholder = Choice{Value: "", Label: "---------"}

// Source provides the distinct values of a column when the cache misses.
type Source interface {
	DistinctValues(ctx context.Context, column string) ([]string, error)
}

type Cache struct {
	client *redis.Client
	source Source
	ttl    time.Duration
}

// New creates a cache over an existing redis client. ttl bounds how stale a
// cached list may get; within it the underlying column is never re-queried.
func New(client *redis.Client, source Source, ttl time.Duration) *Cache {
	return &Cache{client: client, source: source, ttl: ttl}
}

// Open connects to redis and returns a cache over it.
func Open(redisURL string, source Source, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return New(client, source, ttl), nil
}

func key(column string) string {
	return column + "-CHOICES"
}

// Choices returns the dropdown entries for a column, read through the cache.
// On a miss the column's distinct values are queried, a placeholder entry is
// prepended and the list is stored for the configured TTL. A hit is returned
// verbatim with no freshness check. Query failures propagate.
func (c *Cache) Choices(ctx context.Context, column string) ([]Choice, error) {
	cached, err := c.client.Get(ctx, key(column)).Result()
	if err == nil {
		var items []Choice
		if err := json.Unmarshal([]byte(cached), &items); err != nil {
			return nil, fmt.Errorf("unmarshal cached choices for %s: %w", column, err)
		}
		return items, nil
	}
	if err != redis.Nil {
		return nil, fmt.Errorf("read cached choices for %s: %w", column, err)
	}

	values, err := c.source.DistinctValues(ctx, column)
	if err != nil {
		return nil, err
	}

	items := make([]Choice, 0, len(values)+1)
	items = append(items, Placeholder)
	for _, value := range values {
		items = append(items, Choice{Value: value, Label: value})
	}

	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal choices for %s: %w", column, err)
	}
	if err := c.client.Set(ctx, key(column), encoded, c.ttl).Err(); err != nil {
		return nil, fmt.Errorf("cache choices for %s: %w", column, err)
	}
	return items, nil
}

// Invalidate drops the cached list for a column so the next Choices call
// re-queries. Called after mutations that may introduce new values.
func (c *Cache) Invalidate(ctx context.Context, column string) error {
	if err := c.client.Del(ctx, key(column)).Err(); err != nil {
		return fmt.Errorf("invalidate choices for %s: %w", column, err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
