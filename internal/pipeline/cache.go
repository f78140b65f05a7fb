package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"go-character-pipeline/internal/model"
)

// ------------------- Record Cache -------------------

// ErrCacheUnavailable marks the store as unreachable at connect time.
// The caller decides whether that terminates the process.
var ErrCacheUnavailable = errors.New("cache unavailable")

// RecordCache stores record snapshots in Redis as JSON-encoded text.
type RecordCache struct {
	client *redis.Client
}

// ConnectCache opens a connection to Redis and pings it immediately.
func ConnectCache(ctx context.Context, addr string) (*RecordCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: unable to connect to Redis at %s: %v", ErrCacheUnavailable, addr, err)
	}
	return &RecordCache{client: client}, nil
}

// Save serializes the records and stores them under key, overwriting any
// prior snapshot. No expiry, no versioning.
func (c *RecordCache) Save(ctx context.Context, key string, records []model.Character) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save records under %q: %w", key, err)
	}
	return nil
}

// Load retrieves the snapshot stored under key. An absent key is not an
// error: ok is false and the records are nil.
func (c *RecordCache) Load(ctx context.Context, key string) ([]model.Character, bool, error) {
	payload, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load records under %q: %w", key, err)
	}

	var records []model.Character
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, false, fmt.Errorf("failed to decode records under %q: %w", key, err)
	}
	return records, true, nil
}

func (c *RecordCache) Close() error {
	return c.client.Close()
}
