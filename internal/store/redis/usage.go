package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Usage is the recorded traffic of one service.
type Usage struct {
	Count    int64     `json:"count"`
	LastUsed time.Time `json:"last_used,omitzero"`
}

// Store records per-service usage in Redis
type Store struct {
	client *redis.Client
	now    func() time.Time
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		now:    time.Now,
	}
}

// RecordUse increments the forward counter of a service and stamps its last use
func (s *Store) RecordUse(ctx context.Context, name string) error {
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, UsageKey(name))
	pipe.Set(ctx, LastUsedKey(name), s.now().Unix(), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record usage of %s: %w", name, err)
	}
	return nil
}

// UsageStats retrieves usage statistics for the given services.
// Services that were never used are reported with a zero count.
func (s *Store) UsageStats(ctx context.Context, names []string) (map[string]Usage, error) {
	stats := make(map[string]Usage, len(names))
	if len(names) == 0 {
		return stats, nil
	}

	keys := make([]string, 0, len(names)*2)
	for _, name := range names {
		keys = append(keys, UsageKey(name), LastUsedKey(name))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}

	for i, name := range names {
		stats[name] = Usage{
			Count:    parseInt(values[2*i]),
			LastUsed: parseUnix(values[2*i+1]),
		}
	}
	return stats, nil
}

// GetUsage retrieves the counter of a single service
func (s *Store) GetUsage(ctx context.Context, name string) (int64, error) {
	n, err := s.client.Get(ctx, UsageKey(name)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get usage of %s: %w", name, err)
	}
	return n, nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MGET returns nil for missing keys and strings otherwise
func parseInt(v any) int64 {
	str, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseUnix(v any) time.Time {
	secs := parseInt(v)
	if secs == 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
