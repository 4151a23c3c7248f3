package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/kafka"
)

const processedPrefix = "events:processed:"

// IdempotencyStore records processed event ids in Redis so duplicates are
// skipped across consumer restarts.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a store whose marks expire after ttl.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

var _ kafka.IdempotencyStore = (*IdempotencyStore)(nil)

func (s *IdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, processedPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists event: %w", err)
	}
	return n > 0, nil
}

func (s *IdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.SetNX(ctx, processedPrefix+eventID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis mark event: %w", err)
	}
	return nil
}
