package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/keithyco/shopping-cart-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps snapshots as JSON strings under cart:<session> keys.
// Entries expire after the base TTL plus jitter so abandoned carts age out
// without all expiring at once.
type RedisStore struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:  client,
		baseTTL: 24 * time.Hour,
	}
}

func (r *RedisStore) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot failed: %w", err)
	}
	return &snap, nil
}

func (r *RedisStore) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Minute
	if err := r.client.Set(ctx, redisKey(key), payload, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func redisKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
