package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"afipscan/internal/logger"
	"afipscan/pkg/models"
)

// keyPrefix namespaces the counters inside a shared Redis instance.
const keyPrefix = "ocr:quota"

// RedisStore is the Store used when several workers share a daily quota.
// Keys carry the UTC day and expire shortly after it ends, so stale
// counters clean themselves up.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
	log    zerolog.Logger
}

// NewRedisStore connects to the Redis instance at url and verifies the
// connection with a ping.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient wraps an existing client (for testing).
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		now:    time.Now,
		log:    logger.WithComponent("quota-redis"),
	}
}

// Increment implements Store.
func (r *RedisStore) Increment(ctx context.Context, provider models.Provider) (int64, error) {
	key := r.key(provider)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("quota increment failed: %w", err)
	}
	if count == 1 {
		// First call of the day sets the expiry one hour past UTC midnight.
		if err := r.client.ExpireAt(ctx, key, r.endOfDay().Add(time.Hour)).Err(); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("Failed to set quota key expiry")
		}
	}
	return count, nil
}

// Current implements Store.
func (r *RedisStore) Current(ctx context.Context, provider models.Provider) (int64, error) {
	count, err := r.client.Get(ctx, r.key(provider)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quota read failed: %w", err)
	}
	return count, nil
}

func (r *RedisStore) key(provider models.Provider) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, provider, r.now().UTC().Format("2006-01-02"))
}

func (r *RedisStore) endOfDay() time.Time {
	t := r.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
