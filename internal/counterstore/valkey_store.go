package counterstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/tripsentry/tripsentry-core/internal/metrics"
)

// valkeyStore implements CounterStore against a single-node Valkey/Redis
// instance. Sliding windows live in sorted sets scored by unix seconds;
// debounce marks are plain keys with native TTL.
type valkeyStore struct {
	client *redis.Client
}

func NewValkeyStore(addr string, db int, password string) (CounterStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &valkeyStore{client: client}, nil
}

// NewValkeyStoreFromClient wraps an existing client. Used by tests that run
// against a miniature or mock server.
func NewValkeyStoreFromClient(client *redis.Client) CounterStore {
	return &valkeyStore{client: client}
}

func (v *valkeyStore) DebounceCheck(ctx context.Context, key string) (bool, error) {
	n, err := v.client.Exists(ctx, key).Result()
	if err != nil {
		metrics.RecordStoreOperation("debounce_check", "error")
		return false, err
	}
	metrics.RecordStoreOperation("debounce_check", "success")
	return n > 0, nil
}

func (v *valkeyStore) DebounceMark(ctx context.Context, key string, ttl time.Duration) error {
	if err := v.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		metrics.RecordStoreOperation("debounce_mark", "error")
		return err
	}
	metrics.RecordStoreOperation("debounce_mark", "success")
	return nil
}

func (v *valkeyStore) CountWindow(ctx context.Context, key string, window time.Duration) (int, error) {
	cutoff := nowScore() - window.Seconds()

	// Prune lazily on read, then count what survived.
	pipe := v.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", formatScore(cutoff))
	count := pipe.ZCount(ctx, key, "("+formatScore(cutoff), "+inf")
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordStoreOperation("count_window", "error")
		return 0, err
	}
	metrics.RecordStoreOperation("count_window", "success")
	return int(count.Val()), nil
}

func (v *valkeyStore) IncrementWindow(ctx context.Context, key string, window time.Duration) error {
	now := nowScore()

	// Unique member per entry; the score carries the timestamp. The key's own
	// TTL is refreshed on every increment so abandoned subjects self-clean.
	pipe := v.client.TxPipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: now, Member: uuid.NewString()})
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordStoreOperation("increment_window", "error")
		return err
	}
	metrics.RecordStoreOperation("increment_window", "success")
	return nil
}

func (v *valkeyStore) OldestInWindow(ctx context.Context, key string, window time.Duration) (time.Time, bool, error) {
	cutoff := nowScore() - window.Seconds()
	if err := v.client.ZRemRangeByScore(ctx, key, "-inf", formatScore(cutoff)).Err(); err != nil {
		metrics.RecordStoreOperation("oldest_in_window", "error")
		return time.Time{}, false, err
	}

	entries, err := v.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		metrics.RecordStoreOperation("oldest_in_window", "error")
		return time.Time{}, false, err
	}
	metrics.RecordStoreOperation("oldest_in_window", "success")
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}
	sec, frac := int64(entries[0].Score), entries[0].Score-float64(int64(entries[0].Score))
	return time.Unix(sec, int64(frac*1e9)), true, nil
}

// HealthCheck pings the Valkey instance. Used by the readiness endpoint.
func (v *valkeyStore) HealthCheck(ctx context.Context) error {
	if ctx == nil {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ctx = c
	}
	return v.client.Ping(ctx).Err()
}

func nowScore() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
