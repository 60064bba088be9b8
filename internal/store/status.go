package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kvolkov/leadharvest/internal/config"
	cerrors "github.com/kvolkov/leadharvest/internal/errors"
)

// StatusStore remembers which URLs a previous run already harvested so a
// restarted run can skip them. A nil-backed run simply processes all URLs.
type StatusStore interface {
	// Seen reports whether the URL was marked done by an earlier run.
	Seen(ctx context.Context, url string) (bool, error)
	// MarkDone records the URL as harvested.
	MarkDone(ctx context.Context, url string) error
	Close() error
}

// RedisStore implements StatusStore on a Redis keyspace with a TTL per
// entry, so stale runs age out on their own.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects and verifies the server is reachable before the
// run starts; a dead Redis should fail the run up front, not mid-batch.
func NewRedisStore(ctx context.Context, cfg config.StatusConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, cerrors.New(cerrors.KindFatalConfiguration, "store.redis", err)
	}
	return &RedisStore{
		client: client,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL(),
	}, nil
}

func (s *RedisStore) key(url string) string {
	return s.prefix + ":done:" + url
}

// Seen implements StatusStore.
func (s *RedisStore) Seen(ctx context.Context, url string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(url)).Result()
	if err != nil {
		return false, cerrors.New(cerrors.KindTransientNetwork, "store.redis", err)
	}
	return n > 0, nil
}

// MarkDone implements StatusStore.
func (s *RedisStore) MarkDone(ctx context.Context, url string) error {
	if err := s.client.Set(ctx, s.key(url), time.Now().UTC().Format(time.RFC3339), s.ttl).Err(); err != nil {
		return cerrors.New(cerrors.KindTransientNetwork, "store.redis", err)
	}
	return nil
}

// Close implements StatusStore.
func (s *RedisStore) Close() error { return s.client.Close() }
