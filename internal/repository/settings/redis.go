package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisNamespace prefixes every key written by RedisStore.
const DefaultRedisNamespace = "irrigation:settings:"

// RedisStore keeps settings as decimal strings in Redis.
type RedisStore struct {
	// client is the shared Redis connection pool.
	client redis.UniversalClient
	// namespace is prepended to every key.
	namespace string
}

// NewRedisStore wraps an existing client. An empty namespace selects DefaultRedisNamespace.
func NewRedisStore(client redis.UniversalClient, namespace string) *RedisStore {
	if namespace == "" {
		namespace = DefaultRedisNamespace
	}

	return &RedisStore{
		client:    client,
		namespace: namespace,
	}
}

// DialRedis connects to addr and verifies the connection with a PING.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return client, nil
}

// GetU32 implements Store.
func (s *RedisStore) GetU32(ctx context.Context, key string) (uint32, error) {
	v, err := s.get(ctx, key)
	if err != nil {
		return 0, err
	}

	return narrowU32(key, v)
}

// SetU32 implements Store.
func (s *RedisStore) SetU32(ctx context.Context, key string, value uint32) error {
	return s.set(ctx, key, strconv.FormatUint(uint64(value), 10))
}

// GetI64 implements Store.
func (s *RedisStore) GetI64(ctx context.Context, key string) (int64, error) {
	return s.get(ctx, key)
}

// SetI64 implements Store.
func (s *RedisStore) SetI64(ctx context.Context, key string, value int64) error {
	return s.set(ctx, key, strconv.FormatInt(value, 10))
}

// GetU8 implements Store.
func (s *RedisStore) GetU8(ctx context.Context, key string) (uint8, error) {
	v, err := s.get(ctx, key)
	if err != nil {
		return 0, err
	}

	return narrowU8(key, v)
}

// SetU8 implements Store.
func (s *RedisStore) SetU8(ctx context.Context, key string, value uint8) error {
	return s.set(ctx, key, strconv.FormatUint(uint64(value), 10))
}

func (s *RedisStore) get(ctx context.Context, key string) (int64, error) {
	raw, err := s.client.Get(ctx, s.namespace+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotFound
		}

		return 0, fmt.Errorf("redis get %q: %w", key, err)
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrMalformed, key, err)
	}

	return v, nil
}

func (s *RedisStore) set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.namespace+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}

	return nil
}
