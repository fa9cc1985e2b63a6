// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/storefront/internal/log"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisKeyPrefix namespaces session keys in a shared Redis database.
const RedisKeyPrefix = "storefront:session:"

// RedisStore is a Redis-backed Store.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
}

// OpenRedisStore connects and pings Redis.
func OpenRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("redis session store: addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger := log.WithComponent("session")
	logger.Info().
		Str(log.FieldBackend, BackendRedis).
		Str("addr", config.Addr).
		Int("db", config.DB).
		Msg("connected to Redis session store")

	return newRedisStore(client, logger), nil
}

func newRedisStore(client *redis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, RedisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		s.logger.Warn().Err(err).Str(log.FieldKey, key).Msg("redis get failed")
		return "", false, fmt.Errorf("redis session store: get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, RedisKeyPrefix+key, value, 0).Err(); err != nil {
		s.logger.Warn().Err(err).Str(log.FieldKey, key).Msg("redis set failed")
		return fmt.Errorf("redis session store: set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, RedisKeyPrefix+key).Err(); err != nil {
		s.logger.Warn().Err(err).Str(log.FieldKey, key).Msg("redis delete failed")
		return fmt.Errorf("redis session store: delete %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// HealthCheck checks if Redis is available.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ Store = (*RedisStore)(nil)
