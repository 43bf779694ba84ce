package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisConfig contains Redis-backed store configuration
type RedisConfig struct {
	URL            string
	KeyPrefix      string
	TTL            time.Duration
	MaxConnections int
	MinIdleConns   int
}

// RedisStore keeps each session mapping in a Redis hash with TTL expiry.
type RedisStore struct {
	client *redis.Client
	config RedisConfig
	logger *zap.Logger
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(config RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	// Parse Redis URL
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pool
	opts.PoolSize = config.MaxConnections
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	store := &RedisStore{
		client: client,
		config: config,
		logger: logger,
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis session store initialized",
		zap.String("redis_url", maskRedisURL(config.URL)),
		zap.String("key_prefix", config.KeyPrefix),
		zap.Duration("ttl", config.TTL))

	return store, nil
}

// Record inserts one placeholder entry and refreshes the session's TTL.
func (s *RedisStore) Record(ctx context.Context, sessionID, placeholder, original string) error {
	key := s.key(sessionID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, placeholder, original)
	if s.config.TTL > 0 {
		pipe.Expire(ctx, key, s.config.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record session entry: %w", err)
	}

	return nil
}

// Mapping returns the session's full placeholder mapping.
func (s *RedisStore) Mapping(ctx context.Context, sessionID string) (map[string]string, bool, error) {
	mapping, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session mapping: %w", err)
	}

	// HGETALL returns an empty map for missing keys
	if len(mapping) == 0 {
		return nil, false, nil
	}

	return mapping, true, nil
}

// Delete removes a session and its mapping.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(sessionID string) string {
	return s.config.KeyPrefix + ":" + sessionID
}

// maskRedisURL masks sensitive information in Redis URL for logging
func maskRedisURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					return userParts[0] + ":" + userParts[1] + ":***@" + parts[1]
				}
			}
		}
	}
	return url
}
