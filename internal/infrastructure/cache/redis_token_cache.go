package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/orderdesk/backend/internal/domain/shipping"
	"github.com/redis/go-redis/v9"
)

const defaultTokenKeyPrefix = "carrier:token:"

// RedisTokenCache implements shipping.TokenCache using Redis so every replica
// shares one carrier token per credential identity.
type RedisTokenCache struct {
	client    redis.UniversalClient
	keyPrefix string
	now       func() time.Time
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisTokenCache creates a cache over an existing client
func NewRedisTokenCache(client redis.UniversalClient, keyPrefix string) *RedisTokenCache {
	if keyPrefix == "" {
		keyPrefix = defaultTokenKeyPrefix
	}
	return &RedisTokenCache{client: client, keyPrefix: keyPrefix, now: time.Now}
}

// Get returns the cached token, false when absent or expired
func (c *RedisTokenCache) Get(ctx context.Context, key string) (shipping.AuthToken, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return shipping.AuthToken{}, false, nil
	}
	if err != nil {
		return shipping.AuthToken{}, false, fmt.Errorf("failed to read carrier token: %w", err)
	}

	var t shipping.AuthToken
	if err := json.Unmarshal(raw, &t); err != nil {
		// a corrupt entry is treated as a miss and overwritten by the next Set
		return shipping.AuthToken{}, false, nil
	}
	if !c.now().Before(t.ExpiresAt) {
		return shipping.AuthToken{}, false, nil
	}
	return t, true, nil
}

// Set stores a token with a TTL matching its carrier-reported expiry. Already
// expired tokens are not stored. Readers apply their own safety margin.
func (c *RedisTokenCache) Set(ctx context.Context, key string, token shipping.AuthToken) error {
	ttl := c.ttl(token)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode carrier token: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store carrier token: %w", err)
	}
	return nil
}

func (c *RedisTokenCache) ttl(token shipping.AuthToken) time.Duration {
	return token.ExpiresAt.Sub(c.now())
}

// Delete drops a token
func (c *RedisTokenCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete carrier token: %w", err)
	}
	return nil
}

var _ shipping.TokenCache = (*RedisTokenCache)(nil)
