package cache

import (
	"context"
	"fmt"
	"io"

	"github.com/orderdesk/backend/internal/domain/shipping"
	"github.com/orderdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Cache drivers
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// TokenCacheFactory creates carrier token caches based on configuration
type TokenCacheFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// TokenCacheFactoryOption is a functional option for configuring the factory
type TokenCacheFactoryOption func(*TokenCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) TokenCacheFactoryOption {
	return func(f *TokenCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache when Redis is unavailable.
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) TokenCacheFactoryOption {
	return func(f *TokenCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewTokenCacheFactory creates a new factory
func NewTokenCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...TokenCacheFactoryOption) *TokenCacheFactory {
	f := &TokenCacheFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateTokenCache returns the configured cache and a closer for its resources.
// With the redis driver it falls back to memory when Redis is unreachable and
// fallback is allowed.
func (f *TokenCacheFactory) CreateTokenCache(ctx context.Context) (shipping.TokenCache, io.Closer, error) {
	if f.cacheConfig.Driver != DriverRedis {
		c := NewInMemoryTokenCache()
		return c, c, nil
	}

	client, err := NewRedisClient(ctx, RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis carrier token cache")
		return NewRedisTokenCache(client, f.cacheConfig.KeyPrefix), client, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("Redis required for token cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory carrier token cache. "+
		"Each replica will authenticate separately.",
		zap.Error(err),
	)
	c := NewInMemoryTokenCache()
	return c, c, nil
}
