package cache

import (
	"context"
	"sync"
	"time"

	"github.com/orderdesk/backend/internal/domain/shipping"
)

// InMemoryTokenCache implements shipping.TokenCache using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryTokenCache struct {
	mu        sync.RWMutex
	tokens    map[string]shipping.AuthToken
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryTokenCache creates a new in-memory token cache.
// It starts a background goroutine that drops expired tokens.
func NewInMemoryTokenCache() *InMemoryTokenCache {
	c := newInMemoryTokenCache(time.Now)
	c.wg.Add(1)
	go c.cleanupLoop(5 * time.Minute)
	return c
}

func newInMemoryTokenCache(now func() time.Time) *InMemoryTokenCache {
	return &InMemoryTokenCache{
		tokens:   make(map[string]shipping.AuthToken),
		now:      now,
		stopChan: make(chan struct{}),
	}
}

// Get returns the cached token. Expired tokens are reported as absent.
func (c *InMemoryTokenCache) Get(_ context.Context, key string) (shipping.AuthToken, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tokens[key]
	if !ok || !c.now().Before(t.ExpiresAt) {
		return shipping.AuthToken{}, false, nil
	}
	return t, true, nil
}

// Set stores a token until its expiry
func (c *InMemoryTokenCache) Set(_ context.Context, key string, token shipping.AuthToken) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[key] = token
	return nil
}

// Delete drops a token
func (c *InMemoryTokenCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryTokenCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of stored tokens (for testing/monitoring)
func (c *InMemoryTokenCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tokens)
}

func (c *InMemoryTokenCache) cleanupLoop(every time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired tokens
func (c *InMemoryTokenCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, t := range c.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(c.tokens, key)
		}
	}
}

var _ shipping.TokenCache = (*InMemoryTokenCache)(nil)
