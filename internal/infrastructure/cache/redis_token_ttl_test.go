package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/orderdesk/backend/internal/domain/shipping"
)

func TestRedisTokenCache_TTLMatchesExpiry(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c := NewRedisTokenCache(nil, "")
	c.now = func() time.Time { return now }

	assert.Equal(t, time.Hour, c.ttl(shipping.AuthToken{AccessToken: "tok", ExpiresAt: now.Add(time.Hour)}))
	assert.Equal(t, -time.Minute, c.ttl(shipping.AuthToken{AccessToken: "old", ExpiresAt: now.Add(-time.Minute)}))
}
