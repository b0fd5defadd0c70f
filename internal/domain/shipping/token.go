package shipping

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// AuthToken is a carrier OAuth bearer token
type AuthToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ValidAt reports whether the token can still be used at now, leaving margin
// before the carrier-reported expiry.
func (t AuthToken) ValidAt(now time.Time, margin time.Duration) bool {
	return t.AccessToken != "" && now.Add(margin).Before(t.ExpiresAt)
}

// TokenCache stores carrier tokens by credential identity. Implementations
// must be safe for concurrent use; a redundant refresh by two callers is fine.
type TokenCache interface {
	// Get returns the cached token, false when absent
	Get(ctx context.Context, key string) (AuthToken, bool, error)

	// Set stores a token until its expiry
	Set(ctx context.Context, key string, token AuthToken) error

	// Delete drops a token, used after the carrier rejects it
	Delete(ctx context.Context, key string) error
}

// Clock abstracts time for token expiry
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns time.Now
func (SystemClock) Now() time.Time { return time.Now() }

// TokenKey derives the cache key for a credential identity. The secret is
// hashed in so rotated secrets never reuse a stale token, and never stored.
func TokenKey(creds CarrierCredentials, baseURL string) string {
	sum := sha256.Sum256([]byte(baseURL + "\x00" + creds.APIKey + "\x00" + creds.SecretKey))
	return hex.EncodeToString(sum[:16])
}
