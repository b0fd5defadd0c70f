package ecommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/orderdesk/backend/internal/domain/integration"
)

// DouyinConfig holds configuration for Douyin Shop (抖店) API integration
type DouyinConfig struct {
	// AppKey is the application key from Douyin open platform
	AppKey string
	// AppSecret is the application secret
	AppSecret string
	// AccessToken is the shop's OAuth access token
	AccessToken string
	// ShopID is the Douyin shop identifier
	ShopID string
	// APIBaseURL is the API host (production or sandbox)
	APIBaseURL string
}

const (
	// DouyinProductionAPIURL is the production API endpoint
	DouyinProductionAPIURL = "https://openapi-fxg.jinritemai.com"
	// DouyinSandboxAPIURL is the sandbox API endpoint
	DouyinSandboxAPIURL = "https://openapi-sandbox.jinritemai.com"
	// douyinAPIVersion is the signing protocol version
	douyinAPIVersion = "2"
)

// newDouyinConfig derives the request config from resolved credentials
func newDouyinConfig(creds integration.MarketplaceCredentials) *DouyinConfig {
	cfg := &DouyinConfig{
		AppKey:      creds.AppKey,
		AppSecret:   creds.AppSecret,
		AccessToken: creds.AccessToken,
		ShopID:      creds.ShopID,
		APIBaseURL:  creds.APIBaseURL,
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DouyinProductionAPIURL
		if creds.IsSandbox {
			cfg.APIBaseURL = DouyinSandboxAPIURL
		}
	}
	return cfg
}

// Sign generates the HMAC-SHA256 signature for a Douyin API request.
// The signed string is secret + method + param_json + timestamp + v + secret.
func (c *DouyinConfig) Sign(method, paramJSON, timestamp, v string) string {
	payload := c.AppSecret + method + paramJSON + timestamp + v + c.AppSecret
	mac := hmac.New(sha256.New, []byte(c.AppSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
