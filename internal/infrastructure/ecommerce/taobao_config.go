package ecommerce

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/orderdesk/backend/internal/domain/integration"
)

// TaobaoConfig holds configuration for Taobao/Tmall API integration
type TaobaoConfig struct {
	// AppKey is the application key from Taobao open platform
	AppKey string
	// AppSecret is the application secret from Taobao open platform
	AppSecret string
	// SessionKey is the seller's access token (session key)
	SessionKey string
	// APIBaseURL is the router endpoint (production or sandbox)
	APIBaseURL string
}

const (
	// TaobaoProductionAPIURL is the production API endpoint
	TaobaoProductionAPIURL = "https://gw.api.taobao.com/router/rest"
	// TaobaoSandboxAPIURL is the sandbox API endpoint
	TaobaoSandboxAPIURL = "https://gw.api.tbsandbox.com/router/rest"
)

// newTaobaoConfig derives the request config from resolved credentials
func newTaobaoConfig(creds integration.MarketplaceCredentials) *TaobaoConfig {
	cfg := &TaobaoConfig{
		AppKey:     creds.AppKey,
		AppSecret:  creds.AppSecret,
		SessionKey: creds.AccessToken,
		APIBaseURL: creds.APIBaseURL,
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = TaobaoProductionAPIURL
		if creds.IsSandbox {
			cfg.APIBaseURL = TaobaoSandboxAPIURL
		}
	}
	return cfg
}

// Sign generates the signature for a Taobao API request.
// Taobao's legacy API requires MD5(secret + sorted key/value pairs + secret).
func (c *TaobaoConfig) Sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	builder.WriteString(c.AppSecret)
	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString(params[k])
	}
	builder.WriteString(c.AppSecret)

	hash := md5.Sum([]byte(builder.String()))
	return strings.ToUpper(hex.EncodeToString(hash[:]))
}
