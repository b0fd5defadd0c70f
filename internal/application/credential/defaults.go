package credential

import (
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/shipping"
	"github.com/orderdesk/backend/internal/infrastructure/config"
)

// DefaultsFromConfig builds the process-wide fallbacks. Sources and carrier
// settings without a key are left out so the resolver reports them as
// missing configuration.
func DefaultsFromConfig(carrier config.CarrierConfig, market config.MarketplaceConfig) Defaults {
	d := Defaults{Marketplace: make(map[integration.SourceName]integration.MarketplaceCredentials)}

	if carrier.APIKey != "" {
		d.Carrier = &shipping.CarrierCredentials{
			APIKey:        carrier.APIKey,
			SecretKey:     carrier.SecretKey,
			AccountNumber: carrier.AccountNumber,
			BaseURL:       carrier.BaseURL,
			Origin:        shipping.CredentialOriginDefault,
		}
	}

	for source, sc := range map[integration.SourceName]config.MarketplaceSourceConfig{
		integration.SourceTaobao: market.Taobao,
		integration.SourceDouyin: market.Douyin,
	} {
		if !sc.IsConfigured() {
			continue
		}
		d.Marketplace[source] = integration.MarketplaceCredentials{
			AppKey:         sc.AppKey,
			AppSecret:      sc.AppSecret,
			AccessToken:    sc.AccessToken,
			ShopID:         sc.ShopID,
			APIBaseURL:     sc.APIBaseURL,
			IsSandbox:      sc.IsSandbox,
			TimeoutSeconds: sc.TimeoutSeconds,
		}
	}
	return d
}
