package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/application/reconciliation"
	appshipping "github.com/orderdesk/backend/internal/application/shipping"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
	"github.com/orderdesk/backend/internal/domain/shipping"
	"github.com/orderdesk/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lifecycleAdapter serves one mutable bundle per Fetch
type lifecycleAdapter struct {
	mu     sync.Mutex
	bundle integration.OrderBundle
}

func (a *lifecycleAdapter) Source() integration.SourceName { return integration.SourceTaobao }

func (a *lifecycleAdapter) Fetch(context.Context, uuid.UUID, integration.MarketplaceCredentials) ([]integration.OrderBundle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return []integration.OrderBundle{a.bundle}, nil
}

func (a *lifecycleAdapter) FetchOne(_ context.Context, _ uuid.UUID, _ integration.MarketplaceCredentials, key string) (*integration.OrderBundle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bundle.Order.SourceKey != key {
		return nil, integration.ErrOrderNotFound
	}
	b := a.bundle
	return &b, nil
}

func (a *lifecycleAdapter) setTotal(total string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bundle.Order.TotalPrice = decPtr(total)
}

type lifecycleMarketplaceCreds struct{}

func (lifecycleMarketplaceCreds) ResolveMarketplace(context.Context, uuid.UUID, integration.SourceName) (integration.MarketplaceCredentials, error) {
	return integration.MarketplaceCredentials{AppKey: "k", AppSecret: "s", AccessToken: "t"}, nil
}

type lifecycleCarrierCreds struct {
	creds shipping.CarrierCredentials
}

func (r lifecycleCarrierCreds) Resolve(_ context.Context, tenantID uuid.UUID) (shipping.CarrierCredentials, *shipping.ShipperProfile, error) {
	return r.creds, &shipping.ShipperProfile{
		TenantID:          tenantID,
		CompanyName:       "Acme Prints",
		ContactName:       "Jo Shipper",
		Phone:             "5125550100",
		Address:           valueobject.NewAddress([]string{"100 Congress Ave"}, "Austin", "TX", "78701", "US"),
		TaxID:             "12-3456789",
		TaxIDType:         shipping.TaxIDBusinessNational,
		DefaultCurrency:   "USD",
		DutiesPaymentType: order.PaymentSender,
	}, nil
}

// lifecycleCarrier accepts every shipment and counts token requests
type lifecycleCarrier struct {
	mu        sync.Mutex
	auths     int
	shipments int
}

func (c *lifecycleCarrier) BaseURL(shipping.CarrierCredentials) string {
	return "https://apis-sandbox.fedex.com"
}

func (c *lifecycleCarrier) Authenticate(context.Context, shipping.CarrierCredentials) (shipping.AuthToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auths++
	return shipping.AuthToken{AccessToken: "tok", TokenType: "bearer", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (c *lifecycleCarrier) CreateShipment(context.Context, shipping.AuthToken, shipping.CarrierCredentials, shipping.Shipment) (*shipping.ShipmentConfirmation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shipments++
	return &shipping.ShipmentConfirmation{
		TransactionID:        "tx-1",
		MasterTrackingNumber: "794600000100",
		Documents: []shipping.LabelDocument{
			{ContentType: "LABEL", URL: "https://labels.example/794600000100.pdf"},
		},
	}, nil
}

func TestOrderLifecycle_SyncEditResyncLabel(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	adapter := &lifecycleAdapter{bundle: integration.OrderBundle{
		Order: normalizedOrder("V-100"),
		Items: []integration.NormalizedLineItem{lineItem("L1", 1), lineItem("L2", 2)},
	}}
	syncer := reconciliation.NewService(repo, integration.NewAdapterRegistry(adapter), lifecycleMarketplaceCreds{}, nil)

	first, err := syncer.SyncTenant(ctx, tenantID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Added)
	assert.Equal(t, 0, first.Updated)

	stored, err := repo.FindBySourceKey(ctx, tenantID, integration.SourceTaobao, "V-100")
	require.NoError(t, err)

	// operator edits land directly in the store
	require.NoError(t, db.Table("orders").Where("id = ?", stored.ID).
		Update("packing_status", "Packed").Error)
	require.NoError(t, db.Table("order_items").Where("order_id = ? AND remote_line_id = ?", stored.ID, "L1").
		Update("notes", "handle with care").Error)

	adapter.setTotal("55.00")
	second, err := syncer.SyncTenant(ctx, tenantID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 1, second.Updated)
	assert.Empty(t, second.Failures)

	resynced, err := repo.FindByID(ctx, tenantID, stored.ID)
	require.NoError(t, err)
	require.NotNil(t, resynced.PackingStatus)
	assert.Equal(t, "Packed", *resynced.PackingStatus)
	assert.Equal(t, "55", resynced.TotalPrice.String())
	assert.Equal(t, order.SyncStatusOK, resynced.SyncStatus)

	items, err := repo.FindItems(ctx, stored.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		if it.RemoteLineID == "L1" {
			require.NotNil(t, it.Notes)
			assert.Equal(t, "handle with care", *it.Notes)
		} else {
			assert.Nil(t, it.Notes)
		}
	}

	weight := decPtr("1.2")
	require.NoError(t, repo.SaveCarrierOptions(ctx, tenantID, stored.ID, order.CarrierOptions{WeightKG: weight}))

	tokens := cache.NewInMemoryTokenCache()
	t.Cleanup(func() { _ = tokens.Close() })
	carrier := &lifecycleCarrier{}
	labels := appshipping.NewLabelService(repo,
		lifecycleCarrierCreds{creds: shipping.CarrierCredentials{APIKey: "key", SecretKey: "secret", AccountNumber: "740561073"}},
		carrier, tokens, appshipping.LabelConfig{}, nil)

	for range 2 {
		res, err := labels.GenerateLabel(ctx, appshipping.GenerateLabelInput{TenantID: tenantID, OrderID: stored.ID})
		require.NoError(t, err)
		assert.Equal(t, "794600000100", res.TrackingNumber)
	}
	assert.Equal(t, 1, carrier.auths)
	assert.Equal(t, 2, carrier.shipments)

	labeled, err := repo.FindByID(ctx, tenantID, stored.ID)
	require.NoError(t, err)
	require.NotNil(t, labeled.Shipment.ShipmentStatus)
	assert.Equal(t, order.ShipmentStatusLabelGenerated, *labeled.Shipment.ShipmentStatus)
	require.NotNil(t, labeled.Shipment.TrackingNumber)
	assert.NotEmpty(t, *labeled.Shipment.TrackingNumber)
	require.NotNil(t, labeled.Shipment.LabelURL)
	assert.Equal(t, "https://labels.example/794600000100.pdf", *labeled.Shipment.LabelURL)
	require.NotNil(t, labeled.PackingStatus)
	assert.Equal(t, "Packed", *labeled.PackingStatus)
}
