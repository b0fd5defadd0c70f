package shipping

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shipping"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindBySourceKey(ctx context.Context, tenantID uuid.UUID, source integration.SourceName, key string) (*order.Order, error) {
	args := m.Called(ctx, tenantID, source, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindItems(ctx context.Context, orderID uuid.UUID) ([]order.OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.OrderItem), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order, items []order.OrderItem) error {
	return m.Called(ctx, o, items).Error(0)
}

func (m *MockOrderRepository) SaveSynced(ctx context.Context, o *order.Order, items []order.OrderItem) error {
	return m.Called(ctx, o, items).Error(0)
}

func (m *MockOrderRepository) MarkSyncStatus(ctx context.Context, tenantID, id uuid.UUID, status string, at time.Time) error {
	return m.Called(ctx, tenantID, id, status, at).Error(0)
}

func (m *MockOrderRepository) SaveCarrierOptions(ctx context.Context, tenantID, id uuid.UUID, opts order.CarrierOptions) error {
	return m.Called(ctx, tenantID, id, opts).Error(0)
}

func (m *MockOrderRepository) SaveShipment(ctx context.Context, tenantID, id uuid.UUID, result order.ShipmentResult) error {
	return m.Called(ctx, tenantID, id, result).Error(0)
}

// MockCredentialResolver is a mock implementation of CredentialResolver
type MockCredentialResolver struct {
	mock.Mock
}

func (m *MockCredentialResolver) Resolve(ctx context.Context, tenantID uuid.UUID) (shipping.CarrierCredentials, *shipping.ShipperProfile, error) {
	args := m.Called(ctx, tenantID)
	var profile *shipping.ShipperProfile
	if args.Get(1) != nil {
		profile = args.Get(1).(*shipping.ShipperProfile)
	}
	return args.Get(0).(shipping.CarrierCredentials), profile, args.Error(2)
}

// MockCarrierClient is a mock implementation of shipping.CarrierClient
type MockCarrierClient struct {
	mock.Mock
}

func (m *MockCarrierClient) BaseURL(creds shipping.CarrierCredentials) string {
	return "https://apis-sandbox.fedex.com"
}

func (m *MockCarrierClient) Authenticate(ctx context.Context, creds shipping.CarrierCredentials) (shipping.AuthToken, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(shipping.AuthToken), args.Error(1)
}

func (m *MockCarrierClient) CreateShipment(ctx context.Context, token shipping.AuthToken, creds shipping.CarrierCredentials, s shipping.Shipment) (*shipping.ShipmentConfirmation, error) {
	args := m.Called(ctx, token, creds, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.ShipmentConfirmation), args.Error(1)
}

// MockLabelArchive is a mock implementation of shipping.LabelArchive
type MockLabelArchive struct {
	mock.Mock
}

func (m *MockLabelArchive) Archive(ctx context.Context, tenantID, orderID uuid.UUID, tracking, sourceURL string) (string, error) {
	args := m.Called(ctx, tenantID, orderID, tracking, sourceURL)
	return args.String(0), args.Error(1)
}

func (m *MockLabelArchive) URL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// fakeClock is a settable shipping.Clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mapTokenCache is a map-backed shipping.TokenCache
type mapTokenCache struct {
	mu     sync.Mutex
	tokens map[string]shipping.AuthToken
}

func newMapTokenCache() *mapTokenCache {
	return &mapTokenCache{tokens: map[string]shipping.AuthToken{}}
}

func (c *mapTokenCache) Get(_ context.Context, key string) (shipping.AuthToken, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[key]
	return t, ok, nil
}

func (c *mapTokenCache) Set(_ context.Context, key string, t shipping.AuthToken) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[key] = t
	return nil
}

func (c *mapTokenCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, key)
	return nil
}

// countingMetrics records label counters
type countingMetrics struct {
	mu        sync.Mutex
	generated map[string]int
	failures  map[string]int
	refreshes int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{generated: map[string]int{}, failures: map[string]int{}}
}

func (m *countingMetrics) RecordLabelGenerated(_ context.Context, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generated[kind]++
}

func (m *countingMetrics) RecordLabelFailure(_ context.Context, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[state]++
}

func (m *countingMetrics) RecordTokenRefresh(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes++
}
