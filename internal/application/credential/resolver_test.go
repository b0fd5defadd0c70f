package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/domain/shipping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCarrierCredentialRepository is a mock implementation of shipping.CarrierCredentialRepository
type MockCarrierCredentialRepository struct {
	mock.Mock
}

func (m *MockCarrierCredentialRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID) (*shipping.CarrierCredentials, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.CarrierCredentials), args.Error(1)
}

func (m *MockCarrierCredentialRepository) FindDefault(ctx context.Context) (*shipping.CarrierCredentials, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.CarrierCredentials), args.Error(1)
}

func (m *MockCarrierCredentialRepository) Save(ctx context.Context, tenantID *uuid.UUID, creds shipping.CarrierCredentials) error {
	return m.Called(ctx, tenantID, creds).Error(0)
}

// MockProfileRepository is a mock implementation of shipping.ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*shipping.ShipperProfile, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.ShipperProfile), args.Error(1)
}

func (m *MockProfileRepository) Save(ctx context.Context, profile *shipping.ShipperProfile) error {
	return m.Called(ctx, profile).Error(0)
}

// MockMarketplaceCredentialRepository is a mock implementation of integration.CredentialRepository
type MockMarketplaceCredentialRepository struct {
	mock.Mock
}

func (m *MockMarketplaceCredentialRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, source integration.SourceName) (*integration.MarketplaceCredentials, error) {
	args := m.Called(ctx, tenantID, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.MarketplaceCredentials), args.Error(1)
}

func (m *MockMarketplaceCredentialRepository) FindDefault(ctx context.Context, source integration.SourceName) (*integration.MarketplaceCredentials, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.MarketplaceCredentials), args.Error(1)
}

func (m *MockMarketplaceCredentialRepository) ListTenants(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockMarketplaceCredentialRepository) Save(ctx context.Context, tenantID *uuid.UUID, source integration.SourceName, creds integration.MarketplaceCredentials) error {
	return m.Called(ctx, tenantID, source, creds).Error(0)
}

type fixture struct {
	carrier  *MockCarrierCredentialRepository
	profiles *MockProfileRepository
	market   *MockMarketplaceCredentialRepository
}

func newFixture() fixture {
	return fixture{
		carrier:  new(MockCarrierCredentialRepository),
		profiles: new(MockProfileRepository),
		market:   new(MockMarketplaceCredentialRepository),
	}
}

func (f fixture) resolver(defaults Defaults) *Resolver {
	return NewResolver(f.carrier, f.profiles, f.market, defaults, nil)
}

func completeCarrier() *shipping.CarrierCredentials {
	return &shipping.CarrierCredentials{APIKey: "key", SecretKey: "secret", AccountNumber: "740561073"}
}

func configField(t *testing.T, err error) string {
	t.Helper()
	require.ErrorIs(t, err, shared.ErrConfig)
	de, _ := shared.AsDomainError(err)
	require.NotEmpty(t, de.Fields)
	return de.Fields[0].Field
}

func TestResolveCarrier_TenantOverride(t *testing.T) {
	f := newFixture()
	tenantID := uuid.New()
	f.carrier.On("FindForTenant", mock.Anything, tenantID).Return(completeCarrier(), nil)

	creds, err := f.resolver(Defaults{}).ResolveCarrier(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, shipping.CredentialOriginTenant, creds.Origin)
	f.carrier.AssertNotCalled(t, "FindDefault", mock.Anything)
}

func TestResolveCarrier_StoredDefault(t *testing.T) {
	f := newFixture()
	tenantID := uuid.New()
	f.carrier.On("FindForTenant", mock.Anything, tenantID).Return(nil, shared.ErrNotFound)
	f.carrier.On("FindDefault", mock.Anything).Return(completeCarrier(), nil)

	creds, err := f.resolver(Defaults{}).ResolveCarrier(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, shipping.CredentialOriginDefault, creds.Origin)
}

func TestResolveCarrier_ConfigDefault(t *testing.T) {
	f := newFixture()
	tenantID := uuid.New()
	f.carrier.On("FindForTenant", mock.Anything, tenantID).Return(nil, shared.ErrNotFound)
	f.carrier.On("FindDefault", mock.Anything).Return(nil, shared.ErrNotFound)

	creds, err := f.resolver(Defaults{Carrier: completeCarrier()}).ResolveCarrier(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, "key", creds.APIKey)
	assert.Equal(t, shipping.CredentialOriginDefault, creds.Origin)
}

func TestResolveCarrier_NoneConfigured(t *testing.T) {
	f := newFixture()
	tenantID := uuid.New()
	f.carrier.On("FindForTenant", mock.Anything, tenantID).Return(nil, shared.ErrNotFound)
	f.carrier.On("FindDefault", mock.Anything).Return(nil, shared.ErrNotFound)

	_, err := f.resolver(Defaults{}).ResolveCarrier(context.Background(), tenantID)
	assert.Equal(t, "carrier.apiKey", configField(t, err))
}

func TestResolveCarrier_IncompleteTenantOverrideFailsClosed(t *testing.T) {
	f := newFixture()
	tenantID := uuid.New()
	partial := completeCarrier()
	partial.AccountNumber = ""
	f.carrier.On("FindForTenant", mock.Anything, tenantID).Return(partial, nil)

	_, err := f.resolver(Defaults{Carrier: completeCarrier()}).ResolveCarrier(context.Background(), tenantID)
	assert.Equal(t, "carrier.accountNumber", configField(t, err))
}

func TestResolveCarrier_RepositoryError(t *testing.T) {
	f := newFixture()
	tenantID := uuid.New()
	dbErr := errors.New("connection refused")
	f.carrier.On("FindForTenant", mock.Anything, tenantID).Return(nil, dbErr)

	_, err := f.resolver(Defaults{}).ResolveCarrier(context.Background(), tenantID)
	assert.ErrorIs(t, err, dbErr)
}

func TestResolve_ProfileHasNoFallback(t *testing.T) {
	f := newFixture()
	tenantID := uuid.New()
	f.carrier.On("FindForTenant", mock.Anything, tenantID).Return(completeCarrier(), nil)
	f.profiles.On("FindByTenant", mock.Anything, tenantID).Return(nil, shared.ErrNotFound)

	_, _, err := f.resolver(Defaults{}).Resolve(context.Background(), tenantID)
	assert.Equal(t, "shipperProfile", configField(t, err))
}

func TestResolve_Success(t *testing.T) {
	f := newFixture()
	tenantID := uuid.New()
	profile := &shipping.ShipperProfile{TenantID: tenantID, CompanyName: "Acme"}
	f.carrier.On("FindForTenant", mock.Anything, tenantID).Return(completeCarrier(), nil)
	f.profiles.On("FindByTenant", mock.Anything, tenantID).Return(profile, nil)

	creds, got, err := f.resolver(Defaults{}).Resolve(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, "740561073", creds.AccountNumber)
	assert.Same(t, profile, got)
}

func TestResolveMarketplace(t *testing.T) {
	tenantID := uuid.New()
	full := integration.MarketplaceCredentials{AppKey: "ak", AppSecret: "as", AccessToken: "tok"}

	t.Run("tenant", func(t *testing.T) {
		f := newFixture()
		c := full
		f.market.On("FindForTenant", mock.Anything, tenantID, integration.SourceTaobao).Return(&c, nil)
		got, err := f.resolver(Defaults{}).ResolveMarketplace(context.Background(), tenantID, integration.SourceTaobao)
		require.NoError(t, err)
		assert.Equal(t, "ak", got.AppKey)
	})

	t.Run("config default", func(t *testing.T) {
		f := newFixture()
		f.market.On("FindForTenant", mock.Anything, tenantID, integration.SourceDouyin).Return(nil, shared.ErrNotFound)
		f.market.On("FindDefault", mock.Anything, integration.SourceDouyin).Return(nil, shared.ErrNotFound)
		r := f.resolver(Defaults{Marketplace: map[integration.SourceName]integration.MarketplaceCredentials{
			integration.SourceDouyin: full,
		}})
		got, err := r.ResolveMarketplace(context.Background(), tenantID, integration.SourceDouyin)
		require.NoError(t, err)
		assert.Equal(t, "tok", got.AccessToken)
	})

	t.Run("missing token", func(t *testing.T) {
		f := newFixture()
		c := full
		c.AccessToken = ""
		f.market.On("FindForTenant", mock.Anything, tenantID, integration.SourceTaobao).Return(&c, nil)
		_, err := f.resolver(Defaults{}).ResolveMarketplace(context.Background(), tenantID, integration.SourceTaobao)
		assert.Equal(t, "marketplace.taobao.accessToken", configField(t, err))
	})

	t.Run("nothing configured", func(t *testing.T) {
		f := newFixture()
		f.market.On("FindForTenant", mock.Anything, tenantID, integration.SourceTaobao).Return(nil, shared.ErrNotFound)
		f.market.On("FindDefault", mock.Anything, integration.SourceTaobao).Return(nil, shared.ErrNotFound)
		_, err := f.resolver(Defaults{}).ResolveMarketplace(context.Background(), tenantID, integration.SourceTaobao)
		assert.Equal(t, "marketplace.taobao.appKey", configField(t, err))
	})
}
