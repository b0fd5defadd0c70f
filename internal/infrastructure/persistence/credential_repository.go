package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/shipping"
	"github.com/orderdesk/backend/internal/infrastructure/persistence/models"
	"github.com/orderdesk/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCarrierCredentialRepository implements shipping.CarrierCredentialRepository
type GormCarrierCredentialRepository struct {
	db  *gorm.DB
	box *SecretBox
}

// NewGormCarrierCredentialRepository creates a new GormCarrierCredentialRepository
func NewGormCarrierCredentialRepository(db *gorm.DB, box *SecretBox) *GormCarrierCredentialRepository {
	return &GormCarrierCredentialRepository{db: db, box: box}
}

// FindForTenant returns the tenant's override
func (r *GormCarrierCredentialRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID) (*shipping.CarrierCredentials, error) {
	return r.find(ctx, &tenantID)
}

// FindDefault returns the tenant-less row
func (r *GormCarrierCredentialRepository) FindDefault(ctx context.Context) (*shipping.CarrierCredentials, error) {
	return r.find(ctx, nil)
}

func (r *GormCarrierCredentialRepository) find(ctx context.Context, tenantID *uuid.UUID) (*shipping.CarrierCredentials, error) {
	var m models.CarrierCredentialModel
	if err := r.db.WithContext(ctx).Scopes(tenant.OwnerScope(tenantID)).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	secret, err := r.box.Open(m.SecretKeySealed)
	if err != nil {
		return nil, err
	}
	return &shipping.CarrierCredentials{
		APIKey:        m.APIKey,
		SecretKey:     secret,
		AccountNumber: m.AccountNumber,
		BaseURL:       m.BaseURL,
	}, nil
}

// Save replaces the credentials of tenantID, or the default when nil
func (r *GormCarrierCredentialRepository) Save(ctx context.Context, tenantID *uuid.UUID, creds shipping.CarrierCredentials) error {
	sealed, err := r.box.Seal(creds.SecretKey)
	if err != nil {
		return err
	}
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.CarrierCredentialModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(tenant.OwnerScope(tenantID)).First(&m).Error
		isNew := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !isNew {
			return err
		}
		m.TenantID = tenantID
		m.APIKey = creds.APIKey
		m.SecretKeySealed = sealed
		m.AccountNumber = creds.AccountNumber
		m.BaseURL = creds.BaseURL
		m.Stamp(now)
		if isNew {
			return tx.Create(&m).Error
		}
		return tx.Save(&m).Error
	})
}

// GormMarketplaceCredentialRepository implements integration.CredentialRepository
type GormMarketplaceCredentialRepository struct {
	db  *gorm.DB
	box *SecretBox
}

// NewGormMarketplaceCredentialRepository creates a new GormMarketplaceCredentialRepository
func NewGormMarketplaceCredentialRepository(db *gorm.DB, box *SecretBox) *GormMarketplaceCredentialRepository {
	return &GormMarketplaceCredentialRepository{db: db, box: box}
}

// FindForTenant returns the tenant's credentials for source
func (r *GormMarketplaceCredentialRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, source integration.SourceName) (*integration.MarketplaceCredentials, error) {
	return r.find(ctx, &tenantID, source)
}

// FindDefault returns the tenant-less credentials for source
func (r *GormMarketplaceCredentialRepository) FindDefault(ctx context.Context, source integration.SourceName) (*integration.MarketplaceCredentials, error) {
	return r.find(ctx, nil, source)
}

func (r *GormMarketplaceCredentialRepository) find(ctx context.Context, tenantID *uuid.UUID, source integration.SourceName) (*integration.MarketplaceCredentials, error) {
	var m models.MarketplaceCredentialModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.OwnerScope(tenantID)).
		Where("source = ?", string(source)).
		First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	secret, err := r.box.Open(m.AppSecretSealed)
	if err != nil {
		return nil, err
	}
	token, err := r.box.Open(m.AccessTokenSealed)
	if err != nil {
		return nil, err
	}
	return &integration.MarketplaceCredentials{
		AppKey:         m.AppKey,
		AppSecret:      secret,
		AccessToken:    token,
		ShopID:         m.ShopID,
		APIBaseURL:     m.APIBaseURL,
		IsSandbox:      m.IsSandbox,
		TimeoutSeconds: m.TimeoutSeconds,
	}, nil
}

// ListTenants returns every tenant with at least one stored source
func (r *GormMarketplaceCredentialRepository) ListTenants(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.MarketplaceCredentialModel{}).
		Where("tenant_id IS NOT NULL").
		Distinct("tenant_id").
		Order("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}

// Save replaces the credentials of tenantID for source, or the default when nil
func (r *GormMarketplaceCredentialRepository) Save(ctx context.Context, tenantID *uuid.UUID, source integration.SourceName, creds integration.MarketplaceCredentials) error {
	secret, err := r.box.Seal(creds.AppSecret)
	if err != nil {
		return err
	}
	token, err := r.box.Seal(creds.AccessToken)
	if err != nil {
		return err
	}
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.MarketplaceCredentialModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(tenant.OwnerScope(tenantID)).
			Where("source = ?", string(source)).
			First(&m).Error
		isNew := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !isNew {
			return err
		}
		m.TenantID = tenantID
		m.Source = string(source)
		m.AppKey = creds.AppKey
		m.AppSecretSealed = secret
		m.AccessTokenSealed = token
		m.ShopID = creds.ShopID
		m.APIBaseURL = creds.APIBaseURL
		m.IsSandbox = creds.IsSandbox
		m.TimeoutSeconds = creds.TimeoutSeconds
		m.Stamp(now)
		if isNew {
			return tx.Create(&m).Error
		}
		return tx.Save(&m).Error
	})
}

// GormShipperProfileRepository implements shipping.ProfileRepository
type GormShipperProfileRepository struct {
	db *gorm.DB
}

// NewGormShipperProfileRepository creates a new GormShipperProfileRepository
func NewGormShipperProfileRepository(db *gorm.DB) *GormShipperProfileRepository {
	return &GormShipperProfileRepository{db: db}
}

// FindByTenant returns the tenant's shipper profile
func (r *GormShipperProfileRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*shipping.ShipperProfile, error) {
	var m models.ShipperProfileModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain()
}

// Save upserts the profile by tenant
func (r *GormShipperProfileRepository) Save(ctx context.Context, profile *shipping.ShipperProfile) error {
	var m models.ShipperProfileModel
	if err := m.FromDomain(profile); err != nil {
		return err
	}
	m.Stamp(time.Now())
	cols := []string{
		"company_name", "contact_name", "phone", "email", "address", "tax_id", "tax_id_type",
		"default_currency", "duties_payment_type", "importer_of_record", "updated_at",
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(&m).Error
}
