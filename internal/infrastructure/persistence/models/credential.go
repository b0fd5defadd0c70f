package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shipping"
	"gorm.io/datatypes"
)

// CarrierCredentialModel stores FedEx credentials. A NULL tenant_id row is the
// process-wide default. Secret columns hold sealed values.
type CarrierCredentialModel struct {
	BaseModel
	TenantID        *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_carrier_credentials_tenant"`
	APIKey          string     `gorm:"type:varchar(255);not null"`
	SecretKeySealed string     `gorm:"type:text;not null"`
	AccountNumber   string     `gorm:"type:varchar(64);not null"`
	BaseURL         string     `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (CarrierCredentialModel) TableName() string {
	return "carrier_credentials"
}

// MarketplaceCredentialModel stores one source's credentials for a tenant,
// or the default for that source when tenant_id is NULL.
type MarketplaceCredentialModel struct {
	BaseModel
	TenantID          *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_marketplace_credentials_owner,priority:1"`
	Source            string     `gorm:"type:varchar(32);not null;uniqueIndex:uq_marketplace_credentials_owner,priority:2"`
	AppKey            string     `gorm:"type:varchar(255);not null"`
	AppSecretSealed   string     `gorm:"type:text;not null"`
	AccessTokenSealed string     `gorm:"type:text;not null"`
	ShopID            string     `gorm:"type:varchar(64)"`
	APIBaseURL        string     `gorm:"type:varchar(255)"`
	IsSandbox         bool       `gorm:"not null;default:false"`
	TimeoutSeconds    int        `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (MarketplaceCredentialModel) TableName() string {
	return "marketplace_credentials"
}

// ShipperProfileModel is the persistence model for shipping.ShipperProfile
type ShipperProfileModel struct {
	BaseModel
	TenantID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_shipper_profiles_tenant"`
	CompanyName       string         `gorm:"type:varchar(255)"`
	ContactName       string         `gorm:"type:varchar(255)"`
	Phone             string         `gorm:"type:varchar(64)"`
	Email             string         `gorm:"type:varchar(255)"`
	Address           datatypes.JSON `gorm:"type:jsonb"`
	TaxID             string         `gorm:"type:varchar(64)"`
	TaxIDType         string         `gorm:"type:varchar(32)"`
	DefaultCurrency   string         `gorm:"type:varchar(3)"`
	DutiesPaymentType string         `gorm:"type:varchar(32)"`
	ImporterOfRecord  datatypes.JSON `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (ShipperProfileModel) TableName() string {
	return "shipper_profiles"
}

// FromDomain populates the model from a domain ShipperProfile
func (m *ShipperProfileModel) FromDomain(p *shipping.ShipperProfile) error {
	m.TenantID = p.TenantID
	m.CompanyName = p.CompanyName
	m.ContactName = p.ContactName
	m.Phone = p.Phone
	m.Email = p.Email
	m.TaxID = p.TaxID
	m.TaxIDType = string(p.TaxIDType)
	m.DefaultCurrency = p.DefaultCurrency
	m.DutiesPaymentType = string(p.DutiesPaymentType)

	var err error
	if m.Address, err = addressJSON(&p.Address); err != nil {
		return err
	}
	m.ImporterOfRecord = nil
	if !p.ImporterOfRecord.IsEmpty() {
		b, err := json.Marshal(p.ImporterOfRecord)
		if err != nil {
			return err
		}
		m.ImporterOfRecord = datatypes.JSON(b)
	}
	return nil
}

// ToDomain converts the model to a domain ShipperProfile
func (m *ShipperProfileModel) ToDomain() (*shipping.ShipperProfile, error) {
	p := &shipping.ShipperProfile{
		TenantID:          m.TenantID,
		CompanyName:       m.CompanyName,
		ContactName:       m.ContactName,
		Phone:             m.Phone,
		Email:             m.Email,
		TaxID:             m.TaxID,
		TaxIDType:         shipping.TaxIDType(m.TaxIDType),
		DefaultCurrency:   m.DefaultCurrency,
		DutiesPaymentType: order.PaymentType(m.DutiesPaymentType),
	}
	addr, err := parseAddress(m.Address)
	if err != nil {
		return nil, err
	}
	if addr != nil {
		p.Address = *addr
	}
	if !isNullJSON(m.ImporterOfRecord) {
		var ior shipping.ImporterOfRecord
		if err := json.Unmarshal(m.ImporterOfRecord, &ior); err != nil {
			return nil, err
		}
		p.ImporterOfRecord = &ior
	}
	return p, nil
}
