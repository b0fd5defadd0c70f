package shipping

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
)

// TaxIDType is the FedEx tax identification category
type TaxIDType string

const (
	TaxIDBusinessNational TaxIDType = "BUSINESS_NATIONAL"
	TaxIDBusinessState    TaxIDType = "BUSINESS_STATE"
	TaxIDBusinessUnion    TaxIDType = "BUSINESS_UNION"
	TaxIDPersonalNational TaxIDType = "PERSONAL_NATIONAL"
	TaxIDPersonalState    TaxIDType = "PERSONAL_STATE"
)

// TaxIDTypes lists every accepted TaxIDType
func TaxIDTypes() []TaxIDType {
	return []TaxIDType{
		TaxIDBusinessNational, TaxIDBusinessState, TaxIDBusinessUnion, TaxIDPersonalNational, TaxIDPersonalState,
	}
}

// IsValid returns true if the tax id type is accepted
func (t TaxIDType) IsValid() bool { return slices.Contains(TaxIDTypes(), t) }

// String returns the string representation of TaxIDType
func (t TaxIDType) String() string { return string(t) }

// ImporterOfRecord is all-or-nothing: once any field is set every required field must be.
type ImporterOfRecord struct {
	CompanyName string              `json:"companyName,omitempty"`
	ContactName string              `json:"contactName,omitempty"`
	Phone       string              `json:"phone,omitempty"`
	Address     valueobject.Address `json:"address"`
	TaxID       string              `json:"taxId,omitempty"`
	TaxIDType   TaxIDType           `json:"taxIdType,omitempty"`
}

// IsEmpty reports whether no field is set
func (i *ImporterOfRecord) IsEmpty() bool {
	if i == nil {
		return true
	}
	return strings.TrimSpace(i.CompanyName) == "" && strings.TrimSpace(i.ContactName) == "" &&
		strings.TrimSpace(i.Phone) == "" && i.Address.IsEmpty() &&
		strings.TrimSpace(i.TaxID) == "" && i.TaxIDType == ""
}

// ShipperProfile is the tenant's sender identity. There is no global fallback.
type ShipperProfile struct {
	TenantID          uuid.UUID
	CompanyName       string
	ContactName       string
	Phone             string
	Email             string
	Address           valueobject.Address
	TaxID             string
	TaxIDType         TaxIDType
	DefaultCurrency   string
	DutiesPaymentType order.PaymentType
	ImporterOfRecord  *ImporterOfRecord
}

// CredentialOrigin records where effective carrier credentials came from
type CredentialOrigin string

const (
	CredentialOriginTenant  CredentialOrigin = "tenant"
	CredentialOriginDefault CredentialOrigin = "default"
)

// CarrierCredentials authenticate against the carrier and name the billed account
type CarrierCredentials struct {
	APIKey        string `json:"apiKey" validate:"required"`
	SecretKey     string `json:"secretKey" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required"`
	// BaseURL overrides the configured carrier endpoint when set
	BaseURL string           `json:"baseUrl,omitempty" validate:"omitempty,url"`
	Origin  CredentialOrigin `json:"-"`
}
