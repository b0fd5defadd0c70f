package shipping

import (
	"time"

	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Kind distinguishes the two shipment variants
type Kind string

const (
	KindDomestic      Kind = "DOMESTIC"
	KindInternational Kind = "INTERNATIONAL"
)

// Contact is a person or company reachable by phone
type Contact struct {
	PersonName  string
	CompanyName string
	PhoneNumber string
	Email       string
}

// TaxIdentifier is a party's tax id
type TaxIdentifier struct {
	Number string
	Type   TaxIDType
}

// Party is a shipper, recipient or importer of record
type Party struct {
	Contact Contact
	Address valueobject.Address
	TaxID   *TaxIdentifier
}

// Money is an amount in a currency
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// Dimensions are complete package dimensions
type Dimensions struct {
	Length decimal.Decimal
	Width  decimal.Decimal
	Height decimal.Decimal
	Units  order.DimensionUnit
}

// Package is the single requested package line
type Package struct {
	WeightKG   decimal.Decimal
	Dimensions *Dimensions
}

// ShipmentCommon holds the fields every shipment variant carries
type ShipmentCommon struct {
	ShipDate      time.Time
	ServiceType   order.ServiceType
	PackagingType order.PackagingType
	PickupType    order.PickupType
	PaymentType   order.PaymentType
	AccountNumber string
	Shipper       Party
	Recipient     Party
	Package       Package
	// Signature is set only for a non-default signature requirement
	Signature *order.SignatureType
}

// Commodity is the single customs line mirroring the package
type Commodity struct {
	Description          string
	CountryOfManufacture string
	HarmonizedCode       string
	Quantity             int
	WeightKG             decimal.Decimal
	CustomsValue         Money
}

// CustomsClearance is attached only to international shipments
type CustomsClearance struct {
	DutiesPaymentType order.PaymentType
	TotalCustomsValue Money
	Commodity         Commodity
	TermsOfSale       order.TermsOfSale
	ImporterOfRecord  *Party
}

// Shipment is either *DomesticShipment or *InternationalShipment
type Shipment interface {
	Kind() Kind
	Common() *ShipmentCommon
}

// DomesticShipment carries no customs block and no trade-document service.
// DeclaredValue is validated but not sent.
type DomesticShipment struct {
	ShipmentCommon
	DeclaredValue Money
}

// Kind implements Shipment
func (s *DomesticShipment) Kind() Kind { return KindDomestic }

// Common implements Shipment
func (s *DomesticShipment) Common() *ShipmentCommon { return &s.ShipmentCommon }

// InternationalShipment adds customs clearance and optional electronic trade documents
type InternationalShipment struct {
	ShipmentCommon
	Customs CustomsClearance
	// ElectronicTradeDocuments attaches the ETD service and a commercial invoice spec
	ElectronicTradeDocuments bool
}

// Kind implements Shipment
func (s *InternationalShipment) Kind() Kind { return KindInternational }

// Common implements Shipment
func (s *InternationalShipment) Common() *ShipmentCommon { return &s.ShipmentCommon }

var (
	_ Shipment = (*DomesticShipment)(nil)
	_ Shipment = (*InternationalShipment)(nil)
)

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

// Builder assembles the common part once, then yields exactly one variant
type Builder struct {
	common ShipmentCommon
}

// NewBuilder starts a shipment for the given parties
func NewBuilder(shipDate time.Time, shipper, recipient Party) *Builder {
	return &Builder{common: ShipmentCommon{
		ShipDate:  shipDate,
		Shipper:   shipper,
		Recipient: recipient,
	}}
}

// Service sets the service selections
func (b *Builder) Service(service order.ServiceType, packaging order.PackagingType, pickup order.PickupType) *Builder {
	b.common.ServiceType = service
	b.common.PackagingType = packaging
	b.common.PickupType = pickup
	return b
}

// Payment sets who pays shipping charges and the billed account
func (b *Builder) Payment(paymentType order.PaymentType, accountNumber string) *Builder {
	b.common.PaymentType = paymentType
	b.common.AccountNumber = accountNumber
	return b
}

// Package sets weight and optional complete dimensions
func (b *Builder) Package(weightKG decimal.Decimal, dims *Dimensions) *Builder {
	b.common.Package = Package{WeightKG: weightKG, Dimensions: dims}
	return b
}

// Signature sets a signature requirement; the carrier default is dropped
func (b *Builder) Signature(sig *order.SignatureType) *Builder {
	if sig != nil && sig.RequiresSpecialService() {
		s := *sig
		b.common.Signature = &s
	} else {
		b.common.Signature = nil
	}
	return b
}

// Domestic yields a domestic shipment
func (b *Builder) Domestic(declared Money) *DomesticShipment {
	return &DomesticShipment{ShipmentCommon: b.common, DeclaredValue: declared}
}

// International yields an international shipment
func (b *Builder) International(customs CustomsClearance, etd bool) *InternationalShipment {
	return &InternationalShipment{ShipmentCommon: b.common, Customs: customs, ElectronicTradeDocuments: etd}
}
