package order

import (
	"slices"

	"github.com/shopspring/decimal"
)

// ServiceType is a FedEx service level
type ServiceType string

const (
	ServiceFedExGround                  ServiceType = "FEDEX_GROUND"
	ServiceGroundHomeDelivery           ServiceType = "GROUND_HOME_DELIVERY"
	ServiceFedEx2Day                    ServiceType = "FEDEX_2_DAY"
	ServiceFedEx2DayAM                  ServiceType = "FEDEX_2_DAY_AM"
	ServiceFedExExpressSaver            ServiceType = "FEDEX_EXPRESS_SAVER"
	ServiceStandardOvernight            ServiceType = "STANDARD_OVERNIGHT"
	ServicePriorityOvernight            ServiceType = "PRIORITY_OVERNIGHT"
	ServiceFirstOvernight               ServiceType = "FIRST_OVERNIGHT"
	ServiceInternationalPriority        ServiceType = "FEDEX_INTERNATIONAL_PRIORITY"
	ServiceInternationalEconomy         ServiceType = "INTERNATIONAL_ECONOMY"
	ServiceInternationalConnectPlus     ServiceType = "FEDEX_INTERNATIONAL_CONNECT_PLUS"
	ServiceInternationalPriorityExpress ServiceType = "FEDEX_INTERNATIONAL_PRIORITY_EXPRESS"
)

// ServiceTypes lists every accepted ServiceType
func ServiceTypes() []ServiceType {
	return []ServiceType{
		ServiceFedExGround, ServiceGroundHomeDelivery, ServiceFedEx2Day, ServiceFedEx2DayAM,
		ServiceFedExExpressSaver, ServiceStandardOvernight, ServicePriorityOvernight, ServiceFirstOvernight,
		ServiceInternationalPriority, ServiceInternationalEconomy, ServiceInternationalConnectPlus,
		ServiceInternationalPriorityExpress,
	}
}

// IsValid returns true if the service type is accepted
func (s ServiceType) IsValid() bool { return slices.Contains(ServiceTypes(), s) }

// String returns the string representation of ServiceType
func (s ServiceType) String() string { return string(s) }

// PackagingType is a FedEx packaging code
type PackagingType string

const (
	PackagingYourPackaging PackagingType = "YOUR_PACKAGING"
	PackagingEnvelope      PackagingType = "FEDEX_ENVELOPE"
	PackagingPak           PackagingType = "FEDEX_PAK"
	PackagingBox           PackagingType = "FEDEX_BOX"
	PackagingSmallBox      PackagingType = "FEDEX_SMALL_BOX"
	PackagingMediumBox     PackagingType = "FEDEX_MEDIUM_BOX"
	PackagingLargeBox      PackagingType = "FEDEX_LARGE_BOX"
	PackagingExtraLargeBox PackagingType = "FEDEX_EXTRA_LARGE_BOX"
	PackagingTube          PackagingType = "FEDEX_TUBE"
	Packaging10KgBox       PackagingType = "FEDEX_10KG_BOX"
	Packaging25KgBox       PackagingType = "FEDEX_25KG_BOX"
)

// PackagingTypes lists every accepted PackagingType
func PackagingTypes() []PackagingType {
	return []PackagingType{
		PackagingYourPackaging, PackagingEnvelope, PackagingPak, PackagingBox, PackagingSmallBox,
		PackagingMediumBox, PackagingLargeBox, PackagingExtraLargeBox, PackagingTube,
		Packaging10KgBox, Packaging25KgBox,
	}
}

// IsValid returns true if the packaging type is accepted
func (p PackagingType) IsValid() bool { return slices.Contains(PackagingTypes(), p) }

// String returns the string representation of PackagingType
func (p PackagingType) String() string { return string(p) }

// PickupType is how the parcel reaches FedEx
type PickupType string

const (
	PickupContactToSchedule PickupType = "CONTACT_FEDEX_TO_SCHEDULE"
	PickupDropoff           PickupType = "DROPOFF_AT_FEDEX_LOCATION"
	PickupScheduled         PickupType = "USE_SCHEDULED_PICKUP"
)

// PickupTypes lists every accepted PickupType
func PickupTypes() []PickupType {
	return []PickupType{PickupContactToSchedule, PickupDropoff, PickupScheduled}
}

// IsValid returns true if the pickup type is accepted
func (p PickupType) IsValid() bool { return slices.Contains(PickupTypes(), p) }

// String returns the string representation of PickupType
func (p PickupType) String() string { return string(p) }

// PaymentType names who pays shipping charges or duties
type PaymentType string

const (
	PaymentSender     PaymentType = "SENDER"
	PaymentRecipient  PaymentType = "RECIPIENT"
	PaymentThirdParty PaymentType = "THIRD_PARTY"
)

// PaymentTypes lists every accepted PaymentType
func PaymentTypes() []PaymentType {
	return []PaymentType{PaymentSender, PaymentRecipient, PaymentThirdParty}
}

// IsValid returns true if the payment type is accepted
func (p PaymentType) IsValid() bool { return slices.Contains(PaymentTypes(), p) }

// String returns the string representation of PaymentType
func (p PaymentType) String() string { return string(p) }

// SignatureType is the delivery signature requirement
type SignatureType string

const (
	SignatureServiceDefault SignatureType = "SERVICE_DEFAULT"
	SignatureNoneRequired   SignatureType = "NO_SIGNATURE_REQUIRED"
	SignatureIndirect       SignatureType = "INDIRECT"
	SignatureDirect         SignatureType = "DIRECT"
	SignatureAdult          SignatureType = "ADULT"
)

// SignatureTypes lists every accepted SignatureType
func SignatureTypes() []SignatureType {
	return []SignatureType{
		SignatureServiceDefault, SignatureNoneRequired, SignatureIndirect, SignatureDirect, SignatureAdult,
	}
}

// IsValid returns true if the signature type is accepted
func (s SignatureType) IsValid() bool { return slices.Contains(SignatureTypes(), s) }

// String returns the string representation of SignatureType
func (s SignatureType) String() string { return string(s) }

// RequiresSpecialService is false for the carrier's default handling
func (s SignatureType) RequiresSpecialService() bool {
	return s != "" && s != SignatureServiceDefault
}

// DimensionUnit is the unit for package dimensions
type DimensionUnit string

const (
	DimensionCM DimensionUnit = "CM"
	DimensionIN DimensionUnit = "IN"
)

// DimensionUnits lists every accepted DimensionUnit
func DimensionUnits() []DimensionUnit {
	return []DimensionUnit{DimensionCM, DimensionIN}
}

// IsValid returns true if the unit is accepted
func (u DimensionUnit) IsValid() bool { return slices.Contains(DimensionUnits(), u) }

// String returns the string representation of DimensionUnit
func (u DimensionUnit) String() string { return string(u) }

// TermsOfSale are the Incoterms accepted on a commercial invoice
type TermsOfSale string

const (
	TermsDAP TermsOfSale = "DAP"
	TermsDDP TermsOfSale = "DDP"
	TermsFCA TermsOfSale = "FCA"
	TermsCIP TermsOfSale = "CIP"
	TermsCPT TermsOfSale = "CPT"
	TermsCFR TermsOfSale = "CFR"
	TermsCIF TermsOfSale = "CIF"
	TermsEXW TermsOfSale = "EXW"
	TermsDDU TermsOfSale = "DDU"
)

// TermsOfSaleValues lists every accepted TermsOfSale
func TermsOfSaleValues() []TermsOfSale {
	return []TermsOfSale{TermsDAP, TermsDDP, TermsFCA, TermsCIP, TermsCPT, TermsCFR, TermsCIF, TermsEXW, TermsDDU}
}

// IsValid returns true if the terms are accepted
func (t TermsOfSale) IsValid() bool { return slices.Contains(TermsOfSaleValues(), t) }

// String returns the string representation of TermsOfSale
func (t TermsOfSale) String() string { return string(t) }

// PackageDimensions are optional box dimensions. They are only sent to the
// carrier when all three lengths are positive and Unit is valid.
type PackageDimensions struct {
	Length *decimal.Decimal `json:"length,omitempty"`
	Width  *decimal.Decimal `json:"width,omitempty"`
	Height *decimal.Decimal `json:"height,omitempty"`
	Unit   *DimensionUnit   `json:"unit,omitempty"`
}

// IsComplete reports whether the dimensions can be sent to the carrier
func (d *PackageDimensions) IsComplete() bool {
	if d == nil || d.Unit == nil || !d.Unit.IsValid() {
		return false
	}
	for _, v := range []*decimal.Decimal{d.Length, d.Width, d.Height} {
		if v == nil || !v.IsPositive() {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no dimension field is set
func (d *PackageDimensions) IsEmpty() bool {
	return d == nil || (d.Length == nil && d.Width == nil && d.Height == nil && d.Unit == nil)
}

// CarrierOptions are operator selections for the FedEx shipment. Sync never writes them.
type CarrierOptions struct {
	ServiceType          *ServiceType       `json:"serviceType,omitempty"`
	PackagingType        *PackagingType     `json:"packagingType,omitempty"`
	PickupType           *PickupType        `json:"pickupType,omitempty"`
	PaymentType          *PaymentType       `json:"paymentType,omitempty"`
	DutiesPaymentType    *PaymentType       `json:"dutiesPaymentType,omitempty"`
	WeightKG             *decimal.Decimal   `json:"weightKg,omitempty"`
	Dimensions           *PackageDimensions `json:"dimensions,omitempty"`
	CommodityDescription *string            `json:"commodityDescription,omitempty"`
	HarmonizedCode       *string            `json:"harmonizedCode,omitempty"`
	CountryOfManufacture *string            `json:"countryOfManufacture,omitempty"`
	CustomsValue         *decimal.Decimal   `json:"customsValue,omitempty"`
	CustomsCurrency      *string            `json:"customsCurrency,omitempty"`
	SignatureType        *SignatureType     `json:"signatureType,omitempty"`
	TermsOfSale          *TermsOfSale       `json:"termsOfSale,omitempty"`
}

// OptionCatalog is the static set of values accepted by CarrierOptions
type OptionCatalog struct {
	ServiceTypes   []ServiceType   `json:"serviceTypes"`
	PackagingTypes []PackagingType `json:"packagingTypes"`
	PickupTypes    []PickupType    `json:"pickupTypes"`
	PaymentTypes   []PaymentType   `json:"paymentTypes"`
	SignatureTypes []SignatureType `json:"signatureTypes"`
	DimensionUnits []DimensionUnit `json:"dimensionUnits"`
	TermsOfSale    []TermsOfSale   `json:"termsOfSale"`
}

// Catalog returns every accepted carrier option value
func Catalog() OptionCatalog {
	return OptionCatalog{
		ServiceTypes:   ServiceTypes(),
		PackagingTypes: PackagingTypes(),
		PickupTypes:    PickupTypes(),
		PaymentTypes:   PaymentTypes(),
		SignatureTypes: SignatureTypes(),
		DimensionUnits: DimensionUnits(),
		TermsOfSale:    TermsOfSaleValues(),
	}
}
