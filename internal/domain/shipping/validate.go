package shipping

import (
	"strings"
	"time"

	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
)

// Defaults applied when the operator made no selection
const (
	DefaultDomesticService      = order.ServiceFedExGround
	DefaultInternationalService = order.ServiceInternationalPriority
	DefaultPackaging            = order.PackagingYourPackaging
	DefaultPickup               = order.PickupDropoff
	DefaultPayment              = order.PaymentSender
)

// WarningDimensionsDropped is reported when partial dimensions are omitted
const WarningDimensionsDropped = "package dimensions incomplete; omitted from shipment"

// ValidateProfile checks shipper profile completeness and returns a config error
// listing every missing or invalid field.
func ValidateProfile(p *ShipperProfile) error {
	if p == nil {
		return shared.NewConfigError("shipperProfile", "is not configured")
	}
	var errs []shared.FieldError
	missing := func(field string) {
		errs = append(errs, shared.FieldError{Field: field, Message: "is required"})
	}

	if blank(p.CompanyName) {
		missing("shipper.companyName")
	}
	if blank(p.ContactName) {
		missing("shipper.contactName")
	}
	if blank(p.Phone) {
		missing("shipper.phone")
	}
	for _, f := range p.Address.MissingFields("shipper.address") {
		missing(f)
	}
	if blank(p.TaxID) {
		missing("shipper.taxId")
	}
	if !p.TaxIDType.IsValid() {
		errs = append(errs, shared.FieldError{Field: "shipper.taxIdType", Message: "must be one of the supported tax id types"})
	}
	if !order.IsCurrencyCode(strings.ToUpper(strings.TrimSpace(p.DefaultCurrency))) {
		errs = append(errs, shared.FieldError{Field: "shipper.defaultCurrency", Message: "must be an ISO 4217 currency code"})
	}
	if !p.DutiesPaymentType.IsValid() {
		errs = append(errs, shared.FieldError{Field: "shipper.dutiesPaymentType", Message: "must be SENDER, RECIPIENT or THIRD_PARTY"})
	}

	if ior := p.ImporterOfRecord; !ior.IsEmpty() {
		if blank(ior.CompanyName) {
			missing("importerOfRecord.companyName")
		}
		if blank(ior.ContactName) {
			missing("importerOfRecord.contactName")
		}
		if blank(ior.Phone) {
			missing("importerOfRecord.phone")
		}
		for _, f := range ior.Address.MissingFields("importerOfRecord.address") {
			missing(f)
		}
		if blank(ior.TaxID) {
			missing("importerOfRecord.taxId")
		}
		if !ior.TaxIDType.IsValid() {
			errs = append(errs, shared.FieldError{Field: "importerOfRecord.taxIdType", Message: "must be one of the supported tax id types"})
		}
	}

	if len(errs) > 0 {
		return shared.NewConfigErrors(errs...)
	}
	return nil
}

// PrepareInput is everything needed to turn an order into a shipment
type PrepareInput struct {
	Order       *order.Order
	Profile     *ShipperProfile
	Credentials CarrierCredentials
	ShipDate    time.Time
	// ElectronicTradeDocuments is the effective ETD setting for international shipments
	ElectronicTradeDocuments bool
}

// IsInternational compares shipper and recipient countries case-insensitively
func IsInternational(shipper, recipient valueobject.Address) bool {
	return !shipper.SameCountry(recipient)
}

// PrepareShipment validates the order against the domestic or international
// rule set and builds the matching shipment variant. The profile must already
// have passed ValidateProfile. Non-fatal findings are returned as warnings.
func PrepareShipment(in PrepareInput) (Shipment, []string, error) {
	o := in.Order
	opts := o.CarrierOptions
	var (
		errs     []shared.FieldError
		warnings []string
	)
	invalid := func(field, msg string) {
		errs = append(errs, shared.FieldError{Field: field, Message: msg})
	}

	var recipientAddr valueobject.Address
	if o.ShippingAddress != nil {
		recipientAddr = *o.ShippingAddress
	}
	for _, f := range recipientAddr.MissingFields("recipient.address") {
		invalid(f, "is required")
	}

	phone := ""
	if o.CustomerPhone != nil {
		phone = strings.TrimSpace(*o.CustomerPhone)
	}
	if phone == "" {
		invalid("recipient.phone", "is required")
	}

	if opts.WeightKG == nil || !opts.WeightKG.IsPositive() {
		invalid("weightKg", "must be positive")
	}

	international := recipientAddr.CountryCode != "" && IsInternational(in.Profile.Address, recipientAddr)

	service := pick(opts.ServiceType, DefaultDomesticService)
	if international {
		service = pick(opts.ServiceType, DefaultInternationalService)
	}
	packaging := pick(opts.PackagingType, DefaultPackaging)
	pickup := pick(opts.PickupType, DefaultPickup)
	payment := pick(opts.PaymentType, DefaultPayment)
	if !service.IsValid() {
		invalid("serviceType", "unsupported value "+service.String())
	}
	if !packaging.IsValid() {
		invalid("packagingType", "unsupported value "+packaging.String())
	}
	if !pickup.IsValid() {
		invalid("pickupType", "unsupported value "+pickup.String())
	}
	if !payment.IsValid() {
		invalid("paymentType", "unsupported value "+payment.String())
	}
	if opts.SignatureType != nil && !opts.SignatureType.IsValid() {
		invalid("signatureType", "unsupported value "+opts.SignatureType.String())
	}

	// customs value falls back to the order total, currency to the order then the profile
	customsValue := opts.CustomsValue
	if customsValue == nil {
		customsValue = o.TotalPrice
	}
	currencyCode := firstNonBlank(ptrStr(opts.CustomsCurrency), ptrStr(o.Currency), in.Profile.DefaultCurrency)
	currencyCode = strings.ToUpper(currencyCode)
	if customsValue == nil {
		invalid("customsValue", "is required")
	} else if customsValue.IsNegative() {
		invalid("customsValue", "must not be negative")
	}
	if currencyCode == "" {
		invalid("customsCurrency", "is required")
	} else if !order.IsCurrencyCode(currencyCode) {
		invalid("customsCurrency", "must be an ISO 4217 currency code")
	}

	var commodityDesc, origin, hsCode string
	if international {
		commodityDesc = ptrStr(opts.CommodityDescription)
		origin = strings.ToUpper(ptrStr(opts.CountryOfManufacture))
		hsCode = ptrStr(opts.HarmonizedCode)
		if commodityDesc == "" {
			invalid("commodityDescription", "is required for international shipments")
		}
		if origin == "" {
			invalid("countryOfManufacture", "is required for international shipments")
		}
		if hsCode == "" {
			invalid("harmonizedCode", "is required for international shipments")
		} else if !order.IsDigits(hsCode) {
			invalid("harmonizedCode", "must contain digits only")
		}
	}

	if len(errs) > 0 {
		return nil, nil, shared.NewValidationError(errs...)
	}

	var dims *Dimensions
	if opts.Dimensions.IsComplete() {
		d := opts.Dimensions
		dims = &Dimensions{Length: *d.Length, Width: *d.Width, Height: *d.Height, Units: *d.Unit}
	} else if !opts.Dimensions.IsEmpty() {
		warnings = append(warnings, WarningDimensionsDropped)
	}

	p := in.Profile
	shipper := Party{
		Contact: Contact{
			PersonName:  p.ContactName,
			CompanyName: p.CompanyName,
			PhoneNumber: p.Phone,
			Email:       p.Email,
		},
		Address: p.Address,
		TaxID:   &TaxIdentifier{Number: p.TaxID, Type: p.TaxIDType},
	}
	recipient := Party{
		Contact: Contact{
			PersonName:  o.RecipientName(),
			PhoneNumber: phone,
			Email:       ptrStr(o.CustomerEmail),
		},
		Address: recipientAddr,
	}

	b := NewBuilder(in.ShipDate, shipper, recipient).
		Service(service, packaging, pickup).
		Payment(payment, in.Credentials.AccountNumber).
		Package(*opts.WeightKG, dims).
		Signature(opts.SignatureType)

	value := Money{Amount: *customsValue, Currency: currencyCode}
	if !international {
		return b.Domestic(value), warnings, nil
	}

	duties := pick(opts.DutiesPaymentType, p.DutiesPaymentType)
	terms := defaultTerms(duties)
	if opts.TermsOfSale != nil {
		terms = *opts.TermsOfSale
	}
	customs := CustomsClearance{
		DutiesPaymentType: duties,
		TotalCustomsValue: value,
		Commodity: Commodity{
			Description:          commodityDesc,
			CountryOfManufacture: origin,
			HarmonizedCode:       hsCode,
			Quantity:             1,
			WeightKG:             *opts.WeightKG,
			CustomsValue:         value,
		},
		TermsOfSale: terms,
	}
	if ior := p.ImporterOfRecord; !ior.IsEmpty() {
		customs.ImporterOfRecord = &Party{
			Contact: Contact{
				PersonName:  ior.ContactName,
				CompanyName: ior.CompanyName,
				PhoneNumber: ior.Phone,
			},
			Address: ior.Address,
			TaxID:   &TaxIdentifier{Number: ior.TaxID, Type: ior.TaxIDType},
		}
	}
	return b.International(customs, in.ElectronicTradeDocuments), warnings, nil
}

// defaultTerms is DDP when the sender pays duties, DAP otherwise
func defaultTerms(duties order.PaymentType) order.TermsOfSale {
	if duties == order.PaymentSender {
		return order.TermsDDP
	}
	return order.TermsDAP
}

func pick[T ~string](v *T, def T) T {
	if v == nil || *v == "" {
		return def
	}
	return *v
}

func ptrStr(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
