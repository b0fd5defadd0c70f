package order

import (
	"strings"

	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// OptionsPatch is a partial update of CarrierOptions as received from an operator.
// Nil fields are left unchanged; an empty string clears the field.
type OptionsPatch struct {
	ServiceType          *string
	PackagingType        *string
	PickupType           *string
	PaymentType          *string
	DutiesPaymentType    *string
	WeightKG             *decimal.Decimal
	DimensionLength      *decimal.Decimal
	DimensionWidth       *decimal.Decimal
	DimensionHeight      *decimal.Decimal
	DimensionUnit        *string
	CommodityDescription *string
	HarmonizedCode       *string
	CountryOfManufacture *string
	CustomsValue         *decimal.Decimal
	CustomsCurrency      *string
	SignatureType        *string
	TermsOfSale          *string
}

// Apply validates every set field against its enumeration and returns the
// updated options. All offending fields are reported together.
func (p OptionsPatch) Apply(current CarrierOptions) (CarrierOptions, error) {
	next := current
	var errs []shared.FieldError
	fail := func(field, msg string) {
		errs = append(errs, shared.FieldError{Field: field, Message: msg})
	}

	setEnum(p.ServiceType, &next.ServiceType, "serviceType", fail)
	setEnum(p.PackagingType, &next.PackagingType, "packagingType", fail)
	setEnum(p.PickupType, &next.PickupType, "pickupType", fail)
	setEnum(p.PaymentType, &next.PaymentType, "paymentType", fail)
	setEnum(p.DutiesPaymentType, &next.DutiesPaymentType, "dutiesPaymentType", fail)
	setEnum(p.SignatureType, &next.SignatureType, "signatureType", fail)
	setEnum(p.TermsOfSale, &next.TermsOfSale, "termsOfSale", fail)

	if p.WeightKG != nil {
		if !p.WeightKG.IsPositive() {
			fail("weightKg", "must be positive")
		} else {
			next.WeightKG = p.WeightKG
		}
	}

	if p.DimensionLength != nil || p.DimensionWidth != nil || p.DimensionHeight != nil || p.DimensionUnit != nil {
		dims := PackageDimensions{}
		if next.Dimensions != nil {
			dims = *next.Dimensions
		}
		setLength(p.DimensionLength, &dims.Length, "dimensions.length", fail)
		setLength(p.DimensionWidth, &dims.Width, "dimensions.width", fail)
		setLength(p.DimensionHeight, &dims.Height, "dimensions.height", fail)
		setEnum(p.DimensionUnit, &dims.Unit, "dimensions.unit", fail)
		if dims.IsEmpty() {
			next.Dimensions = nil
		} else {
			next.Dimensions = &dims
		}
	}

	if p.CommodityDescription != nil {
		next.CommodityDescription = optional(*p.CommodityDescription)
	}
	if p.HarmonizedCode != nil {
		code := strings.TrimSpace(*p.HarmonizedCode)
		if code != "" && !IsDigits(code) {
			fail("harmonizedCode", "must contain digits only")
		} else {
			next.HarmonizedCode = optional(code)
		}
	}
	if p.CountryOfManufacture != nil {
		cc := strings.ToUpper(strings.TrimSpace(*p.CountryOfManufacture))
		if cc != "" && len(cc) != 2 {
			fail("countryOfManufacture", "must be a two-letter country code")
		} else {
			next.CountryOfManufacture = optional(cc)
		}
	}
	if p.CustomsValue != nil {
		if p.CustomsValue.IsNegative() {
			fail("customsValue", "must not be negative")
		} else {
			next.CustomsValue = p.CustomsValue
		}
	}
	if p.CustomsCurrency != nil {
		cur := strings.ToUpper(strings.TrimSpace(*p.CustomsCurrency))
		if cur != "" && !IsCurrencyCode(cur) {
			fail("customsCurrency", "must be an ISO 4217 currency code")
		} else {
			next.CustomsCurrency = optional(cur)
		}
	}

	if len(errs) > 0 {
		return current, shared.NewValidationError(errs...)
	}
	return next, nil
}

// IsDigits reports whether s is non-empty and only ASCII digits
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsCurrencyCode reports whether s is a recognised ISO 4217 code
func IsCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	_, err := currency.ParseISO(s)
	return err == nil
}

type enumValue interface {
	~string
	IsValid() bool
}

func setEnum[T enumValue](in *string, dst **T, field string, fail func(string, string)) {
	if in == nil {
		return
	}
	v := strings.ToUpper(strings.TrimSpace(*in))
	if v == "" {
		*dst = nil
		return
	}
	t := T(v)
	if !t.IsValid() {
		fail(field, "unsupported value "+v)
		return
	}
	*dst = &t
}

func setLength(in *decimal.Decimal, dst **decimal.Decimal, field string, fail func(string, string)) {
	if in == nil {
		return
	}
	if in.IsZero() {
		*dst = nil
		return
	}
	if in.IsNegative() {
		fail(field, "must be positive")
		return
	}
	*dst = in
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
