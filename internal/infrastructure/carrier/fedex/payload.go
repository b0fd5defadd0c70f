package fedex

import (
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
	"github.com/orderdesk/backend/internal/domain/shipping"
	"github.com/shopspring/decimal"
)

// Label and document constants sent on every shipment
const (
	labelFormatCommon2D  = "COMMON2D"
	labelImagePDF        = "PDF"
	labelStockType       = "PAPER_85X11_TOP_HALF_LABEL"
	labelResponseURLOnly = "URL_ONLY"
	weightUnitsKG        = "KG"
	quantityUnitsPieces  = "PCS"
	shipmentPurposeSold  = "SOLD"
	documentCommercial   = "COMMERCIAL_INVOICE"
	specialServiceETD    = "ELECTRONIC_TRADE_DOCUMENTS"
	specialServiceSig    = "SIGNATURE_OPTION"
	shipDateLayout       = "2006-01-02"
)

// number marshals a decimal as a bare JSON number
type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

type shipRequest struct {
	LabelResponseOptions string            `json:"labelResponseOptions"`
	RequestedShipment    requestedShipment `json:"requestedShipment"`
	AccountNumber        accountNumber     `json:"accountNumber"`
}

type accountNumber struct {
	Value string `json:"value"`
}

type requestedShipment struct {
	ShipDatestamp                 string                         `json:"shipDatestamp"`
	ServiceType                   string                         `json:"serviceType"`
	PackagingType                 string                         `json:"packagingType"`
	PickupType                    string                         `json:"pickupType"`
	Shipper                       party                          `json:"shipper"`
	Recipients                    []party                        `json:"recipients"`
	ShippingChargesPayment        payment                        `json:"shippingChargesPayment"`
	LabelSpecification            labelSpecification             `json:"labelSpecification"`
	RequestedPackageLineItems     []packageLineItem              `json:"requestedPackageLineItems"`
	CustomsClearanceDetail        *customsClearanceDetail        `json:"customsClearanceDetail,omitempty"`
	ShipmentSpecialServices       *shipmentSpecialServices       `json:"shipmentSpecialServices,omitempty"`
	ShippingDocumentSpecification *shippingDocumentSpecification `json:"shippingDocumentSpecification,omitempty"`
}

type party struct {
	Contact contact `json:"contact"`
	Address address `json:"address"`
	Tins    []tin   `json:"tins,omitempty"`
}

type contact struct {
	PersonName   string `json:"personName,omitempty"`
	CompanyName  string `json:"companyName,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

type address struct {
	StreetLines         []string `json:"streetLines"`
	City                string   `json:"city"`
	StateOrProvinceCode string   `json:"stateOrProvinceCode,omitempty"`
	PostalCode          string   `json:"postalCode"`
	CountryCode         string   `json:"countryCode"`
}

type tin struct {
	Number  string `json:"number"`
	TinType string `json:"tinType,omitempty"`
}

type payment struct {
	PaymentType string `json:"paymentType"`
	Payor       *payor `json:"payor,omitempty"`
}

type payor struct {
	ResponsibleParty responsibleParty `json:"responsibleParty"`
}

type responsibleParty struct {
	AccountNumber accountNumber `json:"accountNumber"`
}

type labelSpecification struct {
	LabelFormatType string `json:"labelFormatType"`
	ImageType       string `json:"imageType"`
	LabelStockType  string `json:"labelStockType"`
}

type weight struct {
	Units string `json:"units"`
	Value number `json:"value"`
}

type dimensions struct {
	Length number `json:"length"`
	Width  number `json:"width"`
	Height number `json:"height"`
	Units  string `json:"units"`
}

type money struct {
	Amount   number `json:"amount"`
	Currency string `json:"currency"`
}

type packageLineItem struct {
	SequenceNumber         int                     `json:"sequenceNumber"`
	Weight                 weight                  `json:"weight"`
	Dimensions             *dimensions             `json:"dimensions,omitempty"`
	DeclaredValue          *money                  `json:"declaredValue,omitempty"`
	PackageSpecialServices *packageSpecialServices `json:"packageSpecialServices,omitempty"`
}

type packageSpecialServices struct {
	SpecialServiceTypes []string `json:"specialServiceTypes"`
	SignatureOptionType string   `json:"signatureOptionType,omitempty"`
}

type customsClearanceDetail struct {
	DutiesPayment     payment           `json:"dutiesPayment"`
	Commodities       []commodity       `json:"commodities"`
	TotalCustomsValue money             `json:"totalCustomsValue"`
	CommercialInvoice commercialInvoice `json:"commercialInvoice"`
	ImporterOfRecord  *party            `json:"importerOfRecord,omitempty"`
}

type commodity struct {
	Description          string `json:"description"`
	CountryOfManufacture string `json:"countryOfManufacture"`
	HarmonizedCode       string `json:"harmonizedCode"`
	Quantity             int    `json:"quantity"`
	QuantityUnits        string `json:"quantityUnits"`
	Weight               weight `json:"weight"`
	CustomsValue         money  `json:"customsValue"`
	UnitPrice            money  `json:"unitPrice"`
}

type commercialInvoice struct {
	TermsOfSale     string `json:"termsOfSale"`
	ShipmentPurpose string `json:"shipmentPurpose"`
}

type shipmentSpecialServices struct {
	SpecialServiceTypes []string   `json:"specialServiceTypes"`
	EtdDetail           *etdDetail `json:"etdDetail,omitempty"`
}

type etdDetail struct {
	RequestedDocumentTypes []string `json:"requestedDocumentTypes"`
}

type shippingDocumentSpecification struct {
	ShippingDocumentTypes   []string                `json:"shippingDocumentTypes"`
	CommercialInvoiceDetail commercialInvoiceDetail `json:"commercialInvoiceDetail"`
}

type commercialInvoiceDetail struct {
	DocumentFormat documentFormat `json:"documentFormat"`
}

type documentFormat struct {
	DocType   string `json:"docType"`
	StockType string `json:"stockType"`
}

// buildShipRequest maps a shipment variant onto the Ship API request body
func buildShipRequest(s shipping.Shipment) shipRequest {
	c := s.Common()
	pkg := packageLineItem{
		SequenceNumber: 1,
		Weight:         weight{Units: weightUnitsKG, Value: number(c.Package.WeightKG)},
	}
	if d := c.Package.Dimensions; d != nil {
		pkg.Dimensions = &dimensions{
			Length: number(d.Length),
			Width:  number(d.Width),
			Height: number(d.Height),
			Units:  d.Units.String(),
		}
	}
	if c.Signature != nil {
		pkg.PackageSpecialServices = &packageSpecialServices{
			SpecialServiceTypes: []string{specialServiceSig},
			SignatureOptionType: c.Signature.String(),
		}
	}

	rs := requestedShipment{
		ShipDatestamp: c.ShipDate.Format(shipDateLayout),
		ServiceType:   c.ServiceType.String(),
		PackagingType: c.PackagingType.String(),
		PickupType:    c.PickupType.String(),
		Shipper:       toParty(c.Shipper),
		Recipients:    []party{toParty(c.Recipient)},
		ShippingChargesPayment: payment{
			PaymentType: c.PaymentType.String(),
			Payor:       &payor{ResponsibleParty: responsibleParty{AccountNumber: accountNumber{Value: c.AccountNumber}}},
		},
		LabelSpecification: labelSpecification{
			LabelFormatType: labelFormatCommon2D,
			ImageType:       labelImagePDF,
			LabelStockType:  labelStockType,
		},
	}

	switch v := s.(type) {
	case *shipping.DomesticShipment:
		// zero declared value is left to the carrier default
		if v.DeclaredValue.Amount.IsPositive() {
			pkg.DeclaredValue = toMoney(v.DeclaredValue)
		}
	case *shipping.InternationalShipment:
		cc := v.Customs
		detail := &customsClearanceDetail{
			DutiesPayment: payment{PaymentType: cc.DutiesPaymentType.String()},
			Commodities: []commodity{{
				Description:          cc.Commodity.Description,
				CountryOfManufacture: cc.Commodity.CountryOfManufacture,
				HarmonizedCode:       cc.Commodity.HarmonizedCode,
				Quantity:             cc.Commodity.Quantity,
				QuantityUnits:        quantityUnitsPieces,
				Weight:               weight{Units: weightUnitsKG, Value: number(cc.Commodity.WeightKG)},
				CustomsValue:         *toMoney(cc.Commodity.CustomsValue),
				UnitPrice:            *toMoney(unitPrice(cc.Commodity)),
			}},
			TotalCustomsValue: *toMoney(cc.TotalCustomsValue),
			CommercialInvoice: commercialInvoice{
				TermsOfSale:     cc.TermsOfSale.String(),
				ShipmentPurpose: shipmentPurposeSold,
			},
		}
		if cc.DutiesPaymentType == c.PaymentType {
			detail.DutiesPayment.Payor = rs.ShippingChargesPayment.Payor
		}
		if cc.ImporterOfRecord != nil {
			ior := toParty(*cc.ImporterOfRecord)
			detail.ImporterOfRecord = &ior
		}
		rs.CustomsClearanceDetail = detail

		if v.ElectronicTradeDocuments {
			rs.ShipmentSpecialServices = &shipmentSpecialServices{
				SpecialServiceTypes: []string{specialServiceETD},
				EtdDetail:           &etdDetail{RequestedDocumentTypes: []string{documentCommercial}},
			}
			rs.ShippingDocumentSpecification = &shippingDocumentSpecification{
				ShippingDocumentTypes: []string{documentCommercial},
				CommercialInvoiceDetail: commercialInvoiceDetail{
					DocumentFormat: documentFormat{DocType: labelImagePDF, StockType: "PAPER_LETTER"},
				},
			}
		}
	}

	rs.RequestedPackageLineItems = []packageLineItem{pkg}
	return shipRequest{
		LabelResponseOptions: labelResponseURLOnly,
		RequestedShipment:    rs,
		AccountNumber:        accountNumber{Value: c.AccountNumber},
	}
}

func toParty(p shipping.Party) party {
	out := party{
		Contact: contact{
			PersonName:   p.Contact.PersonName,
			CompanyName:  p.Contact.CompanyName,
			PhoneNumber:  p.Contact.PhoneNumber,
			EmailAddress: p.Contact.Email,
		},
		Address: toAddress(p.Address),
	}
	if p.TaxID != nil && p.TaxID.Number != "" {
		out.Tins = []tin{{Number: p.TaxID.Number, TinType: string(p.TaxID.Type)}}
	}
	return out
}

func toAddress(a valueobject.Address) address {
	lines := a.StreetLines
	if lines == nil {
		lines = []string{}
	}
	return address{
		StreetLines:         lines,
		City:                a.City,
		StateOrProvinceCode: a.StateOrProvinceCode,
		PostalCode:          a.PostalCode,
		CountryCode:         a.CountryCode,
	}
}

func toMoney(m shipping.Money) *money {
	return &money{Amount: number(m.Amount), Currency: m.Currency}
}

func unitPrice(c shipping.Commodity) shipping.Money {
	if c.Quantity <= 1 {
		return c.CustomsValue
	}
	return shipping.Money{
		Amount:   c.CustomsValue.Amount.Div(decimal.NewFromInt(int64(c.Quantity))).Round(2),
		Currency: c.CustomsValue.Currency,
	}
}
