package shipping

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func usProfile() *ShipperProfile {
	return &ShipperProfile{
		TenantID:          uuid.New(),
		CompanyName:       "Acme Prints",
		ContactName:       "Jo Shipper",
		Phone:             "5125550100",
		Address:           valueobject.NewAddress([]string{"100 Congress Ave"}, "Austin", "TX", "78701", "US"),
		TaxID:             "12-3456789",
		TaxIDType:         TaxIDBusinessNational,
		DefaultCurrency:   "USD",
		DutiesPaymentType: order.PaymentSender,
	}
}

func orderTo(country string) *order.Order {
	addr := valueobject.NewAddress([]string{"1 Main St"}, "Springfield", "", "12345", country)
	o := order.NewFromNormalized(uuid.New(), integration.NormalizedOrder{
		SourceName:        integration.SourceTaobao,
		SourceKey:         "V-100",
		CustomerFirstName: strPtr("Ada"),
		CustomerLastName:  strPtr("Lovelace"),
		CustomerPhone:     strPtr("+15555550123"),
		Currency:          strPtr("USD"),
		TotalPrice:        decPtr("40.00"),
		ShippingAddress:   &addr,
	}, time.Now())
	o.CarrierOptions.WeightKG = decPtr("1.2")
	return o
}

func prepare(o *order.Order, p *ShipperProfile) (Shipment, []string, error) {
	return PrepareShipment(PrepareInput{
		Order:                    o,
		Profile:                  p,
		Credentials:              CarrierCredentials{APIKey: "k", SecretKey: "s", AccountNumber: "740561073"},
		ShipDate:                 time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		ElectronicTradeDocuments: true,
	})
}
