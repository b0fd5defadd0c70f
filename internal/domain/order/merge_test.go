package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func normalized(key string) integration.NormalizedOrder {
	return integration.NormalizedOrder{
		SourceName:        integration.SourceTaobao,
		SourceKey:         key,
		CustomerName:      "Ada Lovelace",
		CustomerFirstName: strPtr("Ada"),
		CustomerLastName:  strPtr("Lovelace"),
		Status:            strPtr("WAIT_SELLER_SEND_GOODS"),
		Currency:          strPtr("CNY"),
		TotalPrice:        decPtr("99.50"),
	}
}

func TestNewFromNormalized(t *testing.T) {
	tenantID := uuid.New()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	o := NewFromNormalized(tenantID, normalized("V-100"), now)

	assert.Equal(t, tenantID, o.TenantID)
	assert.NotEqual(t, uuid.Nil, o.ID)
	assert.Equal(t, "V-100", o.SourceKey)
	assert.Equal(t, SyncStatusOK, o.SyncStatus)
	require.NotNil(t, o.SyncedAt)
	assert.Equal(t, now, *o.SyncedAt)
	assert.Equal(t, now, *o.LastFetchedAt)
	assert.Nil(t, o.PackingStatus)
}

func TestNewFromNormalized_DerivesCustomerName(t *testing.T) {
	in := normalized("V-1")
	in.CustomerName = ""
	assert.Equal(t, "Ada Lovelace", NewFromNormalized(uuid.New(), in, time.Now()).CustomerName)

	in.CustomerFirstName, in.CustomerLastName = nil, nil
	assert.Equal(t, integration.UnknownCustomer, NewFromNormalized(uuid.New(), in, time.Now()).CustomerName)
}

func TestMergeOrder_PreservesOperatorFields(t *testing.T) {
	tenantID := uuid.New()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	existing := NewFromNormalized(tenantID, normalized("V-100"), t0)
	existing.PackingStatus = strPtr("Packed")
	existing.PackingStatusUpdatedAt = &t0
	existing.ProductionNotes = strPtr("gift wrap")
	svc := ServiceFedExGround
	existing.CarrierOptions.ServiceType = &svc
	existing.Shipment.TrackingNumber = strPtr("794000000001")

	in := normalized("V-100")
	in.Status = strPtr("TRADE_FINISHED")
	in.TotalPrice = decPtr("120")
	incoming := NewFromNormalized(tenantID, in, t0.Add(time.Hour))
	// stale values an adapter should never produce but must not leak through
	incoming.PackingStatus = strPtr("Unpacked")
	incoming.Shipment = ShipmentResult{}

	merged := MergeOrder(existing, incoming, OperatorOwnedFields())

	assert.Equal(t, existing.ID, merged.ID)
	assert.Equal(t, existing.CreatedAt, merged.CreatedAt)
	assert.Equal(t, "Packed", *merged.PackingStatus)
	assert.Equal(t, "gift wrap", *merged.ProductionNotes)
	assert.Equal(t, ServiceFedExGround, *merged.CarrierOptions.ServiceType)
	assert.Equal(t, "794000000001", *merged.Shipment.TrackingNumber)

	assert.Equal(t, "TRADE_FINISHED", *merged.Status)
	assert.True(t, decimal.NewFromInt(120).Equal(*merged.TotalPrice))

	// inputs untouched
	assert.Equal(t, "Unpacked", *incoming.PackingStatus)
	assert.Equal(t, "WAIT_SELLER_SEND_GOODS", *existing.Status)
}

func TestMergeOrder_NilPackingStatusUpstream(t *testing.T) {
	tenantID := uuid.New()
	existing := NewFromNormalized(tenantID, normalized("V-7"), time.Now())
	existing.PackingStatus = strPtr("Packed")

	incoming := NewFromNormalized(tenantID, normalized("V-7"), time.Now())
	merged := MergeOrder(existing, incoming, OperatorOwnedFields())

	require.NotNil(t, merged.PackingStatus)
	assert.Equal(t, "Packed", *merged.PackingStatus)
}

func TestMergeOrder_CustomProtectedSet(t *testing.T) {
	tenantID := uuid.New()
	existing := NewFromNormalized(tenantID, normalized("V-8"), time.Now())
	in := normalized("V-8")
	in.Currency = strPtr("USD")
	incoming := NewFromNormalized(tenantID, in, time.Now())

	merged := MergeOrder(existing, incoming, NewProtectedFields(FieldCurrency))
	assert.Equal(t, "CNY", *merged.Currency)

	merged = MergeOrder(existing, incoming, NewProtectedFields())
	assert.Equal(t, "USD", *merged.Currency)
}

func TestMergeItems_PreservesNotes(t *testing.T) {
	orderID := uuid.New()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	existing := []OrderItem{
		NewItemFromNormalized(orderID, integration.NormalizedLineItem{RemoteLineID: "L1", Quantity: 1}, t0),
	}
	existing[0].Notes = strPtr("handle with care")

	t1 := t0.Add(time.Hour)
	incoming := []OrderItem{
		NewItemFromNormalized(orderID, integration.NormalizedLineItem{RemoteLineID: "L1", Quantity: 2}, t1),
		NewItemFromNormalized(orderID, integration.NormalizedLineItem{RemoteLineID: "L2", Quantity: 1, Notes: strPtr("from buyer")}, t1),
	}

	merged := MergeItems(orderID, existing, incoming, t1)
	require.Len(t, merged, 2)

	assert.Equal(t, existing[0].ID, merged[0].ID)
	assert.Equal(t, t0, merged[0].CreatedAt)
	assert.Equal(t, 2, merged[0].Quantity)
	assert.Equal(t, "handle with care", *merged[0].Notes)

	assert.Equal(t, incoming[1].ID, merged[1].ID)
	assert.Equal(t, "from buyer", *merged[1].Notes)
}

func TestOrder_RecipientName(t *testing.T) {
	o := NewFromNormalized(uuid.New(), normalized("V-9"), time.Now())
	assert.Equal(t, "Ada Lovelace", o.RecipientName())

	o.CustomerFirstName, o.CustomerLastName = nil, nil
	o.CustomerName = "Ada L."
	assert.Equal(t, "Ada L.", o.RecipientName())
}
