package order

import (
	"time"

	"github.com/google/uuid"
)

// Field names an order field that a merge can protect
type Field string

const (
	FieldPackingStatus            Field = "packing_status"
	FieldPackingStatusUpdatedAt   Field = "packing_status_updated_at"
	FieldProductionNotes          Field = "production_notes"
	FieldProductionNotesUpdatedAt Field = "production_notes_updated_at"
	FieldCarrierOptions           Field = "carrier_options"
	FieldShipment                 Field = "shipment"

	FieldCustomerName    Field = "customer_name"
	FieldCustomerContact Field = "customer_contact"
	FieldStatus          Field = "status"
	FieldCurrency        Field = "currency"
	FieldTotalPrice      Field = "total_price"
	FieldShippingAddress Field = "shipping_address"
	FieldBillingAddress  Field = "billing_address"
	FieldPlacedAt        Field = "placed_at"
	FieldRawPayload      Field = "raw_payload"
)

// ProtectedFields is the set of fields a merge carries forward from the existing order
type ProtectedFields map[Field]struct{}

// NewProtectedFields builds a set from fields
func NewProtectedFields(fields ...Field) ProtectedFields {
	p := make(ProtectedFields, len(fields))
	for _, f := range fields {
		p[f] = struct{}{}
	}
	return p
}

// Has reports whether f is protected
func (p ProtectedFields) Has(f Field) bool {
	_, ok := p[f]
	return ok
}

// OperatorOwnedFields are never overwritten by sync
func OperatorOwnedFields() ProtectedFields {
	return NewProtectedFields(
		FieldPackingStatus,
		FieldPackingStatusUpdatedAt,
		FieldProductionNotes,
		FieldProductionNotesUpdatedAt,
		FieldCarrierOptions,
		FieldShipment,
	)
}

// fieldCopiers copy one field from src to dst
var fieldCopiers = map[Field]func(dst, src *Order){
	FieldPackingStatus:            func(d, s *Order) { d.PackingStatus = s.PackingStatus },
	FieldPackingStatusUpdatedAt:   func(d, s *Order) { d.PackingStatusUpdatedAt = s.PackingStatusUpdatedAt },
	FieldProductionNotes:          func(d, s *Order) { d.ProductionNotes = s.ProductionNotes },
	FieldProductionNotesUpdatedAt: func(d, s *Order) { d.ProductionNotesUpdatedAt = s.ProductionNotesUpdatedAt },
	FieldCarrierOptions:           func(d, s *Order) { d.CarrierOptions = s.CarrierOptions },
	FieldShipment:                 func(d, s *Order) { d.Shipment = s.Shipment },
	FieldCustomerName:             func(d, s *Order) { d.CustomerName = s.CustomerName },
	FieldCustomerContact: func(d, s *Order) {
		d.CustomerFirstName = s.CustomerFirstName
		d.CustomerLastName = s.CustomerLastName
		d.CustomerEmail = s.CustomerEmail
		d.CustomerPhone = s.CustomerPhone
	},
	FieldStatus:          func(d, s *Order) { d.Status = s.Status },
	FieldCurrency:        func(d, s *Order) { d.Currency = s.Currency },
	FieldTotalPrice:      func(d, s *Order) { d.TotalPrice = s.TotalPrice },
	FieldShippingAddress: func(d, s *Order) { d.ShippingAddress = s.ShippingAddress },
	FieldBillingAddress:  func(d, s *Order) { d.BillingAddress = s.BillingAddress },
	FieldPlacedAt:        func(d, s *Order) { d.PlacedAt = s.PlacedAt },
	FieldRawPayload:      func(d, s *Order) { d.RawPayload = s.RawPayload },
}

// MergeOrder lays incoming over existing and returns the result. Identity and
// creation time always come from existing; every protected field is carried
// forward from existing whatever incoming holds. Neither argument is modified.
func MergeOrder(existing, incoming *Order, protected ProtectedFields) *Order {
	merged := *incoming
	merged.TenantEntity = existing.TenantEntity
	merged.SourceName = existing.SourceName
	merged.SourceKey = existing.SourceKey
	merged.SyncedAt = existing.SyncedAt
	merged.SyncStatus = existing.SyncStatus

	for f := range protected {
		if cp, ok := fieldCopiers[f]; ok {
			cp(&merged, existing)
		}
	}
	return &merged
}

// MergeItems upserts incoming items onto existing ones by RemoteLineID.
// A matched item keeps its ID, creation time and Notes. Existing items the
// source no longer reports are left untouched.
func MergeItems(orderID uuid.UUID, existing, incoming []OrderItem, now time.Time) []OrderItem {
	byLine := make(map[string]OrderItem, len(existing))
	for _, it := range existing {
		byLine[it.RemoteLineID] = it
	}

	out := make([]OrderItem, 0, len(incoming))
	for _, in := range incoming {
		in.OrderID = orderID
		in.UpdatedAt = now
		if prev, ok := byLine[in.RemoteLineID]; ok {
			in.ID = prev.ID
			in.CreatedAt = prev.CreatedAt
			in.Notes = prev.Notes
		}
		out = append(out, in)
	}
	return out
}
