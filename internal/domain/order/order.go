package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SyncStatusOK marks an order whose last sync succeeded
const SyncStatusOK = "ok"

// SyncStatusError builds the error marker stored when a resync fails
func SyncStatusError(code string) string {
	return "error: " + code
}

// ShipmentStatusLabelGenerated is stored after a successful label request
const ShipmentStatusLabelGenerated = "LABEL_GENERATED"

// ShipmentResult is written only by the label service
type ShipmentResult struct {
	TrackingNumber   *string
	LabelURL         *string
	ArchivedLabelKey *string
	MasterFormID     *string
	ShipmentStatus   *string
	ShippedAt        *time.Time
}

// Order is one marketplace purchase owned by one tenant.
// (TenantID, SourceName, SourceKey) is unique.
type Order struct {
	shared.TenantEntity
	SourceName integration.SourceName
	SourceKey  string

	// Marketplace-sourced, overwritten on every sync
	CustomerName      string
	CustomerFirstName *string
	CustomerLastName  *string
	CustomerEmail     *string
	CustomerPhone     *string
	Status            *string
	Currency          *string
	TotalPrice        *decimal.Decimal
	ShippingAddress   *valueobject.Address
	BillingAddress    *valueobject.Address
	PlacedAt          *time.Time
	RawPayload        json.RawMessage
	LastFetchedAt     *time.Time

	// Operator-owned, never written by sync
	PackingStatus            *string
	PackingStatusUpdatedAt   *time.Time
	ProductionNotes          *string
	ProductionNotesUpdatedAt *time.Time
	CarrierOptions           CarrierOptions

	Shipment ShipmentResult

	SyncedAt   *time.Time
	SyncStatus string
}

// NewFromNormalized creates a new order from adapter output, stamped as synced at now
func NewFromNormalized(tenantID uuid.UUID, in integration.NormalizedOrder, now time.Time) *Order {
	o := &Order{
		TenantEntity: shared.NewTenantEntity(tenantID),
		SourceName:   in.SourceName,
		SourceKey:    in.SourceKey,
	}
	o.CreatedAt, o.UpdatedAt = now, now
	o.applyMarketplaceFields(in, now)
	o.MarkSynced(now)
	return o
}

func (o *Order) applyMarketplaceFields(in integration.NormalizedOrder, now time.Time) {
	o.CustomerName = in.CustomerName
	if o.CustomerName == "" {
		o.CustomerName = integration.JoinName(deref(in.CustomerFirstName), deref(in.CustomerLastName))
	}
	o.CustomerFirstName = in.CustomerFirstName
	o.CustomerLastName = in.CustomerLastName
	o.CustomerEmail = in.CustomerEmail
	o.CustomerPhone = in.CustomerPhone
	o.Status = in.Status
	o.Currency = in.Currency
	o.TotalPrice = in.TotalPrice
	o.ShippingAddress = in.ShippingAddress
	o.BillingAddress = in.BillingAddress
	o.PlacedAt = in.PlacedAt
	o.RawPayload = in.RawPayload
	fetched := now
	o.LastFetchedAt = &fetched
}

// MarkSynced stamps the sync audit fields
func (o *Order) MarkSynced(now time.Time) {
	t := now
	o.SyncedAt = &t
	o.SyncStatus = SyncStatusOK
	o.UpdatedAt = now
}

// RecipientName joins first and last name, falling back to CustomerName
func (o *Order) RecipientName() string {
	if name := integration.JoinName(deref(o.CustomerFirstName), deref(o.CustomerLastName)); name != integration.UnknownCustomer {
		return name
	}
	return o.CustomerName
}

// RecordShipment stores a successful label result
func (o *Order) RecordShipment(result ShipmentResult, now time.Time) {
	o.Shipment = result
	o.UpdatedAt = now
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
