package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func normalizedOrder(key string) integration.NormalizedOrder {
	addr := valueobject.NewAddress([]string{"1 Main St"}, "Austin", "TX", "78701", "us")
	return integration.NormalizedOrder{
		SourceName:        integration.SourceTaobao,
		SourceKey:         key,
		CustomerName:      "Ada Lovelace",
		CustomerFirstName: strPtr("Ada"),
		CustomerLastName:  strPtr("Lovelace"),
		CustomerPhone:     strPtr("+15125550100"),
		Status:            strPtr("WAIT_SELLER_SEND_GOODS"),
		Currency:          strPtr("USD"),
		TotalPrice:        decPtr("42.50"),
		ShippingAddress:   &addr,
		RawPayload:        json.RawMessage(`{"tid":"` + key + `"}`),
	}
}

func lineItem(remote string, qty int) integration.NormalizedLineItem {
	return integration.NormalizedLineItem{
		RemoteLineID: remote,
		SKU:          strPtr("SKU-" + remote),
		ProductName:  strPtr("Widget " + remote),
		Quantity:     qty,
		UnitPrice:    decPtr("10.00"),
	}
}

func seedOrder(t *testing.T, repo *GormOrderRepository, tenantID uuid.UUID, key string) (*order.Order, []order.OrderItem) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	o := order.NewFromNormalized(tenantID, normalizedOrder(key), now)
	items := []order.OrderItem{
		order.NewItemFromNormalized(o.ID, lineItem("L1", 1), now),
		order.NewItemFromNormalized(o.ID, lineItem("L2", 2), now),
	}
	require.NoError(t, repo.Create(context.Background(), o, items))
	return o, items
}

func TestGormOrderRepository_CreateAndFind(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	o, _ := seedOrder(t, repo, tenantID, "T-1001")

	got, err := repo.FindByID(ctx, tenantID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "T-1001", got.SourceKey)
	assert.Equal(t, integration.SourceTaobao, got.SourceName)
	assert.Equal(t, "Ada Lovelace", got.CustomerName)
	assert.True(t, decimal.RequireFromString("42.50").Equal(*got.TotalPrice))
	require.NotNil(t, got.ShippingAddress)
	assert.Equal(t, "US", got.ShippingAddress.CountryCode)
	assert.JSONEq(t, `{"tid":"T-1001"}`, string(got.RawPayload))
	assert.Equal(t, order.SyncStatusOK, got.SyncStatus)

	bySource, err := repo.FindBySourceKey(ctx, tenantID, integration.SourceTaobao, "T-1001")
	require.NoError(t, err)
	assert.Equal(t, o.ID, bySource.ID)

	items, err := repo.FindItems(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "L1", items[0].RemoteLineID)
	assert.Equal(t, 2, items[1].Quantity)
}

func TestGormOrderRepository_TenantIsolation(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	o, _ := seedOrder(t, repo, owner, "T-1")

	_, err := repo.FindByID(ctx, uuid.New(), o.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindBySourceKey(ctx, uuid.New(), integration.SourceTaobao, "T-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = repo.MarkSyncStatus(ctx, uuid.New(), o.ID, order.SyncStatusOK, time.Now())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// the same source key under another tenant is a different order
	seedOrder(t, repo, uuid.New(), "T-1")
}

func TestGormOrderRepository_CreateDuplicate(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	tenantID := uuid.New()

	seedOrder(t, repo, tenantID, "T-9")

	dup := order.NewFromNormalized(tenantID, normalizedOrder("T-9"), time.Now())
	err := repo.Create(context.Background(), dup, nil)
	assert.ErrorIs(t, err, order.ErrDuplicateOrder)

	_, err = repo.FindByID(context.Background(), tenantID, dup.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_SaveSynced(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	o, items := seedOrder(t, repo, tenantID, "T-2")

	// operator edits that sync must never touch
	require.NoError(t, db.Table("orders").Where("id = ?", o.ID).Updates(map[string]any{
		"packing_status":   "PACKED",
		"production_notes": "gift wrap",
		"tracking_number":  "794600000001",
	}).Error)
	require.NoError(t, db.Table("order_items").Where("id = ?", items[0].ID).
		Update("notes", "fragile").Error)

	later := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	in := normalizedOrder("T-2")
	in.Status = strPtr("WAIT_BUYER_CONFIRM_GOODS")
	in.TotalPrice = decPtr("50.00")

	loaded, err := repo.FindByID(ctx, tenantID, o.ID)
	require.NoError(t, err)
	loaded.Status = in.Status
	loaded.TotalPrice = in.TotalPrice
	loaded.PackingStatus = nil
	loaded.ProductionNotes = nil
	loaded.Shipment = order.ShipmentResult{}
	loaded.MarkSynced(later)

	l1 := order.NewItemFromNormalized(o.ID, lineItem("L1", 5), later)
	l1.Notes = strPtr("overwritten?")
	l3 := order.NewItemFromNormalized(o.ID, lineItem("L3", 1), later)
	l3.Notes = strPtr("new line note")
	require.NoError(t, repo.SaveSynced(ctx, loaded, []order.OrderItem{l1, l3}))

	got, err := repo.FindByID(ctx, tenantID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "WAIT_BUYER_CONFIRM_GOODS", *got.Status)
	assert.True(t, decimal.RequireFromString("50").Equal(*got.TotalPrice))
	require.NotNil(t, got.PackingStatus)
	assert.Equal(t, "PACKED", *got.PackingStatus)
	require.NotNil(t, got.ProductionNotes)
	assert.Equal(t, "gift wrap", *got.ProductionNotes)
	require.NotNil(t, got.Shipment.TrackingNumber)
	assert.Equal(t, "794600000001", *got.Shipment.TrackingNumber)
	require.NotNil(t, got.SyncedAt)
	assert.True(t, got.SyncedAt.Equal(later))

	gotItems, err := repo.FindItems(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, gotItems, 3)
	byLine := map[string]order.OrderItem{}
	for _, it := range gotItems {
		byLine[it.RemoteLineID] = it
	}
	assert.Equal(t, 5, byLine["L1"].Quantity)
	assert.Equal(t, items[0].ID, byLine["L1"].ID)
	require.NotNil(t, byLine["L1"].Notes)
	assert.Equal(t, "fragile", *byLine["L1"].Notes)
	require.NotNil(t, byLine["L3"].Notes)
	assert.Equal(t, "new line note", *byLine["L3"].Notes)
	// lines missing from the marketplace payload are kept
	assert.Equal(t, 2, byLine["L2"].Quantity)
}

func TestGormOrderRepository_SaveSyncedMissingOrder(t *testing.T) {
	repo := NewGormOrderRepository(newSQLiteDB(t))
	o := order.NewFromNormalized(uuid.New(), normalizedOrder("T-404"), time.Now())
	err := repo.SaveSynced(context.Background(), o, nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_MarkSyncStatus(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	o, _ := seedOrder(t, repo, tenantID, "T-3")

	at := time.Now().UTC().Add(time.Minute).Truncate(time.Second)
	require.NoError(t, repo.MarkSyncStatus(ctx, tenantID, o.ID, order.SyncStatusError(shared.CodeUpstream), at))

	got, err := repo.FindByID(ctx, tenantID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "error: UPSTREAM_ERROR", got.SyncStatus)
	assert.True(t, got.SyncedAt.Equal(at))
	assert.Equal(t, "WAIT_SELLER_SEND_GOODS", *got.Status)
}

func TestGormOrderRepository_SaveCarrierOptionsAndShipment(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	o, _ := seedOrder(t, repo, tenantID, "T-4")

	service := order.ServiceFedExGround
	opts := order.CarrierOptions{ServiceType: &service, WeightKG: decPtr("1.5")}
	require.NoError(t, repo.SaveCarrierOptions(ctx, tenantID, o.ID, opts))

	shipped := time.Now().UTC().Truncate(time.Second)
	result := order.ShipmentResult{
		TrackingNumber:   strPtr("794600000002"),
		LabelURL:         strPtr("https://labels.example/794600000002.pdf"),
		ArchivedLabelKey: strPtr("labels/t/o/794600000002.pdf"),
		ShipmentStatus:   strPtr(order.ShipmentStatusLabelGenerated),
		ShippedAt:        &shipped,
	}
	require.NoError(t, repo.SaveShipment(ctx, tenantID, o.ID, result))

	got, err := repo.FindByID(ctx, tenantID, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CarrierOptions.ServiceType)
	assert.Equal(t, order.ServiceFedExGround, *got.CarrierOptions.ServiceType)
	assert.True(t, decimal.RequireFromString("1.5").Equal(*got.CarrierOptions.WeightKG))
	require.NotNil(t, got.Shipment.TrackingNumber)
	assert.Equal(t, "794600000002", *got.Shipment.TrackingNumber)
	assert.Equal(t, "labels/t/o/794600000002.pdf", *got.Shipment.ArchivedLabelKey)
	assert.Nil(t, got.Shipment.MasterFormID)

	err = repo.SaveShipment(ctx, tenantID, uuid.New(), result)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_SaveShipmentWritesOnlyShipmentColumns(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	o, _ := seedOrder(t, repo, tenantID, "T-5")

	require.NoError(t, db.Table("orders").Where("id = ?", o.ID).Updates(map[string]any{
		"packing_status":   "Packed",
		"production_notes": "gift wrap",
	}).Error)

	shipped := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.SaveShipment(ctx, tenantID, o.ID, order.ShipmentResult{
		TrackingNumber: strPtr("794600000005"),
		LabelURL:       strPtr("https://labels.example/794600000005.pdf"),
		ShipmentStatus: strPtr(order.ShipmentStatusLabelGenerated),
		ShippedAt:      &shipped,
	}))

	got, err := repo.FindByID(ctx, tenantID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ShipmentStatusLabelGenerated, *got.Shipment.ShipmentStatus)
	assert.Equal(t, "794600000005", *got.Shipment.TrackingNumber)
	require.NotNil(t, got.PackingStatus)
	assert.Equal(t, "Packed", *got.PackingStatus)
	require.NotNil(t, got.ProductionNotes)
	assert.Equal(t, "gift wrap", *got.ProductionNotes)
	assert.Equal(t, "Ada Lovelace", got.CustomerName)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(assertErr("UNIQUE constraint failed: orders.tenant_id")))
	assert.True(t, isUniqueViolation(assertErr("ERROR: duplicate key (SQLSTATE 23505)")))
	assert.False(t, isUniqueViolation(assertErr("connection refused")))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
