package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/infrastructure/persistence/models"
	"github.com/orderdesk/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order within a tenant
func (r *GormOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*order.Order, error) {
	var m models.OrderModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain()
}

// FindBySourceKey finds an order by its reconciliation identity
func (r *GormOrderRepository) FindBySourceKey(ctx context.Context, tenantID uuid.UUID, source integration.SourceName, sourceKey string) (*order.Order, error) {
	var m models.OrderModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("source_name = ? AND source_key = ?", string(source), sourceKey).
		First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain()
}

// FindItems returns every item of an order ordered by creation
func (r *GormOrderRepository) FindItems(ctx context.Context, orderID uuid.UUID) ([]order.OrderItem, error) {
	var rows []models.OrderItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, remote_line_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]order.OrderItem, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, nil
}

// Create inserts an order and its items in one transaction. A uniqueness
// violation on the order identity returns order.ErrDuplicateOrder.
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order, items []order.OrderItem) error {
	var m models.OrderModel
	if err := m.FromDomain(o); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(itemModels(items)).Error
	})
	if isUniqueViolation(err) {
		return order.ErrDuplicateOrder
	}
	return err
}

// SaveSynced writes the marketplace and sync audit columns of an existing
// order and upserts its items. Operator and shipment columns are never in
// the update set, and item notes are only written on insert.
func (r *GormOrderRepository) SaveSynced(ctx context.Context, o *order.Order, items []order.OrderItem) error {
	var m models.OrderModel
	if err := m.FromDomain(o); err != nil {
		return err
	}
	cols := append(append([]string{}, models.MarketplaceColumns...), models.SyncAuditColumns...)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.OrderModel{}).
			Scopes(tenant.Scope(o.TenantID)).
			Where("id = ?", o.ID).
			Select(cols).
			Updates(&m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "remote_line_id"}},
			DoUpdates: clause.AssignmentColumns(models.ItemSyncColumns),
		}).Create(itemModels(items)).Error
	})
}

// MarkSyncStatus stamps sync_status and synced_at only
func (r *GormOrderRepository) MarkSyncStatus(ctx context.Context, tenantID, id uuid.UUID, status string, at time.Time) error {
	return r.updateColumns(ctx, tenantID, id, map[string]any{
		"sync_status": status,
		"synced_at":   at,
	})
}

// SaveCarrierOptions writes the operator carrier selections
func (r *GormOrderRepository) SaveCarrierOptions(ctx context.Context, tenantID, id uuid.UUID, opts order.CarrierOptions) error {
	data, err := models.CarrierOptionsJSON(opts)
	if err != nil {
		return err
	}
	return r.updateColumns(ctx, tenantID, id, map[string]any{
		"carrier_options": data,
		"updated_at":      time.Now(),
	})
}

// SaveShipment writes the label result columns
func (r *GormOrderRepository) SaveShipment(ctx context.Context, tenantID, id uuid.UUID, result order.ShipmentResult) error {
	return r.updateColumns(ctx, tenantID, id, map[string]any{
		"tracking_number":    result.TrackingNumber,
		"label_url":          result.LabelURL,
		"archived_label_key": result.ArchivedLabelKey,
		"master_form_id":     result.MasterFormID,
		"shipment_status":    result.ShipmentStatus,
		"shipped_at":         result.ShippedAt,
		"updated_at":         time.Now(),
	}, models.ShipmentColumns...)
}

// updateColumns writes values to one tenant order. When columns is set only
// those columns are written, whatever else values holds.
func (r *GormOrderRepository) updateColumns(ctx context.Context, tenantID, id uuid.UUID, values map[string]any, columns ...string) error {
	q := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id)
	if len(columns) > 0 {
		q = q.Select(columns)
	}
	res := q.Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func itemModels(items []order.OrderItem) []models.OrderItemModel {
	out := make([]models.OrderItemModel, len(items))
	for i, it := range items {
		out[i].FromDomain(it)
	}
	return out
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// isUniqueViolation recognizes duplicate-key errors from gorm's translated
// error, lib/pq, and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "SQLSTATE "+pgUniqueViolation)
}
