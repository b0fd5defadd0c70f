package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/application/reconciliation"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/interfaces/http/dto"
)

// OrderSyncer is the reconciliation engine as seen by HTTP
type OrderSyncer interface {
	SyncTenant(ctx context.Context, tenantID uuid.UUID, source *integration.SourceName) (*reconciliation.SyncResult, error)
	ResyncOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*order.Order, error)
}

// OrderSyncHandler serves order sync endpoints
type OrderSyncHandler struct {
	BaseHandler
	syncer OrderSyncer
}

// NewOrderSyncHandler creates a new OrderSyncHandler
func NewOrderSyncHandler(syncer OrderSyncer) *OrderSyncHandler {
	return &OrderSyncHandler{syncer: syncer}
}

// Sync pulls every configured source, or the one named in the body, and
// reconciles the result. Partial failures answer 207 with the breakdown.
//
// POST /orders/sync
func (h *OrderSyncHandler) Sync(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req dto.SyncOrdersRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	var source *integration.SourceName
	if req.Source != "" {
		s, err := integration.ParseSourceName(req.Source)
		if err != nil {
			h.ValidationError(c, []shared.FieldError{{Field: "source", Message: "unknown marketplace source"}})
			return
		}
		source = &s
	}

	res, err := h.syncer.SyncTenant(c.Request.Context(), tenantID, source)
	if err != nil {
		var data any
		if res != nil {
			data = res
		}
		h.HandleError(c, err, data)
		return
	}
	h.Success(c, res)
}

// Resync re-fetches one order from its source
//
// POST /orders/:id/resync
func (h *OrderSyncHandler) Resync(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	o, err := h.syncer.ResyncOrder(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewOrderResponse(o)))
}
