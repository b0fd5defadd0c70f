package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/interfaces/http/dto"
)

// CarrierOptionsUpdater validates and stores operator carrier selections
type CarrierOptionsUpdater interface {
	Catalog() order.OptionCatalog
	Update(ctx context.Context, tenantID, orderID uuid.UUID, patch order.OptionsPatch) (order.CarrierOptions, error)
}

// CarrierOptionsHandler serves the FedEx option endpoints
type CarrierOptionsHandler struct {
	BaseHandler
	options CarrierOptionsUpdater
}

// NewCarrierOptionsHandler creates a new CarrierOptionsHandler
func NewCarrierOptionsHandler(options CarrierOptionsUpdater) *CarrierOptionsHandler {
	return &CarrierOptionsHandler{options: options}
}

// Catalog lists every accepted option value
//
// GET /fedex/options
func (h *CarrierOptionsHandler) Catalog(c *gin.Context) {
	h.Success(c, h.options.Catalog())
}

// Update applies a partial carrier options update. Every invalid field is
// named in the 400 response.
//
// PATCH /orders/:id/fedex-options
func (h *CarrierOptionsHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	var req dto.CarrierOptionsRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	opts, err := h.options.Update(c.Request.Context(), tenantID, orderID, req.ToPatch())
	if err != nil {
		h.HandleError(c, err, nil)
		return
	}
	h.Success(c, opts)
}
