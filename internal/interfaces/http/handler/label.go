package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appshipping "github.com/orderdesk/backend/internal/application/shipping"
	"github.com/orderdesk/backend/internal/interfaces/http/dto"
)

// LabelGenerator runs the label state machine for one order
type LabelGenerator interface {
	GenerateLabel(ctx context.Context, in appshipping.GenerateLabelInput) (*appshipping.LabelResult, error)
}

// LabelHandler serves label generation
type LabelHandler struct {
	BaseHandler
	labels LabelGenerator
}

// NewLabelHandler creates a new LabelHandler
func NewLabelHandler(labels LabelGenerator) *LabelHandler {
	return &LabelHandler{labels: labels}
}

// Generate validates the order, submits the shipment to the carrier and
// stores the tracking number. Validation failures answer 400, carrier
// failures 502.
//
// POST /orders/:id/generate-label
func (h *LabelHandler) Generate(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}
	var req dto.GenerateLabelRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	res, err := h.labels.GenerateLabel(c.Request.Context(), appshipping.GenerateLabelInput{
		TenantID:   tenantID,
		OrderID:    orderID,
		DisableETD: req.DisableETD,
	})
	if err != nil {
		h.HandleError(c, err, nil)
		return
	}
	h.Success(c, res)
}
