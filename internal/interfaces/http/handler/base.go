package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/interfaces/http/dto"
	"github.com/orderdesk/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []shared.FieldError) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// HandleError writes err as an error envelope. data is attached when non-nil,
// which is how partial batch results reach the caller.
func (h *BaseHandler) HandleError(c *gin.Context, err error, data any) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	de, ok := shared.AsDomainError(err)
	if !ok {
		logger.L(c.Request.Context()).Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.Response{
			Success: false,
			Data:    data,
			Error: &dto.ErrorInfo{
				Code:      shared.CodeInternal,
				Message:   "An unexpected error occurred",
				RequestID: requestID,
			},
		})
		return
	}

	status := dto.GetHTTPStatus(de.Code)
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("Request failed", zap.String("code", de.Code), zap.Error(err))
	}
	c.JSON(status, dto.Response{
		Success: false,
		Data:    data,
		Error:   dto.ErrorInfoFromDomain(de, requestID),
	})
}

// tenantID returns the tenant set by the tenant middleware or answers 401
func (h *BaseHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetTenantID(c)
	if !ok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Tenant identification required")
	}
	return id, ok
}

// orderID parses the :id path parameter or answers 400
func (h *BaseHandler) orderID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.ValidationError(c, []shared.FieldError{{Field: "id", Message: "Invalid UUID format"}})
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}

// bindOptionalJSON decodes the body into dst. An empty body is accepted.
func (h *BaseHandler) bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	return h.bindJSON(c, dst, true)
}

// bindJSON decodes the body into dst or answers 400
func (h *BaseHandler) bindJSON(c *gin.Context, dst any, allowEmpty bool) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	if details := middleware.ValidationDetails(err); details != nil {
		h.ValidationError(c, details)
		return false
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return false
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
	return false
}
