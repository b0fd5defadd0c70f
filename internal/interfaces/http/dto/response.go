package dto

import (
	"github.com/orderdesk/backend/internal/domain/shared"
)

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details. Details names offending fields or
// failed units; provider fields carry the upstream system's own diagnosis.
type ErrorInfo struct {
	Code            string              `json:"code"`
	Message         string              `json:"message"`
	RequestID       string              `json:"request_id,omitempty"`
	Details         []shared.FieldError `json:"details,omitempty"`
	ProviderCode    string              `json:"provider_code,omitempty"`
	ProviderMessage string              `json:"provider_message,omitempty"`
	Context         map[string]any      `json:"context,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithRequestID creates an error response tagged with the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	r := NewErrorResponse(code, message)
	r.Error.RequestID = requestID
	return r
}

// NewValidationErrorResponse reports field-level input problems
func NewValidationErrorResponse(message, requestID string, details []shared.FieldError) Response {
	r := NewErrorResponseWithRequestID(shared.CodeValidation, message, requestID)
	r.Error.Details = details
	return r
}

// ErrorInfoFromDomain copies a DomainError into the wire shape
func ErrorInfoFromDomain(de *shared.DomainError, requestID string) *ErrorInfo {
	return &ErrorInfo{
		Code:            de.Code,
		Message:         de.Message,
		RequestID:       requestID,
		Details:         de.Fields,
		ProviderCode:    de.ProviderCode,
		ProviderMessage: de.ProviderMessage,
		Context:         de.Details,
	}
}

// IDRequest represents a request with an ID path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
