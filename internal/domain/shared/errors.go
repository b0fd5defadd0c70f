package shared

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes shared by every layer. The HTTP layer maps these to status codes.
const (
	CodeValidation     = "VALIDATION_FAILED"
	CodeConfig         = "CONFIG_MISSING"
	CodeAuth           = "AUTH_FAILED"
	CodeUpstream       = "UPSTREAM_ERROR"
	CodeMalformed      = "MALFORMED_RESPONSE"
	CodeNotFound       = "NOT_FOUND"
	CodePartialFailure = "PARTIAL_FAILURE"
	CodeInternal       = "INTERNAL"
)

// FieldError names a single offending input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Fields lists field-level reasons for validation and config errors
	Fields []FieldError `json:"fields,omitempty"`

	// Provider diagnostics for upstream failures, kept verbatim
	ProviderCode    string `json:"provider_code,omitempty"`
	ProviderMessage string `json:"provider_message,omitempty"`
	HTTPStatus      int    `json:"-"`

	// Details carries structured context (e.g. tracking number after a persist failure)
	Details map[string]any `json:"details,omitempty"`

	cause error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = f.Field + ": " + f.Message
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString(")")
	}
	if e.ProviderCode != "" || e.ProviderMessage != "" {
		fmt.Fprintf(&b, " [%s] %s", e.ProviderCode, e.ProviderMessage)
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches another DomainError by code so errors.Is works against the
// common error values below.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of the error wrapping cause
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.cause = cause
	return &c
}

// WithDetail returns a copy of the error with an extra detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	c := *e
	c.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		c.Details[k] = v
	}
	c.Details[key] = value
	return &c
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports invalid or missing input fields
func NewValidationError(fields ...FieldError) *DomainError {
	return &DomainError{
		Code:    CodeValidation,
		Message: "Validation failed",
		Fields:  fields,
	}
}

// NewConfigError reports a missing tenant credential or profile field
func NewConfigError(field, message string) *DomainError {
	return &DomainError{
		Code:    CodeConfig,
		Message: "Configuration incomplete",
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

// NewConfigErrors reports several missing configuration fields at once
func NewConfigErrors(fields ...FieldError) *DomainError {
	return &DomainError{
		Code:    CodeConfig,
		Message: "Configuration incomplete",
		Fields:  fields,
	}
}

// NewAuthError reports credentials rejected by an upstream system
func NewAuthError(message string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeAuth,
		Message: message,
		cause:   cause,
	}
}

// NewUpstreamError reports a non-success response from a marketplace or carrier
func NewUpstreamError(httpStatus int, providerCode, providerMessage string, cause error) *DomainError {
	return &DomainError{
		Code:            CodeUpstream,
		Message:         "Upstream request failed",
		ProviderCode:    providerCode,
		ProviderMessage: providerMessage,
		HTTPStatus:      httpStatus,
		cause:           cause,
	}
}

// NewMalformedResponseError reports an upstream payload of unexpected shape
func NewMalformedResponseError(message string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeMalformed,
		Message: message,
		cause:   cause,
	}
}

// NewNotFoundError reports a missing order or upstream record
func NewNotFoundError(resource, id string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", resource, id),
	}
}

// NewPartialFailure reports a batch where some units failed
func NewPartialFailure(message string, failures []FieldError) *DomainError {
	return &DomainError{
		Code:    CodePartialFailure,
		Message: message,
		Fields:  failures,
	}
}

// NewInternalError wraps an unexpected fault
func NewInternalError(message string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeInternal,
		Message: message,
		cause:   cause,
	}
}

// AsDomainError extracts a DomainError from an error chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrNotFound       = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation     = NewDomainError(CodeValidation, "Validation failed")
	ErrConfig         = NewDomainError(CodeConfig, "Configuration incomplete")
	ErrAuth           = NewDomainError(CodeAuth, "Upstream rejected credentials")
	ErrUpstream       = NewDomainError(CodeUpstream, "Upstream request failed")
	ErrMalformed      = NewDomainError(CodeMalformed, "Upstream response malformed")
	ErrPartialFailure = NewDomainError(CodePartialFailure, "Some units failed")
	ErrInternal       = NewDomainError(CodeInternal, "Internal error")
)
