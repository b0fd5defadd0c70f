package reconciliation

import (
	"context"
	"errors"

	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/shared"
)

// toDomainError maps adapter errors onto the shared taxonomy, keeping the
// marketplace's own code and message.
func toDomainError(err error) *shared.DomainError {
	if err == nil {
		return nil
	}
	if de, ok := shared.AsDomainError(err); ok {
		return de
	}

	var ue *integration.UpstreamError
	hasDetail := errors.As(err, &ue)

	switch {
	case errors.Is(err, integration.ErrAuthFailed):
		de := shared.NewAuthError("Marketplace rejected credentials", err)
		if hasDetail {
			de.ProviderCode, de.ProviderMessage, de.HTTPStatus = ue.Code, ue.Message, ue.HTTPStatus
		}
		return de
	case errors.Is(err, integration.ErrUpstream):
		if hasDetail {
			return shared.NewUpstreamError(ue.HTTPStatus, ue.Code, ue.Message, err)
		}
		return shared.NewUpstreamError(0, "", err.Error(), err)
	case errors.Is(err, integration.ErrMalformedResponse):
		return shared.NewMalformedResponseError("Marketplace response malformed", err)
	case errors.Is(err, integration.ErrOrderNotFound):
		return shared.NewNotFoundError("marketplace order", "").WithCause(err)
	case errors.Is(err, integration.ErrSourceUnknown):
		return shared.NewValidationError(shared.FieldError{Field: "source", Message: err.Error()})
	case errors.Is(err, integration.ErrSourceNotConfigured):
		return shared.NewConfigError("source", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return shared.NewUpstreamError(0, "TIMEOUT", "marketplace request timed out", err)
	default:
		return shared.NewInternalError("Order reconciliation failed", err)
	}
}
