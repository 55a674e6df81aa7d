package billing

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/moneylens/handler"
	"github.com/dmitrymomot/moneylens/pkg/entitlement"
)

var (
	ErrUnknownProvider        = handler.NewHTTPError(http.StatusNotFound, "unknown_provider")
	ErrReturnRedirectDisabled = handler.NewHTTPError(http.StatusForbidden, "return_redirect_disabled")
	ErrPayloadTooLarge        = handler.NewHTTPError(http.StatusRequestEntityTooLarge, "payload_too_large")
)

// httpError classifies entitlement errors for the JSON error envelope.
// The original error stays in the chain for logging.
func httpError(err error) error {
	switch {
	case errors.Is(err, entitlement.ErrMissingUserID),
		errors.Is(err, entitlement.ErrInvalidReturnPayload):
		return errors.Join(handler.ErrBadRequest, err)
	case errors.Is(err, entitlement.ErrPlanNotFound):
		return errors.Join(handler.ErrNotFound, err)
	case errors.Is(err, entitlement.ErrReturnRedirectOff):
		return errors.Join(ErrReturnRedirectDisabled, err)
	case errors.Is(err, entitlement.ErrProviderError):
		return errors.Join(handler.ErrBadGateway, err)
	case errors.Is(err, entitlement.ErrStoreFailure):
		return errors.Join(handler.ErrServiceUnavailable, err)
	default:
		return err
	}
}
