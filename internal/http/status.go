package http

import (
	"errors"
	"net/http"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

// StatusCodeFromError maps a service error to the HTTP status reported to the client.
func StatusCodeFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, inErrors.ErrEmptyAuth),
		errors.Is(err, inErrors.ErrEmptySubject),
		errors.Is(err, inErrors.ErrTokenInvalid),
		errors.Is(err, inErrors.ErrTokenRevoked),
		errors.Is(err, inErrors.ErrUserNotFound),
		errors.Is(err, inErrors.ErrPasswordMismatch):
		return http.StatusUnauthorized
	case errors.Is(err, inErrors.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrEmailExist):
		return http.StatusConflict
	case errors.Is(err, inErrors.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, inErrors.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
