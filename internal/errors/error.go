package errors

import (
	"errors"
)

var (
	ErrEmptyAuth          = errors.New("missing authorization")
	ErrEmptySubject       = errors.New("missing subject")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrFailedHashToken    = errors.New("failed hashing token")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordMismatch   = errors.New("password mismatch")
	ErrEmailExist         = errors.New("email already exist")
	ErrProductNotFound    = errors.New("product not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCatalogUnavailable = errors.New("product catalog is unavailable")
	ErrTooManyRequests    = errors.New("too many requests")
)
