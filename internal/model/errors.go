package model

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthenticated  = errors.New("authentication required")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrVersionConflict  = errors.New("document has been modified by another request")
	ErrUserNotFound     = errors.New("user not found")
	ErrCartLineNotFound = errors.New("item not found in cart")
	ErrOrderNotFound    = errors.New("order not found")
	ErrProductNotFound  = errors.New("product not found")
)
