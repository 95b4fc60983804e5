package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")
	// ErrCartMissing indicates a cart payload was absent from an otherwise successful response.
	ErrCartMissing = errors.New("cart missing from response")
	// ErrInvalidInput indicates a request was rejected before any network call.
	ErrInvalidInput = errors.New("invalid input")
)
