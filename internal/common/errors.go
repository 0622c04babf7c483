// Package common defines shared constants and sentinel errors used across
// notevault layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors, recovered by reprompting.
	ErrorInvalidInput = errors.New("invalid input")
	ErrorEmptyKeyword = errors.New("empty keyword")

	// Uniqueness violations, user-correctable.
	ErrorAlreadyExists    = errors.New("already exists")
	ErrorDuplicateKeyword = errors.New("duplicate keyword")

	// Service-level errors.
	ErrorInternal             = errors.New("internal error")
	ErrorUnauthorized         = errors.New("unauthorized")
	ErrorUnauthenticated      = errors.New("unauthenticated")
	ErrorConfirmationMismatch = errors.New("confirmation does not match")

	// Media errors.
	ErrorMediaTransfer = errors.New("media transfer failure")
)
