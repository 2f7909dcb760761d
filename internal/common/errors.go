// Package common defines shared constants and sentinel errors used across
// the candidates service layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound        = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrUsernameExhausted = errors.New("no free username left")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Assembly errors: a required collaborator or setting is missing.
	ErrConfiguration = errors.New("configuration error")

	// Validation errors attached to forms.
	ErrDuplicateApplication = errors.New("an application with these details already exists for this round, please log in")

	// Auth errors (invalid or malformed session token).
	ErrInvalidToken = errors.New("invalid token")

	// Outbound mail could not be delivered.
	ErrMailDelivery = errors.New("mail delivery failed")
)
