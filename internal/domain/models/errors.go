// internal/domain/models/errors.go
package models

import "errors"

// Domain errors shared by stores, services, and handlers. Callers match them
// with errors.Is; stores wrap driver failures in ErrPersistence.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid application transition")
	ErrUnauthorized      = errors.New("not permitted")
	ErrPersistence       = errors.New("persistence failure")
	ErrInvalidInput      = errors.New("invalid input")
)
