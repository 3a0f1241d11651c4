package contact

import "errors"

var (
	ErrMissingRequiredField = errors.New("missing required field")
	ErrValidationBlocked    = errors.New("submission blocked: correct the invalid rows first")
	ErrTransportFailure     = errors.New("transport failure")
	ErrPersistenceFailure   = errors.New("persistence failure")
	ErrNotFound             = errors.New("contact not found")
)
