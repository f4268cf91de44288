package services

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("unable to login")
	ErrUnauthenticated    = errors.New("please authenticate")
	ErrForbiddenField     = errors.New("invalid updates")
	ErrNotFound           = errors.New("not found")
	ErrInternal           = errors.New("internal error")
)
