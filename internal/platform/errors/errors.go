package apperrors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrCapability        = errors.New("operation not supported for this source")
	ErrUnsupportedSource = errors.New("unsupported tool source")
)
