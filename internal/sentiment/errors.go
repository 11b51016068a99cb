package sentiment

import "errors"

var (
	// ErrInvalidInput is returned for input that is not analyzable text.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidMode is returned for an unknown analysis mode.
	ErrInvalidMode = errors.New("invalid analysis mode")
)
