package services

import "errors"

// Sentinel errors handlers translate into HTTP statuses.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrNotLeafCategory    = errors.New("category is not a leaf")
)

// StatusError carries a caller-visible message for a rejected transition,
// e.g. an extension request against an ineligible status. The message is
// surfaced verbatim in the {"error": ...} response body.
type StatusError struct {
	Message string
}

func (e *StatusError) Error() string { return e.Message }
