package handler

import "errors"

var (
	// ErrNilResponse is returned when a handler produces a nil Response.
	ErrNilResponse = errors.New("handler returned nil response")
)
