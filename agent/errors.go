package agent

import "errors"

var (
	// ErrContextNil is returned when an operation is invoked with a nil context.
	ErrContextNil = errors.New("context is nil")
	// ErrInvalidArgument covers config validation and other invalid-argument cases.
	ErrInvalidArgument = errors.New("invalid argument")
)
