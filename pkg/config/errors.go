package config

import "errors"

var (
	// ErrParsingConfig wraps every failure reported by the env parser.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrNilPointer is returned when Load receives a nil pointer.
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)
