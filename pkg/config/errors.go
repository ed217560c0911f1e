package config

import "errors"

var (
	// ErrNilPointer is returned when Load receives a nil destination.
	ErrNilPointer = errors.New("config: destination must be a non-nil pointer")

	// ErrParse wraps failures parsing environment variables into the struct.
	ErrParse = errors.New("config: failed to parse environment")

	// ErrEnvFileLoad wraps failures reading an explicitly requested .env file.
	ErrEnvFileLoad = errors.New("config: failed to load env file")
)
