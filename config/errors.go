package config

import "errors"

var (
	// ErrUnsupportedFormat indicates a config file extension viper cannot parse.
	ErrUnsupportedFormat = errors.New("config: unsupported file format")

	// ErrMissingEnv indicates the config file references an unset variable.
	ErrMissingEnv = errors.New("config: missing environment variables")

	// ErrMissingAddr indicates the server listen address is empty.
	ErrMissingAddr = errors.New("config: server address is required")

	// ErrNegative indicates a negative timeout or limit.
	ErrNegative = errors.New("config: timeouts and limits must not be negative")
)
