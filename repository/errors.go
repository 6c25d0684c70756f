package repository

import "errors"

// Sentinel errors for repository operations.
var (
	// ErrNotFound is returned when no row has the requested ID.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict is returned when creating a row whose ID already exists.
	ErrConflict = errors.New("repository: row already exists")

	// ErrInvalidID is returned for an empty ID or an ID mismatch on update.
	ErrInvalidID = errors.New("repository: invalid id")

	// ErrNilStore is returned when a nil store is supplied.
	ErrNilStore = errors.New("repository: store is nil")

	// ErrNilCache is returned when a nil cache is supplied.
	ErrNilCache = errors.New("repository: cache is nil")

	// ErrInvalidNamespace is returned for an empty namespace.
	ErrInvalidNamespace = errors.New("repository: namespace is required")
)
