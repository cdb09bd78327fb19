package storage

import "errors"

// Sentinel errors for storage operations. Callers should compare with
// errors.Is; wrapped occurrences carry the underlying cause via %w.
var (
	// ErrCodec is returned when persisted bytes fail to deserialize.
	ErrCodec = errors.New("storage: value failed to decode")

	// ErrBackend is returned for underlying store I/O failures.
	ErrBackend = errors.New("storage: backend I/O failure")

	// ErrNotFound is returned when an expected key is absent.
	ErrNotFound = errors.New("storage: key not found")

	// ErrChainAlreadyInitialized guards against double Init.
	ErrChainAlreadyInitialized = errors.New("storage: chain already initialized")

	// ErrChainUninitialized is returned when the store has never been
	// initialized with a schema version.
	ErrChainUninitialized = errors.New("storage: chain not yet initialized")

	// ErrInvalidDatabaseVersion is returned when the persisted schema
	// version does not match the compiled-in version.
	ErrInvalidDatabaseVersion = errors.New("storage: invalid database version")
)
