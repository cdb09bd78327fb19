package storage

import (
	"errors"
	"fmt"
)

// Chain wraps a Store and its typed facade, enforcing the schema-version
// guards from §6: uninitialized stores refuse typed access until Init is
// called, and a persisted version that disagrees with DatabaseVersion is
// rejected outright.
type Chain struct {
	Store
	Tables *Database
}

// Open wraps an already-constructed Store, checking its persisted schema
// version. It does not initialize a fresh store — call Init for that.
func Open(store Store) (*Chain, error) {
	version, found, err := (Metadata{}).GetVersion(store)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrChainUninitialized
	}
	if version != DatabaseVersion {
		return nil, fmt.Errorf("%w: persisted %d, compiled %d", ErrInvalidDatabaseVersion, version, DatabaseVersion)
	}
	return &Chain{Store: store, Tables: NewDatabase()}, nil
}

// Init stamps a fresh store with the compiled schema version and chain
// name. Calling Init on an already-initialized store fails with
// ErrChainAlreadyInitialized.
func Init(store Store, chainName string) (*Chain, error) {
	_, found, err := (Metadata{}).GetVersion(store)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, ErrChainAlreadyInitialized
	}
	if err := (Metadata{}).SetVersion(store, DatabaseVersion); err != nil {
		return nil, err
	}
	if err := (Metadata{}).SetChainName(store, chainName); err != nil {
		return nil, err
	}
	return &Chain{Store: store, Tables: NewDatabase()}, nil
}

// OpenOrInit opens an existing chain store, initializing it first if it
// has never been stamped with a schema version. Convenient for tests and
// the cmd/relayer bootstrap, where "first run" and "resumed run" share a
// code path.
func OpenOrInit(store Store, chainName string) (*Chain, error) {
	chain, err := Open(store)
	if err == nil {
		return chain, nil
	}
	if errors.Is(err, ErrChainUninitialized) {
		return Init(store, chainName)
	}
	return nil, err
}
