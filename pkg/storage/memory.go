package storage

import dbm "github.com/cometbft/cometbft-db"

// MemoryStore is an ephemeral, process-local Store. It is interchangeable
// with DiskStore everywhere the Store contract is used, since both wrap
// the same dbmStore adapter. The package's tests run against
// MemoryStore only.
type MemoryStore struct {
	*dbmStore
}

// NewMemoryStore returns a fresh in-memory store backed by cometbft-db's
// MemDB.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{dbmStore: newDBMStore(dbm.NewMemDB())}
}
