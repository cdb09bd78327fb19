package storage

import (
	"fmt"
	"os"
	"path/filepath"

	dbm "github.com/cometbft/cometbft-db"
)

// DiskStore is a durable, on-disk Store backed by cometbft-db's goleveldb
// implementation. It must survive a process crash between any two
// Put/Delete calls — goleveldb's write-ahead log gives us that for free.
type DiskStore struct {
	*dbmStore
	dir string
}

// NewDiskStore opens (creating if absent) a durable store rooted at dir.
// name becomes the leveldb directory name under dir (conventionally the
// chain name).
func NewDiskStore(name, dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return &DiskStore{dbmStore: newDBMStore(db), dir: filepath.Join(dir, name+".db")}, nil
}

// Dropper releases a resource and also removes the directory backing it.
// An ephemeral on-disk store created for tests composes a DiskStore with
// a Dropper so closing the handle leaves no files behind.
type Dropper struct {
	store *DiskStore
}

// NewEphemeralDiskStore opens a throwaway on-disk store under a fresh
// temp directory and returns a Dropper whose Close both closes the
// leveldb handle and removes the directory tree.
func NewEphemeralDiskStore(namePrefix string) (*DiskStore, *Dropper, error) {
	dir, err := os.MkdirTemp("", namePrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	store, err := NewDiskStore("relayer", dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, nil, err
	}
	return store, &Dropper{store: store}, nil
}

// Close closes the underlying store handle and removes its backing
// directory tree. Safe to call once; the directory is best-effort
// removed even if Close of the handle fails.
func (d *Dropper) Close() error {
	closeErr := d.store.Close()
	rmErr := os.RemoveAll(filepath.Dir(d.store.dir))
	if closeErr != nil {
		return closeErr
	}
	if rmErr != nil {
		return fmt.Errorf("%w: %v", ErrBackend, rmErr)
	}
	return nil
}
