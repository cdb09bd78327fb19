package storage

import (
	"fmt"

	dbm "github.com/cometbft/cometbft-db"
)

// dbmStore adapts a cometbft-db backend (memdb or goleveldb) to the
// Store contract. Both MemoryStore and DiskStore are thin constructors
// around it; the range-computation and error-wrapping logic is shared.
type dbmStore struct {
	db dbm.DB
}

func newDBMStore(db dbm.DB) *dbmStore {
	return &dbmStore{db: db}
}

func (s *dbmStore) Put(col Column, key, value []byte) ([]byte, error) {
	prev, err := s.Get(col, key)
	if err != nil {
		return nil, err
	}
	if err := s.db.Set(namespacedKey(col, key), value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return prev, nil
}

func (s *dbmStore) Get(col Column, key []byte) ([]byte, error) {
	v, err := s.db.Get(namespacedKey(col, key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return v, nil
}

func (s *dbmStore) Delete(col Column, key []byte) ([]byte, error) {
	prev, err := s.Get(col, key)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, nil
	}
	if err := s.db.Delete(namespacedKey(col, key)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return prev, nil
}

func (s *dbmStore) Exists(col Column, key []byte) (bool, error) {
	ok, err := s.db.Has(namespacedKey(col, key))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return ok, nil
}

func (s *dbmStore) Iter(col Column, prefix, start []byte, dir Direction) (Iterator, error) {
	colPrefix := []byte{byte(col)}
	basePrefix := append(append([]byte{}, colPrefix...), prefix...)

	switch dir {
	case Forward:
		lower := basePrefix
		if start != nil {
			lower = append(append([]byte{}, colPrefix...), start...)
		}
		upper := prefixUpperBound(basePrefix)
		it, err := s.db.Iterator(lower, upper)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackend, err)
		}
		return &dbmIterator{it: it, colLen: 1}, nil
	case Reverse:
		lower := basePrefix
		var upper []byte
		if start != nil {
			upper = immediateSuccessor(append(append([]byte{}, colPrefix...), start...))
		} else {
			upper = prefixUpperBound(basePrefix)
		}
		it, err := s.db.ReverseIterator(lower, upper)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackend, err)
		}
		return &dbmIterator{it: it, colLen: 1}, nil
	default:
		return nil, fmt.Errorf("%w: unknown iteration direction", ErrBackend)
	}
}

func (s *dbmStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *dbmStore) NewTransaction() *Transaction {
	return newTransaction(s)
}

func (s *dbmStore) NewBatch() Batch {
	return &dbmBatch{batch: s.db.NewBatch()}
}

// dbmBatch wraps a cometbft-db Batch so every staged mutation lands in
// the same underlying write batch; Write applies them atomically.
type dbmBatch struct {
	batch dbm.Batch
}

func (b *dbmBatch) Set(col Column, key, value []byte) error {
	if err := b.batch.Set(namespacedKey(col, key), value); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (b *dbmBatch) Delete(col Column, key []byte) error {
	if err := b.batch.Delete(namespacedKey(col, key)); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (b *dbmBatch) Write() error {
	if err := b.batch.WriteSync(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (b *dbmBatch) Close() error {
	return b.batch.Close()
}

type dbmIterator struct {
	it      dbm.Iterator
	colLen  int
	started bool
}

func (i *dbmIterator) Next() bool {
	if i.started {
		i.it.Next()
	} else {
		i.started = true
	}
	return i.it.Valid()
}

func (i *dbmIterator) Entry() Entry {
	key := i.it.Key()
	val := i.it.Value()
	k := make([]byte, len(key)-i.colLen)
	copy(k, key[i.colLen:])
	v := make([]byte, len(val))
	copy(v, val)
	return Entry{Key: k, Value: v}
}

func (i *dbmIterator) Err() error {
	if err := i.it.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (i *dbmIterator) Close() error {
	return i.it.Close()
}
