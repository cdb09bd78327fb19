package storage

import (
	"bytes"
	"fmt"
	"sort"
)

type stagedValue struct {
	value   []byte
	deleted bool
}

// Transaction is a scoped write-batch over a Store. All mutations are
// buffered in a staging layer; reads consult the staging layer first,
// then fall through to the underlying store. Nothing is visible to other
// readers of the underlying store until Commit succeeds. Dropping a
// Transaction without calling Commit discards every buffered mutation —
// there is no implicit commit.
type Transaction struct {
	base    Accessor
	staging map[Column]map[string]*stagedValue
}

func newTransaction(base Accessor) *Transaction {
	return &Transaction{
		base:    base,
		staging: make(map[Column]map[string]*stagedValue),
	}
}

func (t *Transaction) colStage(col Column) map[string]*stagedValue {
	m, ok := t.staging[col]
	if !ok {
		m = make(map[string]*stagedValue)
		t.staging[col] = m
	}
	return m
}

// Put stages a write, returning whatever value a subsequent Get would
// have returned beforehand (staged value if present, else the
// underlying store's value).
func (t *Transaction) Put(col Column, key, value []byte) ([]byte, error) {
	prev, err := t.Get(col, key)
	if err != nil {
		return nil, err
	}
	t.colStage(col)[string(key)] = &stagedValue{value: append([]byte{}, value...)}
	return prev, nil
}

// Get reads the staging layer first, then the underlying store.
func (t *Transaction) Get(col Column, key []byte) ([]byte, error) {
	if m, ok := t.staging[col]; ok {
		if sv, ok := m[string(key)]; ok {
			if sv.deleted {
				return nil, nil
			}
			return sv.value, nil
		}
	}
	return t.base.Get(col, key)
}

// Delete stages a deletion.
func (t *Transaction) Delete(col Column, key []byte) ([]byte, error) {
	prev, err := t.Get(col, key)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, nil
	}
	t.colStage(col)[string(key)] = &stagedValue{deleted: true}
	return prev, nil
}

// Exists checks the staging layer first, then the underlying store.
func (t *Transaction) Exists(col Column, key []byte) (bool, error) {
	if m, ok := t.staging[col]; ok {
		if sv, ok := m[string(key)]; ok {
			return !sv.deleted, nil
		}
	}
	return t.base.Exists(col, key)
}

// Iter merges the staging layer over the underlying store's iteration
// for the requested column/prefix/start/direction. Deletions staged in
// this transaction are hidden; staged writes shadow the base value at
// the same key; keys created purely in the staging layer are spliced
// in at the correct sorted position.
func (t *Transaction) Iter(col Column, prefix, start []byte, dir Direction) (Iterator, error) {
	baseIt, err := t.base.Iter(col, prefix, start, dir)
	if err != nil {
		return nil, err
	}

	var merged []Entry
	for baseIt.Next() {
		merged = append(merged, baseIt.Entry())
	}
	if err := baseIt.Err(); err != nil {
		baseIt.Close()
		return nil, err
	}
	baseIt.Close()

	byKey := make(map[string]Entry, len(merged))
	for _, e := range merged {
		byKey[string(e.Key)] = e
	}
	if m, ok := t.staging[col]; ok {
		for k, sv := range m {
			if !hasPrefix(k, prefix) || !afterStart(k, start, dir) {
				continue
			}
			if sv.deleted {
				delete(byKey, k)
				continue
			}
			byKey[k] = Entry{Key: []byte(k), Value: sv.value}
		}
	}

	out := make([]Entry, 0, len(byKey))
	for _, e := range byKey {
		out = append(out, e)
	}
	if dir == Forward {
		sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].Key, out[j].Key) < 0 })
	} else {
		sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].Key, out[j].Key) > 0 })
	}
	return &sliceIterator{entries: out, idx: -1}, nil
}

func hasPrefix(key string, prefix []byte) bool {
	if len(prefix) == 0 {
		return true
	}
	return bytes.HasPrefix([]byte(key), prefix)
}

func afterStart(key string, start []byte, dir Direction) bool {
	if start == nil {
		return true
	}
	cmp := bytes.Compare([]byte(key), start)
	if dir == Forward {
		return cmp >= 0
	}
	return cmp <= 0
}

type sliceIterator struct {
	entries []Entry
	idx     int
}

func (s *sliceIterator) Next() bool {
	s.idx++
	return s.idx < len(s.entries)
}

func (s *sliceIterator) Entry() Entry { return s.entries[s.idx] }
func (s *sliceIterator) Err() error   { return nil }
func (s *sliceIterator) Close() error { return nil }

// Commit applies every buffered mutation to the underlying store as a
// single atomic write: either all of it lands or none of it does. On
// failure the underlying store is left unchanged and Commit does not
// retry; what happens next is up to the caller.
func (t *Transaction) Commit() error {
	batcher, ok := t.base.(Batcher)
	if !ok {
		return fmt.Errorf("commit: %T does not support atomic batches", t.base)
	}
	batch := batcher.NewBatch()
	defer batch.Close()

	cols := make([]Column, 0, len(t.staging))
	for col := range t.staging {
		cols = append(cols, col)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })

	for _, col := range cols {
		keys := make([]string, 0, len(t.staging[col]))
		for k := range t.staging[col] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sv := t.staging[col][k]
			if sv.deleted {
				if err := batch.Delete(col, []byte(k)); err != nil {
					return fmt.Errorf("commit: %w", err)
				}
				continue
			}
			if err := batch.Set(col, []byte(k), sv.value); err != nil {
				return fmt.Errorf("commit: %w", err)
			}
		}
	}

	if err := batch.Write(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	t.staging = make(map[Column]map[string]*stagedValue)
	return nil
}

// Discard drops every buffered mutation without applying it. Letting a
// Transaction go out of scope without calling Commit has the same
// effect; Discard exists for callers that want to make the early-exit
// explicit.
func (t *Transaction) Discard() {
	t.staging = make(map[Column]map[string]*stagedValue)
}
