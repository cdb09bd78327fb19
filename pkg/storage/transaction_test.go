package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingAccessor is a Batcher-satisfying fake used to prove that a
// failing batch write never falls back to touching the base store
// directly: Commit must route every mutation through the batch, so a
// Write failure leaves putCalls/deleteCalls at zero.
type recordingAccessor struct {
	putCalls, deleteCalls int
	failBatchWrite        bool
}

func (r *recordingAccessor) Put(Column, []byte, []byte) ([]byte, error) {
	r.putCalls++
	return nil, nil
}

func (r *recordingAccessor) Get(Column, []byte) ([]byte, error) { return nil, nil }

func (r *recordingAccessor) Delete(Column, []byte) ([]byte, error) {
	r.deleteCalls++
	return nil, nil
}

func (r *recordingAccessor) Exists(Column, []byte) (bool, error) { return false, nil }

func (r *recordingAccessor) Iter(Column, []byte, []byte, Direction) (Iterator, error) {
	return &sliceIterator{idx: -1}, nil
}

func (r *recordingAccessor) NewBatch() Batch {
	return &recordingBatch{owner: r, failWrite: r.failBatchWrite}
}

type recordingBatch struct {
	owner     *recordingAccessor
	failWrite bool
	closed    bool
}

func (b *recordingBatch) Set(Column, []byte, []byte) error    { return nil }
func (b *recordingBatch) Delete(Column, []byte) error         { return nil }
func (b *recordingBatch) Close() error                        { b.closed = true; return nil }
func (b *recordingBatch) Write() error {
	if b.failWrite {
		return errors.New("simulated batch write failure")
	}
	return nil
}

func TestCommitRoutesThroughBatchNotPerKeyWrites(t *testing.T) {
	base := &recordingAccessor{}
	tx := newTransaction(base)
	_, err := tx.Put(ColumnCoin, []byte("k"), []byte("v"))
	require.NoError(t, err)

	require.NoError(t, tx.Commit())

	require.Equal(t, 0, base.putCalls, "commit must apply staged writes via the batch, not Accessor.Put")
	require.Equal(t, 0, base.deleteCalls)
}

func TestCommitLeavesStoreUntouchedOnBatchWriteFailure(t *testing.T) {
	base := &recordingAccessor{failBatchWrite: true}
	tx := newTransaction(base)
	_, err := tx.Put(ColumnCoin, []byte("k"), []byte("v"))
	require.NoError(t, err)
	_, err = tx.Put(ColumnValidatorSet, []byte("other"), []byte("v2"))
	require.NoError(t, err)

	err = tx.Commit()
	require.Error(t, err)

	require.Equal(t, 0, base.putCalls, "a failed batch write must never have touched the base store")
	require.Equal(t, 0, base.deleteCalls)
}

// accessorOnly implements Accessor but deliberately not Batcher, to
// prove Commit refuses to fall back to per-key writes when the base
// store cannot provide an atomic batch.
type accessorOnly struct{}

func (accessorOnly) Put(Column, []byte, []byte) ([]byte, error)    { return nil, nil }
func (accessorOnly) Get(Column, []byte) ([]byte, error)            { return nil, nil }
func (accessorOnly) Delete(Column, []byte) ([]byte, error)         { return nil, nil }
func (accessorOnly) Exists(Column, []byte) (bool, error)           { return false, nil }
func (accessorOnly) Iter(Column, []byte, []byte, Direction) (Iterator, error) {
	return &sliceIterator{idx: -1}, nil
}

func TestCommitRejectsAccessorWithoutBatchSupport(t *testing.T) {
	tx := newTransaction(accessorOnly{})
	_, err := tx.Put(ColumnCoin, []byte("k"), []byte("v"))
	require.NoError(t, err)

	err = tx.Commit()
	require.Error(t, err)
}

func TestTransactionStagesUntilCommit(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Put(ColumnCoin, []byte("k"), []byte("base"))
	require.NoError(t, err)

	tx := s.NewTransaction()
	_, err = tx.Put(ColumnCoin, []byte("k"), []byte("staged"))
	require.NoError(t, err)

	v, err := tx.Get(ColumnCoin, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("staged"), v)

	// The base store is untouched until Commit.
	v, err = s.Get(ColumnCoin, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("base"), v)

	require.NoError(t, tx.Commit())

	v, err = s.Get(ColumnCoin, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("staged"), v)
}

func TestTransactionDiscard(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	tx := s.NewTransaction()
	_, err := tx.Put(ColumnCoin, []byte("k"), []byte("v"))
	require.NoError(t, err)
	tx.Discard()

	ok, err := s.Exists(ColumnCoin, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTransactionIterMergesStagedOverBase(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	for _, k := range []string{"a", "b", "c"} {
		_, err := s.Put(ColumnCoin, []byte(k), []byte(k))
		require.NoError(t, err)
	}

	tx := s.NewTransaction()
	_, err := tx.Put(ColumnCoin, []byte("aa"), []byte("aa"))
	require.NoError(t, err)
	_, err = tx.Delete(ColumnCoin, []byte("b"))
	require.NoError(t, err)

	it, err := tx.Iter(ColumnCoin, nil, nil, Forward)
	require.NoError(t, err)
	var got []string
	for it.Next() {
		got = append(got, string(it.Entry().Key))
	}
	it.Close()
	require.Equal(t, []string{"a", "aa", "c"}, got)

	// Still not visible through the base store.
	ok, err := s.Exists(ColumnCoin, []byte("aa"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, tx.Commit())

	ok, err = s.Exists(ColumnCoin, []byte("aa"))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Exists(ColumnCoin, []byte("b"))
	require.NoError(t, err)
	require.False(t, ok)
}
