package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	return NewMemoryStore()
}

func TestStorePutGetDelete(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	prev, err := s.Put(ColumnCoin, []byte("k1"), []byte("v1"))
	require.NoError(t, err)
	require.Nil(t, prev)

	v, err := s.Get(ColumnCoin, []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	prev, err = s.Put(ColumnCoin, []byte("k1"), []byte("v2"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), prev)

	ok, err := s.Exists(ColumnCoin, []byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)

	prev, err = s.Delete(ColumnCoin, []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), prev)

	ok, err = s.Exists(ColumnCoin, []byte("k1"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreIterForwardAndReverse(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	keys := []string{"a", "b", "c", "d"}
	for _, k := range keys {
		_, err := s.Put(ColumnCoin, []byte(k), []byte("v-"+k))
		require.NoError(t, err)
	}
	// A key in a different column must never leak into the iteration.
	_, err := s.Put(ColumnBlocks, []byte("zzz"), []byte("other-column"))
	require.NoError(t, err)

	it, err := s.Iter(ColumnCoin, nil, nil, Forward)
	require.NoError(t, err)
	var got []string
	for it.Next() {
		got = append(got, string(it.Entry().Key))
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())
	require.Equal(t, []string{"a", "b", "c", "d"}, got)

	it, err = s.Iter(ColumnCoin, nil, nil, Reverse)
	require.NoError(t, err)
	got = nil
	for it.Next() {
		got = append(got, string(it.Entry().Key))
	}
	require.NoError(t, it.Close())
	require.Equal(t, []string{"d", "c", "b", "a"}, got)
}

func TestStoreIterStartAndPrefix(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	for _, k := range []string{"aa", "ab", "ba", "bb"} {
		_, err := s.Put(ColumnCoin, []byte(k), []byte(k))
		require.NoError(t, err)
	}

	it, err := s.Iter(ColumnCoin, []byte("a"), nil, Forward)
	require.NoError(t, err)
	var got []string
	for it.Next() {
		got = append(got, string(it.Entry().Key))
	}
	it.Close()
	require.Equal(t, []string{"aa", "ab"}, got)

	it, err = s.Iter(ColumnCoin, nil, []byte("ab"), Forward)
	require.NoError(t, err)
	got = nil
	for it.Next() {
		got = append(got, string(it.Entry().Key))
	}
	it.Close()
	require.Equal(t, []string{"ab", "ba", "bb"}, got)

	it, err = s.Iter(ColumnCoin, nil, []byte("ab"), Reverse)
	require.NoError(t, err)
	got = nil
	for it.Next() {
		got = append(got, string(it.Entry().Key))
	}
	it.Close()
	require.Equal(t, []string{"ab", "aa"}, got)
}

func TestPrefixUpperBound(t *testing.T) {
	require.Equal(t, []byte{0x01, 0x01}, prefixUpperBound([]byte{0x01, 0x00}))
	require.Nil(t, prefixUpperBound([]byte{0xFF, 0xFF}))
	require.Nil(t, prefixUpperBound(nil))
}
