package storage

import "encoding/binary"

// EncodeHeightKey big-endian encodes a DA/fuel height so lexicographic
// key order matches numeric order — load-bearing for validator-diff
// replay (spec invariant 6).
func EncodeHeightKey(height uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, height)
	return b
}

// DecodeHeightKey is the inverse of EncodeHeightKey.
func DecodeHeightKey(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// EncodeHeight32Key big-endian encodes a 32-bit height (used for
// BLOCK_IDS, per spec).
func EncodeHeight32Key(height uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, height)
	return b
}

// DecodeHeight32Key is the inverse of EncodeHeight32Key.
func DecodeHeight32Key(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// ConcatKey encodes a composite key as the concatenation of its parts in
// declared order, so prefix-iteration by a leading component works.
func ConcatKey(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
