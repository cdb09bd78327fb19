package storage

import "fmt"

// Map is a typed mapping over one column, composing a key encoder/decoder
// with a value codec. It is the generic building block the facade in
// tables.go specializes per entity in the data model.
type Map[K any, V any] struct {
	column    Column
	encodeKey func(K) []byte
	decodeKey func([]byte) (K, error)
	marshal   func(V) ([]byte, error)
	unmarshal func([]byte) (V, error)
}

func newMap[K any, V any](
	col Column,
	encodeKey func(K) []byte,
	decodeKey func([]byte) (K, error),
	marshal func(V) ([]byte, error),
	unmarshal func([]byte) (V, error),
) Map[K, V] {
	return Map[K, V]{
		column:    col,
		encodeKey: encodeKey,
		decodeKey: decodeKey,
		marshal:   marshal,
		unmarshal: unmarshal,
	}
}

// Insert writes k→v, returning the previous value if one existed.
func (m Map[K, V]) Insert(acc Accessor, k K, v V) (prev V, existed bool, err error) {
	payload, err := m.marshal(v)
	if err != nil {
		return prev, false, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	prevRaw, err := acc.Put(m.column, m.encodeKey(k), encodeValue(payload))
	if err != nil {
		return prev, false, err
	}
	if prevRaw == nil {
		return prev, false, nil
	}
	prev, err = m.decode(prevRaw)
	if err != nil {
		return prev, false, err
	}
	return prev, true, nil
}

// Get reads the value for k.
func (m Map[K, V]) Get(acc Accessor, k K) (v V, found bool, err error) {
	raw, err := acc.Get(m.column, m.encodeKey(k))
	if err != nil {
		return v, false, err
	}
	if raw == nil {
		return v, false, nil
	}
	v, err = m.decode(raw)
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}

// Remove deletes k, returning the previous value if one existed.
func (m Map[K, V]) Remove(acc Accessor, k K) (prev V, existed bool, err error) {
	raw, err := acc.Delete(m.column, m.encodeKey(k))
	if err != nil {
		return prev, false, err
	}
	if raw == nil {
		return prev, false, nil
	}
	prev, err = m.decode(raw)
	if err != nil {
		return prev, false, err
	}
	return prev, true, nil
}

// ContainsKey reports whether k is present.
func (m Map[K, V]) ContainsKey(acc Accessor, k K) (bool, error) {
	return acc.Exists(m.column, m.encodeKey(k))
}

func (m Map[K, V]) decode(raw []byte) (V, error) {
	var v V
	payload, err := decodeValue(raw)
	if err != nil {
		return v, err
	}
	v, err = m.unmarshal(payload)
	if err != nil {
		return v, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return v, nil
}

// MapEntry is a single decoded key/value pair from a Map iteration.
type MapEntry[K any, V any] struct {
	Key   K
	Value V
}

// Iter walks the mapping in key order, decoding each entry. prefix/start
// are raw encoded-key bytes (callers building prefix iteration over a
// composite key pass the encoded leading component).
func (m Map[K, V]) Iter(acc Accessor, prefix, start []byte, dir Direction) ([]MapEntry[K, V], error) {
	it, err := acc.Iter(m.column, prefix, start, dir)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []MapEntry[K, V]
	for it.Next() {
		e := it.Entry()
		k, err := m.decodeKey(e.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCodec, err)
		}
		v, err := m.decode(e.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, MapEntry[K, V]{Key: k, Value: v})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
