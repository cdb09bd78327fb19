package storage

import "fmt"

// valueCodecVersion is bumped whenever the on-disk encoding of a typed
// value changes incompatibly. It is distinct from the chain-wide
// METADATA database version (§6): this one versions individual value
// payloads, that one versions the whole schema layout.
const valueCodecVersion byte = 0

// encodeValue prepends the codec version to an already-marshaled
// payload, so a future format change can be detected on read instead of
// silently misinterpreted.
func encodeValue(payload []byte) []byte {
	out := make([]byte, 1+len(payload))
	out[0] = valueCodecVersion
	copy(out[1:], payload)
	return out
}

// decodeValue strips and validates the codec version, handing back the
// raw payload for the caller's type-specific unmarshaler.
func decodeValue(raw []byte) ([]byte, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("%w: empty value", ErrCodec)
	}
	if raw[0] != valueCodecVersion {
		return nil, fmt.Errorf("%w: unsupported value codec version %d", ErrCodec, raw[0])
	}
	return raw[1:], nil
}

// BinaryValue is implemented by every type stored through the typed
// facade (tables.go). It keeps the wire format explicit and independent
// of Go's reflection-based encoders, matching the requirement that
// decoding failures be reported uniformly as ErrCodec.
type BinaryValue interface {
	MarshalBinary() ([]byte, error)
}

// UnmarshalFunc decodes a payload (post codec-version-stripping) into a
// fresh value of type V.
type UnmarshalFunc[V any] func([]byte) (V, error)
