package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeValueRoundTrip(t *testing.T) {
	raw := encodeValue([]byte("payload"))
	got, err := decodeValue(raw)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)
}

func TestDecodeValueRejectsUnknownVersion(t *testing.T) {
	_, err := decodeValue([]byte{0x7F, 'x'})
	require.ErrorIs(t, err, ErrCodec)
}

func TestDecodeValueRejectsEmpty(t *testing.T) {
	_, err := decodeValue(nil)
	require.ErrorIs(t, err, ErrCodec)
}

func TestHeightKeyRoundTripPreservesOrder(t *testing.T) {
	heights := []uint64{0, 1, 2, 255, 256, 1 << 40, ^uint64(0)}
	for _, h := range heights {
		require.Equal(t, h, DecodeHeightKey(EncodeHeightKey(h)))
	}
	for i := 1; i < len(heights); i++ {
		require.Less(t, string(EncodeHeightKey(heights[i-1])), string(EncodeHeightKey(heights[i])))
	}
}
