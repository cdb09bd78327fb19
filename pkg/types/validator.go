package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// ValidatorDiff is the post-state (per-address absolute stake) observed
// at one DA-height. It is absolute, not delta: applying it to a
// projection replaces each listed address's stake outright, including
// an explicit stake of zero (treated as "present with zero stake", not
// as removal — see DESIGN.md's resolution of the absolute-vs-delta open
// question).
type ValidatorDiff map[Address]uint64

// Clone returns an independent copy.
func (d ValidatorDiff) Clone() ValidatorDiff {
	out := make(ValidatorDiff, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge applies last-writer-wins semantics for every address in other,
// overwriting this diff's current value for that address.
func (d ValidatorDiff) Merge(other ValidatorDiff) {
	for addr, stake := range other {
		d[addr] = stake
	}
}

// sortedAddresses returns the diff's addresses in ascending byte order,
// used by MarshalBinary for a deterministic encoding.
func (d ValidatorDiff) sortedAddresses() []Address {
	out := make([]Address, 0, len(d))
	for a := range d {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// MarshalBinary encodes the diff as a count followed by
// address‖stake pairs in ascending address order.
func (d ValidatorDiff) MarshalBinary() ([]byte, error) {
	addrs := d.sortedAddresses()
	out := make([]byte, 4, 4+len(addrs)*40)
	binary.BigEndian.PutUint32(out, uint32(len(addrs)))
	for _, a := range addrs {
		out = append(out, a[:]...)
		var stake [8]byte
		binary.BigEndian.PutUint64(stake[:], d[a])
		out = append(out, stake[:]...)
	}
	return out, nil
}

// UnmarshalValidatorDiff is the inverse of MarshalBinary.
func UnmarshalValidatorDiff(b []byte) (ValidatorDiff, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("validator diff: truncated count")
	}
	n := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	if uint64(len(b)) != uint64(n)*40 {
		return nil, fmt.Errorf("validator diff: expected %d entries, got %d bytes", n, len(b))
	}
	out := make(ValidatorDiff, n)
	for i := uint32(0); i < n; i++ {
		off := i * 40
		var addr Address
		copy(addr[:], b[off:off+32])
		stake := binary.BigEndian.Uint64(b[off+32 : off+40])
		out[addr] = stake
	}
	return out, nil
}
