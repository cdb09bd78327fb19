// Package types defines the domain value types the storage facade and
// relayer exchange: fuel-side identifiers and records, and the
// DA-height validator-diff/deposit entities the relayer projects into
// them.
package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Address is a 32-byte fuel-side account identifier. Validator stake and
// deposit ownership are both keyed by Address.
type Address [32]byte

func (a Address) Bytes() []byte { return a[:] }
func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

// AssetId identifies a fungible asset on the fuel chain.
type AssetId [32]byte

func (a AssetId) Bytes() []byte { return a[:] }

// ContractId identifies a deployed fuel contract.
type ContractId [32]byte

func (c ContractId) Bytes() []byte { return c[:] }

// TxId identifies a fuel transaction.
type TxId [32]byte

func (t TxId) Bytes() []byte { return t[:] }

// BlockId identifies a fuel block.
type BlockId [32]byte

func (b BlockId) Bytes() []byte { return b[:] }

// EventId identifies a DA-chain bridge event (e.g. a token deposit log)
// by its 32-byte log identifier.
type EventId [32]byte

func (e EventId) Bytes() []byte { return e[:] }

// UtxoId is a composite identifier: the owning transaction plus the
// output index within it.
type UtxoId struct {
	TxID        TxId
	OutputIndex uint8
}

// Bytes encodes UtxoId as TxID‖OutputIndex (33 bytes), matching the
// composite-key concatenation rule in the storage facade.
func (u UtxoId) Bytes() []byte {
	out := make([]byte, 33)
	copy(out[:32], u.TxID[:])
	out[32] = u.OutputIndex
	return out
}

// ParseUtxoId is the inverse of UtxoId.Bytes.
func ParseUtxoId(b []byte) (UtxoId, error) {
	if len(b) != 33 {
		return UtxoId{}, fmt.Errorf("utxo id: expected 33 bytes, got %d", len(b))
	}
	var u UtxoId
	copy(u.TxID[:], b[:32])
	u.OutputIndex = b[32]
	return u, nil
}

// Coin is a spendable fuel-chain UTXO tracked by the node.
type Coin struct {
	Owner    Address
	Amount   uint64
	AssetID  AssetId
	DaHeight uint64
}

func (c Coin) MarshalBinary() ([]byte, error) {
	out := make([]byte, 32+8+32+8)
	copy(out[0:32], c.Owner[:])
	binary.BigEndian.PutUint64(out[32:40], c.Amount)
	copy(out[40:72], c.AssetID[:])
	binary.BigEndian.PutUint64(out[72:80], c.DaHeight)
	return out, nil
}

func UnmarshalCoin(b []byte) (Coin, error) {
	if len(b) != 80 {
		return Coin{}, fmt.Errorf("coin: expected 80 bytes, got %d", len(b))
	}
	var c Coin
	copy(c.Owner[:], b[0:32])
	c.Amount = binary.BigEndian.Uint64(b[32:40])
	copy(c.AssetID[:], b[40:72])
	c.DaHeight = binary.BigEndian.Uint64(b[72:80])
	return c, nil
}

// DepositCoin is a cross-chain deposit observed on the DA chain, keyed
// by its 32-byte event identifier once committed.
type DepositCoin struct {
	ID       EventId
	Owner    Address
	Amount   uint64
	AssetID  AssetId
	DaHeight uint64
}

func (d DepositCoin) MarshalBinary() ([]byte, error) {
	out := make([]byte, 32+8+32+8)
	copy(out[0:32], d.Owner[:])
	binary.BigEndian.PutUint64(out[32:40], d.Amount)
	copy(out[40:72], d.AssetID[:])
	binary.BigEndian.PutUint64(out[72:80], d.DaHeight)
	return out, nil
}

func UnmarshalDepositCoin(id EventId, b []byte) (DepositCoin, error) {
	if len(b) != 80 {
		return DepositCoin{}, fmt.Errorf("deposit coin: expected 80 bytes, got %d", len(b))
	}
	d := DepositCoin{ID: id}
	copy(d.Owner[:], b[0:32])
	d.Amount = binary.BigEndian.Uint64(b[32:40])
	copy(d.AssetID[:], b[40:72])
	d.DaHeight = binary.BigEndian.Uint64(b[72:80])
	return d, nil
}

// Tx is an opaque, already-serialized fuel transaction record. The
// relayer never interprets transaction semantics (out of scope); the
// typed facade carries it only so §4.3's table is complete for the rest
// of the node.
type Tx struct {
	Raw []byte
}

func (t Tx) MarshalBinary() ([]byte, error) { return append([]byte{}, t.Raw...), nil }

func UnmarshalTx(b []byte) (Tx, error) { return Tx{Raw: append([]byte{}, b...)}, nil }

// Block is an opaque, already-serialized fuel block record (see Tx).
type Block struct {
	Raw []byte
}

func (b Block) MarshalBinary() ([]byte, error) { return append([]byte{}, b.Raw...), nil }

func UnmarshalBlock(b []byte) (Block, error) { return Block{Raw: append([]byte{}, b...)}, nil }

// BalanceKey is the composite BALANCES key: ContractId ‖ AssetId.
type BalanceKey struct {
	Contract ContractId
	Asset    AssetId
}

func (k BalanceKey) Bytes() []byte {
	return ConcatKey(k.Contract[:], k.Asset[:])
}

// ConcatKey concatenates key parts in declared order, matching the
// storage facade's composite-key rule.
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

// ParseBalanceKey is the inverse of BalanceKey.Bytes.
func ParseBalanceKey(b []byte) (BalanceKey, error) {
	if len(b) != 64 {
		return BalanceKey{}, fmt.Errorf("balance key: expected 64 bytes, got %d", len(b))
	}
	var k BalanceKey
	copy(k.Contract[:], b[:32])
	copy(k.Asset[:], b[32:])
	return k, nil
}

// OwnedCoinKey is the composite OWNED_COINS key: Address ‖ UtxoId.
type OwnedCoinKey struct {
	Owner Address
	Utxo  UtxoId
}

func (k OwnedCoinKey) Bytes() []byte {
	return ConcatKey(k.Owner[:], k.Utxo.Bytes())
}

// ParseOwnedCoinKey is the inverse of OwnedCoinKey.Bytes.
func ParseOwnedCoinKey(b []byte) (OwnedCoinKey, error) {
	if len(b) != 65 {
		return OwnedCoinKey{}, fmt.Errorf("owned coin key: expected 65 bytes, got %d", len(b))
	}
	var k OwnedCoinKey
	copy(k.Owner[:], b[:32])
	utxo, err := ParseUtxoId(b[32:])
	if err != nil {
		return OwnedCoinKey{}, err
	}
	k.Utxo = utxo
	return k, nil
}

// Exists is the unit value stored for existence-only indexes (OWNED_COINS).
type Exists struct{}

func (Exists) MarshalBinary() ([]byte, error) { return []byte{}, nil }

func UnmarshalExists([]byte) (Exists, error) { return Exists{}, nil }
