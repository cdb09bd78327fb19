package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/chappie1998/fuel-core/pkg/types"
)

// DatabaseVersion is the compile-time schema version. Open fails with
// ErrInvalidDatabaseVersion when the persisted value differs.
const DatabaseVersion uint32 = 0

const (
	metaKeyVersion            = "version"
	metaKeyFinalizedDaHeight  = "finalized-da-height"
	metaKeyValidatorsDaHeight = "validators-da-height"
	metaKeyBlockHeight        = "block-height"
	metaKeyChainName          = "chain-name"
)

func identity(b []byte) ([]byte, error) { return append([]byte{}, b...), nil }

func marshalBytes(b []byte) ([]byte, error) { return append([]byte{}, b...), nil }

func marshalUint64(v uint64) ([]byte, error) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b, nil
}

func unmarshalUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("expected 8 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

func marshalUint32(v uint32) ([]byte, error) {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b, nil
}

func unmarshalUint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("expected 4 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

func encodeAddressKey(a types.Address) []byte { return a.Bytes() }
func decodeAddressKey(b []byte) (types.Address, error) {
	var a types.Address
	if len(b) != 32 {
		return a, fmt.Errorf("address key: expected 32 bytes, got %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

func encodeHeightKey(h uint64) []byte { return EncodeHeightKey(h) }
func decodeHeightKey(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("height key: expected 8 bytes, got %d", len(b))
	}
	return DecodeHeightKey(b), nil
}

func encodeHeight32Key(h uint32) []byte { return EncodeHeight32Key(h) }
func decodeHeight32Key(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("height32 key: expected 4 bytes, got %d", len(b))
	}
	return DecodeHeight32Key(b), nil
}

// Database is the typed storage facade over a Store (or a Transaction
// view of one). It provides insert/get/remove/contains_key per entity in
// the data model, with binary-safe key encoding.
type Database struct {
	Contracts         Map[types.ContractId, []byte]
	ContractUTXOID    Map[types.ContractId, types.UtxoId]
	Balances          Map[types.BalanceKey, uint64]
	Coins             Map[types.UtxoId, types.Coin]
	OwnedCoins        Map[types.OwnedCoinKey, types.Exists]
	Transactions      Map[types.TxId, types.Tx]
	Blocks            Map[types.BlockId, types.Block]
	BlockIDs          Map[uint32, types.BlockId]
	TokenDeposits     Map[types.EventId, types.DepositCoin]
	ValidatorSet      Map[types.Address, uint64]
	ValidatorSetDiffs Map[uint64, types.ValidatorDiff]
}

// NewDatabase builds the typed facade. Callers reuse one Database value
// across both the root Store and per-commit Transaction views, since
// every Map method takes its Accessor explicitly.
func NewDatabase() *Database {
	return &Database{
		Contracts: newMap[types.ContractId, []byte](
			ColumnContracts,
			func(k types.ContractId) []byte { return k.Bytes() },
			func(b []byte) (types.ContractId, error) {
				var c types.ContractId
				if len(b) != 32 {
					return c, fmt.Errorf("contract id: expected 32 bytes, got %d", len(b))
				}
				copy(c[:], b)
				return c, nil
			},
			marshalBytes, identity,
		),
		ContractUTXOID: newMap[types.ContractId, types.UtxoId](
			ColumnContractUtxoID,
			func(k types.ContractId) []byte { return k.Bytes() },
			func(b []byte) (types.ContractId, error) {
				var c types.ContractId
				if len(b) != 32 {
					return c, fmt.Errorf("contract id: expected 32 bytes, got %d", len(b))
				}
				copy(c[:], b)
				return c, nil
			},
			func(u types.UtxoId) ([]byte, error) { return u.Bytes(), nil },
			types.ParseUtxoId,
		),
		Balances: newMap[types.BalanceKey, uint64](
			ColumnBalances,
			func(k types.BalanceKey) []byte { return k.Bytes() },
			types.ParseBalanceKey,
			marshalUint64, unmarshalUint64,
		),
		Coins: newMap[types.UtxoId, types.Coin](
			ColumnCoin,
			func(k types.UtxoId) []byte { return k.Bytes() },
			types.ParseUtxoId,
			func(c types.Coin) ([]byte, error) { return c.MarshalBinary() },
			types.UnmarshalCoin,
		),
		OwnedCoins: newMap[types.OwnedCoinKey, types.Exists](
			ColumnOwnedCoins,
			func(k types.OwnedCoinKey) []byte { return k.Bytes() },
			types.ParseOwnedCoinKey,
			func(types.Exists) ([]byte, error) { return []byte{}, nil },
			types.UnmarshalExists,
		),
		Transactions: newMap[types.TxId, types.Tx](
			ColumnTransactions,
			func(k types.TxId) []byte { return k.Bytes() },
			func(b []byte) (types.TxId, error) {
				var t types.TxId
				if len(b) != 32 {
					return t, fmt.Errorf("tx id: expected 32 bytes, got %d", len(b))
				}
				copy(t[:], b)
				return t, nil
			},
			func(t types.Tx) ([]byte, error) { return t.MarshalBinary() },
			types.UnmarshalTx,
		),
		Blocks: newMap[types.BlockId, types.Block](
			ColumnBlocks,
			func(k types.BlockId) []byte { return k.Bytes() },
			func(b []byte) (types.BlockId, error) {
				var id types.BlockId
				if len(b) != 32 {
					return id, fmt.Errorf("block id: expected 32 bytes, got %d", len(b))
				}
				copy(id[:], b)
				return id, nil
			},
			func(bl types.Block) ([]byte, error) { return bl.MarshalBinary() },
			types.UnmarshalBlock,
		),
		BlockIDs: newMap[uint32, types.BlockId](
			ColumnBlockIDs,
			encodeHeight32Key, decodeHeight32Key,
			func(id types.BlockId) ([]byte, error) { return id.Bytes(), nil },
			func(b []byte) (types.BlockId, error) {
				var id types.BlockId
				if len(b) != 32 {
					return id, fmt.Errorf("block id: expected 32 bytes, got %d", len(b))
				}
				copy(id[:], b)
				return id, nil
			},
		),
		TokenDeposits: newMap[types.EventId, types.DepositCoin](
			ColumnTokenDeposits,
			func(k types.EventId) []byte { return k.Bytes() },
			func(b []byte) (types.EventId, error) {
				var id types.EventId
				if len(b) != 32 {
					return id, fmt.Errorf("event id: expected 32 bytes, got %d", len(b))
				}
				copy(id[:], b)
				return id, nil
			},
			func(d types.DepositCoin) ([]byte, error) { return d.MarshalBinary() },
			func(b []byte) (types.DepositCoin, error) {
				// ID is restored by the caller from the key; placeholder
				// here, overwritten by Iter/Get callers that need it.
				return types.UnmarshalDepositCoin(types.EventId{}, b)
			},
		),
		ValidatorSet: newMap[types.Address, uint64](
			ColumnValidatorSet,
			encodeAddressKey, decodeAddressKey,
			marshalUint64, unmarshalUint64,
		),
		ValidatorSetDiffs: newMap[uint64, types.ValidatorDiff](
			ColumnValidatorSetDiffs,
			encodeHeightKey, decodeHeightKey,
			func(d types.ValidatorDiff) ([]byte, error) { return d.MarshalBinary() },
			types.UnmarshalValidatorDiff,
		),
	}
}

// GetTokenDeposit reads a deposit and fills in its ID from the lookup
// key, since DepositCoin's wire encoding (like every other entity's)
// does not duplicate its own key.
func (d *Database) GetTokenDeposit(acc Accessor, id types.EventId) (types.DepositCoin, bool, error) {
	v, found, err := d.TokenDeposits.Get(acc, id)
	if err != nil || !found {
		return v, found, err
	}
	v.ID = id
	return v, true, nil
}

// IterTokenDeposits walks TOKEN_DEPOSITS, filling in each entry's ID
// from its key.
func (d *Database) IterTokenDeposits(acc Accessor, dir Direction) ([]types.DepositCoin, error) {
	entries, err := d.TokenDeposits.Iter(acc, nil, nil, dir)
	if err != nil {
		return nil, err
	}
	out := make([]types.DepositCoin, 0, len(entries))
	for _, e := range entries {
		v := e.Value
		v.ID = e.Key
		out = append(out, v)
	}
	return out, nil
}

// Metadata holds scalar cursors and schema metadata under fixed string
// tags, per §6. It is not a generic Map because its value types differ
// by tag (u32 version, u64 heights, string chain name).
type Metadata struct{}

func (Metadata) GetVersion(acc Accessor) (uint32, bool, error) {
	return Metadata{}.getUint32(acc, metaKeyVersion)
}

func (Metadata) SetVersion(acc Accessor, v uint32) error {
	return Metadata{}.setUint32(acc, metaKeyVersion, v)
}

func (Metadata) GetFinalizedDaHeight(acc Accessor) (uint64, bool, error) {
	return Metadata{}.getUint64(acc, metaKeyFinalizedDaHeight)
}

func (Metadata) SetFinalizedDaHeight(acc Accessor, h uint64) error {
	return Metadata{}.setUint64(acc, metaKeyFinalizedDaHeight, h)
}

func (Metadata) GetValidatorsDaHeight(acc Accessor) (uint64, bool, error) {
	return Metadata{}.getUint64(acc, metaKeyValidatorsDaHeight)
}

func (Metadata) SetValidatorsDaHeight(acc Accessor, h uint64) error {
	return Metadata{}.setUint64(acc, metaKeyValidatorsDaHeight, h)
}

func (Metadata) GetBlockHeight(acc Accessor) (uint64, bool, error) {
	return Metadata{}.getUint64(acc, metaKeyBlockHeight)
}

func (Metadata) SetBlockHeight(acc Accessor, h uint64) error {
	return Metadata{}.setUint64(acc, metaKeyBlockHeight, h)
}

func (Metadata) GetChainName(acc Accessor) (string, bool, error) {
	raw, err := acc.Get(ColumnMetadata, []byte(metaKeyChainName))
	if err != nil {
		return "", false, err
	}
	if raw == nil {
		return "", false, nil
	}
	payload, err := decodeValue(raw)
	if err != nil {
		return "", false, err
	}
	return string(payload), true, nil
}

func (Metadata) SetChainName(acc Accessor, name string) error {
	_, err := acc.Put(ColumnMetadata, []byte(metaKeyChainName), encodeValue([]byte(name)))
	return err
}

func (Metadata) getUint64(acc Accessor, tag string) (uint64, bool, error) {
	raw, err := acc.Get(ColumnMetadata, []byte(tag))
	if err != nil {
		return 0, false, err
	}
	if raw == nil {
		return 0, false, nil
	}
	payload, err := decodeValue(raw)
	if err != nil {
		return 0, false, err
	}
	v, err := unmarshalUint64(payload)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return v, true, nil
}

func (Metadata) setUint64(acc Accessor, tag string, v uint64) error {
	payload, _ := marshalUint64(v)
	_, err := acc.Put(ColumnMetadata, []byte(tag), encodeValue(payload))
	return err
}

func (Metadata) getUint32(acc Accessor, tag string) (uint32, bool, error) {
	raw, err := acc.Get(ColumnMetadata, []byte(tag))
	if err != nil {
		return 0, false, err
	}
	if raw == nil {
		return 0, false, nil
	}
	payload, err := decodeValue(raw)
	if err != nil {
		return 0, false, err
	}
	v, err := unmarshalUint32(payload)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return v, true, nil
}

func (Metadata) setUint32(acc Accessor, tag string, v uint32) error {
	payload, _ := marshalUint32(v)
	_, err := acc.Put(ColumnMetadata, []byte(tag), encodeValue(payload))
	return err
}
