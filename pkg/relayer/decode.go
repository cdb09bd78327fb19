package relayer

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chappie1998/fuel-core/pkg/types"
)

// errUnknownTopic marks a log whose first topic matches neither event
// this relayer understands. Per §6's ingest policy these are ignored
// silently, not logged as a warning — only a recognized-but-malformed
// log warrants a warning-and-skip.
var errUnknownTopic = errors.New("relayer: unrecognized event topic")

var (
	topicValidatorStakeChange = crypto.Keccak256Hash([]byte("ValidatorStakeChange(address,uint64)"))
	topicTokenDeposit         = crypto.Keccak256Hash([]byte("TokenDeposit(bytes32,address,uint64,bytes32)"))
)

// ValidatorStakeChangeEvent carries one validator's new absolute stake
// as of the DA height the log was mined at.
type ValidatorStakeChangeEvent struct {
	Address  types.Address
	NewStake uint64
}

// TokenDepositEvent carries one bridged deposit observed on the DA
// chain, keyed by its log's 32-byte event identifier.
type TokenDepositEvent struct {
	ID      types.EventId
	Owner   types.Address
	Amount  uint64
	AssetID types.AssetId
}

// DecodeEvent classifies and decodes a single Log by its first topic.
// Every ABI-encoded word here is 32 bytes, whether it came from a
// topic slot or a data word — Solidity pads address/uint64 event
// arguments to 32 bytes either way, so the fixed-width fuel-side
// identifier types copy the slot verbatim.
func DecodeEvent(l Log) (interface{}, error) {
	if len(l.Topics) == 0 {
		return nil, errUnknownTopic
	}
	switch l.Topics[0] {
	case topicValidatorStakeChange:
		return decodeValidatorStakeChange(l)
	case topicTokenDeposit:
		return decodeTokenDeposit(l)
	default:
		return nil, errUnknownTopic
	}
}

func decodeValidatorStakeChange(l Log) (ValidatorStakeChangeEvent, error) {
	if len(l.Topics) < 2 {
		return ValidatorStakeChangeEvent{}, fmt.Errorf("validator stake change: missing indexed address topic")
	}
	if len(l.Data) < 32 {
		return ValidatorStakeChangeEvent{}, fmt.Errorf("validator stake change: data too short (%d bytes)", len(l.Data))
	}
	var addr types.Address
	copy(addr[:], l.Topics[1].Bytes())
	return ValidatorStakeChangeEvent{
		Address:  addr,
		NewStake: binary.BigEndian.Uint64(l.Data[24:32]),
	}, nil
}

func decodeTokenDeposit(l Log) (TokenDepositEvent, error) {
	if len(l.Topics) < 3 {
		return TokenDepositEvent{}, fmt.Errorf("token deposit: missing indexed id/owner topics")
	}
	if len(l.Data) < 64 {
		return TokenDepositEvent{}, fmt.Errorf("token deposit: data too short (%d bytes)", len(l.Data))
	}
	var id types.EventId
	copy(id[:], l.Topics[1].Bytes())
	var owner types.Address
	copy(owner[:], l.Topics[2].Bytes())
	var asset types.AssetId
	copy(asset[:], l.Data[32:64])
	return TokenDepositEvent{
		ID:      id,
		Owner:   owner,
		Amount:  binary.BigEndian.Uint64(l.Data[24:32]),
		AssetID: asset,
	}, nil
}
