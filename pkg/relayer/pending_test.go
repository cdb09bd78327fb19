package relayer

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/chappie1998/fuel-core/pkg/storage"
	"github.com/chappie1998/fuel-core/pkg/types"
)

func TestPendingEventsAppendMergesValidatorStakeLastWriterWins(t *testing.T) {
	p := NewPendingEvents()
	hash := common.HexToHash("0x01")
	addr := types.Address{1}

	require.NoError(t, p.Append(ValidatorStakeChangeEvent{Address: addr, NewStake: 10}, 5, hash))
	require.NoError(t, p.Append(ValidatorStakeChangeEvent{Address: addr, NewStake: 20}, 5, hash))
	require.Equal(t, 1, p.Len())

	s := storage.NewMemoryStore()
	defer s.Close()
	chain, err := storage.Init(s, "test")
	require.NoError(t, err)

	require.NoError(t, p.CommitDiffs(chain, 5))

	stake, found, err := chain.Tables.ValidatorSet.Get(chain, addr)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(20), stake)
}

func TestPendingEventsRejectsUnrecognizedEvent(t *testing.T) {
	p := NewPendingEvents()
	err := p.Append(struct{}{}, 1, common.HexToHash("0x01"))
	require.Error(t, err)
}

func TestPendingEventsReorgDrop(t *testing.T) {
	p := NewPendingEvents()
	hashA := common.HexToHash("0xaa")
	ev := TokenDepositEvent{
		ID:      types.EventId{1},
		Owner:   types.Address{2},
		Amount:  5,
		AssetID: types.AssetId{3},
	}

	require.NoError(t, p.Append(ev, 150, hashA))
	require.Equal(t, 1, p.Len())

	p.MarkRemoved(hashA)
	require.Equal(t, 0, p.Len())

	s := storage.NewMemoryStore()
	defer s.Close()
	chain, err := storage.Init(s, "test")
	require.NoError(t, err)

	require.NoError(t, p.CommitDiffs(chain, 160))

	_, found, err := chain.Tables.GetTokenDeposit(chain, ev.ID)
	require.NoError(t, err)
	require.False(t, found)
}

func TestPendingEventsMarkRemovedOnlyAffectsThatBlockHash(t *testing.T) {
	p := NewPendingEvents()
	hashA := common.HexToHash("0xaa")
	hashB := common.HexToHash("0xbb")

	require.NoError(t, p.Append(ValidatorStakeChangeEvent{Address: types.Address{1}, NewStake: 1}, 10, hashA))
	require.NoError(t, p.Append(ValidatorStakeChangeEvent{Address: types.Address{2}, NewStake: 2}, 10, hashB))
	require.Equal(t, 2, p.Len())

	p.MarkRemoved(hashA)
	require.Equal(t, 1, p.Len())
}

func TestPendingEventsCommitDiffsOnlyCommitsUpToFinalizedHeight(t *testing.T) {
	p := NewPendingEvents()
	addrA := types.Address{1}
	addrB := types.Address{2}

	require.NoError(t, p.Append(ValidatorStakeChangeEvent{Address: addrA, NewStake: 10}, 10, common.HexToHash("0x01")))
	require.NoError(t, p.Append(ValidatorStakeChangeEvent{Address: addrB, NewStake: 20}, 20, common.HexToHash("0x02")))

	s := storage.NewMemoryStore()
	defer s.Close()
	chain, err := storage.Init(s, "test")
	require.NoError(t, err)

	require.NoError(t, p.CommitDiffs(chain, 10))
	require.Equal(t, 1, p.Len(), "only the height-10 diff should have been dropped")

	_, found, err := chain.Tables.ValidatorSet.Get(chain, addrB)
	require.NoError(t, err)
	require.False(t, found, "height-20 diff must stay buffered until its own height is finalized")

	finalized, _, err := storage.Metadata{}.GetFinalizedDaHeight(chain)
	require.NoError(t, err)
	require.Equal(t, uint64(10), finalized)
}

func TestPendingEventsCommitDiffsNeverMovesFinalizedHeightBackward(t *testing.T) {
	p := NewPendingEvents()

	s := storage.NewMemoryStore()
	defer s.Close()
	chain, err := storage.Init(s, "test")
	require.NoError(t, err)

	require.NoError(t, p.Append(ValidatorStakeChangeEvent{Address: types.Address{1}, NewStake: 1}, 10, common.HexToHash("0x01")))
	require.NoError(t, p.CommitDiffs(chain, 10))

	h1, _, err := storage.Metadata{}.GetFinalizedDaHeight(chain)
	require.NoError(t, err)
	require.Equal(t, uint64(10), h1)

	require.NoError(t, p.CommitDiffs(chain, 5))

	h2, _, err := storage.Metadata{}.GetFinalizedDaHeight(chain)
	require.NoError(t, err)
	require.Equal(t, uint64(10), h2)
}

func TestPendingEventsClearDropsEverything(t *testing.T) {
	p := NewPendingEvents()
	require.NoError(t, p.Append(ValidatorStakeChangeEvent{Address: types.Address{1}, NewStake: 1}, 1, common.HexToHash("0x01")))
	p.Clear()
	require.Equal(t, 0, p.Len())
}
