package relayer

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chappie1998/fuel-core/pkg/storage"
	"github.com/chappie1998/fuel-core/pkg/types"
)

type pendingKey struct {
	height    uint64
	blockHash common.Hash
}

// pendingDiff is the unfinalized validator-diff-plus-deposit bundle for
// one (da_height, da_block_hash) pair.
type pendingDiff struct {
	height    uint64
	blockHash common.Hash
	validators types.ValidatorDiff
	deposits   map[types.EventId]types.DepositCoin
}

// PendingEvents buffers DA events that have not yet crossed the
// finality horizon. It is owned exclusively by the relayer task — no
// internal locking, matching §5's non-shared-resource policy.
type PendingEvents struct {
	diffs map[pendingKey]*pendingDiff
}

// NewPendingEvents returns an empty buffer.
func NewPendingEvents() *PendingEvents {
	return &PendingEvents{diffs: make(map[pendingKey]*pendingDiff)}
}

func (p *PendingEvents) diffFor(height uint64, blockHash common.Hash) *pendingDiff {
	k := pendingKey{height: height, blockHash: blockHash}
	d, ok := p.diffs[k]
	if !ok {
		d = &pendingDiff{
			height:     height,
			blockHash:  blockHash,
			validators: make(types.ValidatorDiff),
			deposits:   make(map[types.EventId]types.DepositCoin),
		}
		p.diffs[k] = d
	}
	return d
}

// Append merges one decoded DA event into the pending diff at
// (daHeight, blockHash), creating it if absent. Validator stake
// changes are last-writer-wins within the diff; deposits are keyed by
// their event id, so a duplicate log for the same id simply overwrites.
func (p *PendingEvents) Append(event interface{}, daHeight uint64, blockHash common.Hash) error {
	d := p.diffFor(daHeight, blockHash)
	switch ev := event.(type) {
	case ValidatorStakeChangeEvent:
		d.validators[ev.Address] = ev.NewStake
	case TokenDepositEvent:
		d.deposits[ev.ID] = types.DepositCoin{
			ID:       ev.ID,
			Owner:    ev.Owner,
			Amount:   ev.Amount,
			AssetID:  ev.AssetID,
			DaHeight: daHeight,
		}
	default:
		return fmt.Errorf("pending events: unrecognized event type %T", event)
	}
	return nil
}

// MarkRemoved discards every pending diff whose block hash matches a
// reorged-out DA block. A later Append for the same height starts a
// fresh diff under the new canonical block hash.
func (p *PendingEvents) MarkRemoved(blockHash common.Hash) {
	for k := range p.diffs {
		if k.blockHash == blockHash {
			delete(p.diffs, k)
		}
	}
}

// Clear drops all pending state, used when initial sync must retry
// from scratch.
func (p *PendingEvents) Clear() {
	p.diffs = make(map[pendingKey]*pendingDiff)
}

// Len reports how many (height, block-hash) diffs are currently
// buffered, for tests and progress logging.
func (p *PendingEvents) Len() int { return len(p.diffs) }

// CommitDiffs writes every pending diff with height ≤
// finalizedDaHeight to storage within a single transaction, raises
// METADATA:finalized-da-height to finalizedDaHeight (never lowering
// it, and even when no diff was buffered), and drops the committed
// entries from the buffer. On failure the buffer and storage are both
// left unchanged and the error is returned; Relayer.Run logs it and
// restarts its sync sequence rather than aborting.
func (p *PendingEvents) CommitDiffs(chain *storage.Chain, finalizedDaHeight uint64) error {
	type committable struct {
		height     uint64
		validators types.ValidatorDiff
		deposits   []types.DepositCoin
	}

	byHeight := make(map[uint64]*committable)
	var heights []uint64
	var toDrop []pendingKey
	for k, d := range p.diffs {
		if d.height > finalizedDaHeight {
			continue
		}
		toDrop = append(toDrop, k)
		c, ok := byHeight[d.height]
		if !ok {
			c = &committable{height: d.height, validators: make(types.ValidatorDiff)}
			byHeight[d.height] = c
			heights = append(heights, d.height)
		}
		c.validators.Merge(d.validators)
		for _, dep := range d.deposits {
			c.deposits = append(c.deposits, dep)
		}
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	tx := chain.NewTransaction()
	for _, h := range heights {
		c := byHeight[h]
		if _, _, err := chain.Tables.ValidatorSetDiffs.Insert(tx, h, c.validators); err != nil {
			return fmt.Errorf("commit pending diffs: %w", err)
		}
		for addr, stake := range c.validators {
			if _, _, err := chain.Tables.ValidatorSet.Insert(tx, addr, stake); err != nil {
				return fmt.Errorf("commit pending diffs: %w", err)
			}
		}
		for _, dep := range c.deposits {
			if _, _, err := chain.Tables.TokenDeposits.Insert(tx, dep.ID, dep); err != nil {
				return fmt.Errorf("commit pending diffs: %w", err)
			}
		}
	}

	prev, _, err := storage.Metadata{}.GetFinalizedDaHeight(tx)
	if err != nil {
		return fmt.Errorf("commit pending diffs: %w", err)
	}
	if finalizedDaHeight > prev {
		if err := (storage.Metadata{}).SetFinalizedDaHeight(tx, finalizedDaHeight); err != nil {
			return fmt.Errorf("commit pending diffs: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pending diffs: %w", err)
	}

	for _, k := range toDrop {
		delete(p.diffs, k)
	}
	return nil
}

// HandleCreatedFuelBlock and HandleFuelBlock observe fuel-side block
// events for later DA-side block-commitment posting. Neither mutates
// validator-set state, so they are no-ops for replay correctness —
// the hooks exist so the relayer's live-follow loop has somewhere to
// forward FuelBlock notifications.
func (p *PendingEvents) HandleCreatedFuelBlock(block types.Block) {}
func (p *PendingEvents) HandleFuelBlock(block types.Block)        {}
