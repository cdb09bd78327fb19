package relayer

import (
	"fmt"

	"github.com/chappie1998/fuel-core/pkg/storage"
	"github.com/chappie1998/fuel-core/pkg/types"
)

// CurrentValidatorSet is the live in-memory projection of VALIDATOR_SET,
// advanced forward only by replaying VALIDATOR_SET_DIFFS. It is owned
// exclusively by the relayer task.
type CurrentValidatorSet struct {
	set             map[types.Address]uint64
	appliedDaHeight uint64
}

// NewCurrentValidatorSet returns an empty, unloaded projection.
func NewCurrentValidatorSet() *CurrentValidatorSet {
	return &CurrentValidatorSet{set: make(map[types.Address]uint64)}
}

// LoadFromStorage populates the projection from VALIDATOR_SET and
// METADATA:validators-da-height. Called once at relayer startup.
func (v *CurrentValidatorSet) LoadFromStorage(chain *storage.Chain) error {
	entries, err := chain.Tables.ValidatorSet.Iter(chain, nil, nil, storage.Forward)
	if err != nil {
		return fmt.Errorf("load validator set: %w", err)
	}
	set := make(map[types.Address]uint64, len(entries))
	for _, e := range entries {
		set[e.Key] = e.Value
	}
	applied, _, err := storage.Metadata{}.GetValidatorsDaHeight(chain)
	if err != nil {
		return fmt.Errorf("load validator set: %w", err)
	}
	v.set = set
	v.appliedDaHeight = applied
	return nil
}

// AppliedDaHeight is the DA-height the projection currently reflects.
func (v *CurrentValidatorSet) AppliedDaHeight() uint64 { return v.appliedDaHeight }

// BumpToDaHeight replays VALIDATOR_SET_DIFFS from applied_da_height+1
// through target inclusive, applying each diff as an absolute
// per-address replacement, then advances the applied cursor. Calling
// it with target ≤ the current cursor is a no-op (idempotent), per
// §8 invariant 5.
func (v *CurrentValidatorSet) BumpToDaHeight(chain *storage.Chain, target uint64) error {
	if target <= v.appliedDaHeight {
		return nil
	}

	start := storage.EncodeHeightKey(v.appliedDaHeight + 1)
	entries, err := chain.Tables.ValidatorSetDiffs.Iter(chain, nil, start, storage.Forward)
	if err != nil {
		return fmt.Errorf("bump validator set: %w", err)
	}
	for _, e := range entries {
		if e.Key > target {
			break
		}
		for addr, stake := range e.Value {
			v.set[addr] = stake
		}
	}

	tx := chain.NewTransaction()
	if err := (storage.Metadata{}).SetValidatorsDaHeight(tx, target); err != nil {
		return fmt.Errorf("bump validator set: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bump validator set: %w", err)
	}

	v.appliedDaHeight = target
	return nil
}

// GetValidatorSet returns the projected set only when daHeight matches
// the applied cursor exactly — historical queries are not supported.
func (v *CurrentValidatorSet) GetValidatorSet(daHeight uint64) (map[types.Address]uint64, bool) {
	if daHeight != v.appliedDaHeight {
		return nil, false
	}
	out := make(map[types.Address]uint64, len(v.set))
	for addr, stake := range v.set {
		out[addr] = stake
	}
	return out, true
}
