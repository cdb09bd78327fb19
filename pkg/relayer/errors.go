package relayer

import "errors"

var (
	// ErrProviderError wraps any failure surfaced by the DA-chain Provider
	// (dial, RPC, subscription); during sync, Run logs it and restarts
	// the sync sequence on the same Provider. It is also the reply to a
	// GetValidatorSet request whose height is not the applied height.
	ErrProviderError = errors.New("relayer: provider error")

	// ErrValidatorSetEthClientSyncing is returned by GetValidatorSet while
	// the DA client itself is still catching up — the relayer has no
	// validator set to serve yet.
	ErrValidatorSetEthClientSyncing = errors.New("relayer: da client is still syncing")

	// ErrInitialSyncAskedForUnknownBlock means overlap sync looked up the
	// provider's best block by number and got no block back.
	ErrInitialSyncAskedForUnknownBlock = errors.New("relayer: initial sync asked for an unknown block")

	// ErrStopped names the outcome of an operation aborted by Stop. No
	// function in this package returns it: Run reports a stop by
	// returning nil, and requests still queued after a Stop get no reply.
	ErrStopped = errors.New("relayer: stopped")
)
