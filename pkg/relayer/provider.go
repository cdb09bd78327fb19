package relayer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// SyncStatus reports whether the DA node backing a Provider is still
// catching up to its own chain tip.
type SyncStatus struct {
	Syncing       bool
	CurrentBlock  uint64
	HighestBlock  uint64
}

// BlockHeader is the subset of DA-chain block metadata the relayer
// needs: enough to resolve a height to a hash, or detect that the
// chain reorganized under it.
type BlockHeader struct {
	Number uint64
	Hash   common.Hash
}

// LogFilter scopes a historical or live log query the same way on
// both paths: a closed block range (FromBlock and ToBlock both
// included) plus a set of emitting contracts.
type LogFilter struct {
	FromBlock uint64
	ToBlock   uint64
	Addresses []common.Address
}

// Log is a single DA-chain event log, already stripped of anything
// the relayer doesn't need to decode validator-stake and deposit
// events.
type Log struct {
	BlockNumber uint64
	BlockHash   common.Hash
	Removed     bool
	Topics      []common.Hash
	Data        []byte
}

// Provider is the relayer's entire view of the DA chain. Every method
// is a single suspension point per §6's scheduling model: the relayer
// never issues two concurrent calls against one Provider.
type Provider interface {
	// Syncing reports the DA node's own sync progress.
	Syncing(ctx context.Context) (SyncStatus, error)
	// BestBlockNumber is the DA node's current chain tip.
	BestBlockNumber(ctx context.Context) (uint64, error)
	// BlockByNumber resolves a height to its header, or nil if the DA
	// node does not have a block at that height.
	BlockByNumber(ctx context.Context, number uint64) (*BlockHeader, error)
	// BlockByHash resolves a hash the same way BlockByNumber resolves a
	// height, used to re-check a watched block after a reorg.
	BlockByHash(ctx context.Context, hash common.Hash) (*BlockHeader, error)
	// GetLogs performs one historical log query over a closed range.
	GetLogs(ctx context.Context, filter LogFilter) ([]Log, error)
	// WatchBlocks subscribes to new block hashes. The returned channel
	// is closed, and unsubscribe is a no-op to call more than once,
	// when ctx is done or Close is called.
	WatchBlocks(ctx context.Context) (blocks <-chan common.Hash, unsubscribe func(), err error)
	// WatchLogs subscribes to logs matching filter as they are mined.
	WatchLogs(ctx context.Context, filter LogFilter) (logs <-chan Log, unsubscribe func(), err error)
}
