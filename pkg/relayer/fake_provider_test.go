package relayer

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// fakeProvider is a hand-rolled Provider used to drive the relayer's
// sync phases deterministically, without a live DA node.
type fakeProvider struct {
	mu sync.Mutex

	syncStatuses []SyncStatus
	syncCalls    int

	best uint64

	logs       []Log
	logWindows [][2]uint64
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{}
}

func fakeHash(n uint64) common.Hash {
	var h common.Hash
	binary.BigEndian.PutUint64(h[24:], n)
	return h
}

func (f *fakeProvider) Syncing(ctx context.Context) (SyncStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.syncCalls
	f.syncCalls++
	if len(f.syncStatuses) == 0 {
		return SyncStatus{Syncing: false}, nil
	}
	if idx >= len(f.syncStatuses) {
		idx = len(f.syncStatuses) - 1
	}
	return f.syncStatuses[idx], nil
}

func (f *fakeProvider) BestBlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.best, nil
}

func (f *fakeProvider) BlockByNumber(ctx context.Context, number uint64) (*BlockHeader, error) {
	return &BlockHeader{Number: number, Hash: fakeHash(number)}, nil
}

func (f *fakeProvider) BlockByHash(ctx context.Context, hash common.Hash) (*BlockHeader, error) {
	return &BlockHeader{Hash: hash}, nil
}

func (f *fakeProvider) GetLogs(ctx context.Context, filter LogFilter) ([]Log, error) {
	f.mu.Lock()
	f.logWindows = append(f.logWindows, [2]uint64{filter.FromBlock, filter.ToBlock})
	f.mu.Unlock()

	var out []Log
	for _, l := range f.logs {
		if l.BlockNumber >= filter.FromBlock && l.BlockNumber <= filter.ToBlock {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeProvider) WatchBlocks(ctx context.Context) (<-chan common.Hash, func(), error) {
	ch := make(chan common.Hash)
	return ch, func() {}, nil
}

func (f *fakeProvider) WatchLogs(ctx context.Context, filter LogFilter) (<-chan Log, func(), error) {
	ch := make(chan Log)
	return ch, func() {}, nil
}
