package relayer

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/chappie1998/fuel-core/pkg/storage"
	"github.com/chappie1998/fuel-core/pkg/types"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestChain(t *testing.T) *storage.Chain {
	t.Helper()
	s := storage.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	chain, err := storage.Init(s, "test")
	require.NoError(t, err)
	return chain
}

// Stop requested while the DA node itself is still syncing must end
// Run/waitForSync without ever touching historical catch-up.
func TestWaitForSyncStopsOnStopRequest(t *testing.T) {
	chain := newTestChain(t)

	fp := newFakeProvider()
	fp.syncStatuses = []SyncStatus{{Syncing: true}}

	cfg := &Config{EthInitialSyncRefresh: 5 * time.Millisecond}
	requests := make(chan Request)
	r := New(cfg, chain, fp, requests, nil, testLogger())

	stopReq, stopReply := NewStopRequest()
	go func() {
		time.Sleep(20 * time.Millisecond)
		requests <- stopReq
	}()

	stopped, err := r.waitForSync(context.Background())
	require.NoError(t, err)
	require.True(t, stopped)

	select {
	case <-stopReply:
	case <-time.After(time.Second):
		t.Fatal("stop reply was never delivered")
	}
}

func TestWaitForSyncReturnsOnceNodeCaughtUp(t *testing.T) {
	chain := newTestChain(t)

	fp := newFakeProvider()
	fp.syncStatuses = []SyncStatus{{Syncing: true}, {Syncing: true}, {Syncing: false}}

	cfg := &Config{EthInitialSyncRefresh: time.Millisecond}
	r := New(cfg, chain, fp, make(chan Request), nil, testLogger())

	stopped, err := r.waitForSync(context.Background())
	require.NoError(t, err)
	require.False(t, stopped)
	require.GreaterOrEqual(t, fp.syncCalls, 3)
}

// deployment=100, finality=30, best=134 must produce the two windows
// [100,102] and [102,104], each window's end becoming the next
// window's start.
func TestHistoricalCatchUpWindowBoundaries(t *testing.T) {
	chain := newTestChain(t)

	fp := newFakeProvider()
	fp.best = 134

	cfg := &Config{
		EthV2ContractDeployment: 100,
		EthFinalityPeriod:       30,
		InitialSyncStep:         2,
	}
	r := New(cfg, chain, fp, make(chan Request), nil, testLogger())

	stopped, err := r.historicalCatchUp(context.Background())
	require.NoError(t, err)
	require.False(t, stopped)

	require.Equal(t, [][2]uint64{{100, 102}, {102, 104}}, fp.logWindows)

	finalized, found, err := storage.Metadata{}.GetFinalizedDaHeight(chain)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(104), finalized)
}

func TestHistoricalCatchUpStopsBetweenWindows(t *testing.T) {
	chain := newTestChain(t)

	fp := newFakeProvider()
	fp.best = 134

	cfg := &Config{
		EthV2ContractDeployment: 100,
		EthFinalityPeriod:       30,
		InitialSyncStep:         2,
	}
	requests := make(chan Request, 1)
	stopReq, _ := NewStopRequest()
	requests <- stopReq

	r := New(cfg, chain, fp, requests, nil, testLogger())

	stopped, err := r.historicalCatchUp(context.Background())
	require.NoError(t, err)
	require.True(t, stopped)
	require.Empty(t, fp.logWindows, "a queued Stop must be observed before the first window is fetched")
}

// overlap-sync must re-fetch [lastIncluded, best], subscribe, and
// settle on an unchanged best block/hash before handing control to
// live-follow; a log outside that window must never be ingested.
func TestOverlapSyncStabilizesAndCommits(t *testing.T) {
	chain := newTestChain(t)
	require.NoError(t, storage.Metadata{}.SetFinalizedDaHeight(chain, 104))

	fp := newFakeProvider()
	fp.best = 134
	fp.logs = []Log{{
		BlockNumber: 136,
		BlockHash:   fakeHash(136),
		Topics:      []common.Hash{topicTokenDeposit, common.HexToHash("0x01"), common.HexToHash("0x02")},
		Data:        make([]byte, 64),
	}}

	cfg := &Config{EthFinalityPeriod: 30}
	r := New(cfg, chain, fp, make(chan Request), nil, testLogger())
	defer r.closeSubscriptions()

	stopped, err := r.overlapSync(context.Background())
	require.NoError(t, err)
	require.False(t, stopped)

	require.Equal(t, [2]uint64{104, 134}, fp.logWindows[0])
	require.Equal(t, 0, r.pending.Len(), "log at height 136 falls outside [104,134] and must not be ingested")

	finalized, _, err := storage.Metadata{}.GetFinalizedDaHeight(chain)
	require.NoError(t, err)
	require.Equal(t, uint64(104), finalized)

	require.NotNil(t, r.blockSub)
	require.NotNil(t, r.logSub)
}

// Control > FuelBlock > DaBlockHash > DaLog: when all four sources
// are simultaneously ready, only the highest-priority one is drained.
func TestLiveFollowStepPrioritizesControlOverOtherSources(t *testing.T) {
	chain := newTestChain(t)

	fp := newFakeProvider()
	cfg := &Config{EthFinalityPeriod: 1}
	requests := make(chan Request, 1)
	fuelBlocks := make(chan types.Block, 1)
	r := New(cfg, chain, fp, requests, fuelBlocks, testLogger())

	blockCh := make(chan common.Hash, 1)
	logCh := make(chan Log, 1)
	r.blockSub = blockCh
	r.logSub = logCh

	statusReq, statusReply := NewGetStatusRequest()
	requests <- statusReq
	fuelBlocks <- types.Block{}
	blockCh <- fakeHash(1)
	logCh <- Log{}

	stop, err := r.liveFollowStep(context.Background())
	require.NoError(t, err)
	require.False(t, stop)

	select {
	case <-statusReply:
	default:
		t.Fatal("the control request should have been serviced first")
	}

	require.Len(t, fuelBlocks, 1, "lower-priority sources must be left untouched")
	require.Len(t, blockCh, 1)
	require.Len(t, logCh, 1)
}

func TestLiveFollowStepPrefersDaBlockHashOverDaLog(t *testing.T) {
	chain := newTestChain(t)

	fp := newFakeProvider()
	cfg := &Config{EthFinalityPeriod: 1}
	r := New(cfg, chain, fp, make(chan Request, 1), nil, testLogger())

	blockCh := make(chan common.Hash, 1)
	logCh := make(chan Log, 1)
	r.blockSub = blockCh
	r.logSub = logCh

	blockCh <- fakeHash(5)
	logCh <- Log{}

	stop, err := r.liveFollowStep(context.Background())
	require.NoError(t, err)
	require.False(t, stop)
	require.Len(t, logCh, 1, "the log must stay queued while the block hash is handled")
}
