package relayer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chappie1998/fuel-core/pkg/storage"
	"github.com/chappie1998/fuel-core/pkg/types"
)

// errRestartSync signals that a live-follow subscription ended and the
// outer loop should return to initial sync, without that being logged
// as a provider error.
var errRestartSync = errors.New("relayer: subscription ended, restarting sync")

// Relayer is the state machine described in §4.6: it owns the DA
// provider, the pending-events buffer, the validator-set projection,
// and the control/fuel-block channels, and drives them through
// bootstrap, overlap-sync and live-follow.
type Relayer struct {
	cfg      *Config
	chain    *storage.Chain
	provider Provider

	pending    *PendingEvents
	validators *CurrentValidatorSet

	requests   chan Request
	fuelBlocks <-chan types.Block

	status Status
	logger *log.Logger

	blockSub    <-chan common.Hash
	logSub      <-chan Log
	unsubBlocks func()
	unsubLogs   func()
}

// New builds a Relayer. requests is the control channel the rest of
// the node sends Request values on; fuelBlocks carries local block
// notifications the pending buffer records for later DA posting.
func New(cfg *Config, chain *storage.Chain, provider Provider, requests chan Request, fuelBlocks <-chan types.Block, logger *log.Logger) *Relayer {
	if logger == nil {
		logger = log.New(log.Writer(), "[relayer] ", log.LstdFlags)
	}
	return &Relayer{
		cfg:        cfg,
		chain:      chain,
		provider:   provider,
		pending:    NewPendingEvents(),
		validators: NewCurrentValidatorSet(),
		requests:   requests,
		fuelBlocks: fuelBlocks,
		status:     DaClientIsSyncing,
		logger:     logger,
	}
}

// Run drives the relayer until it is asked to stop or ctx is
// cancelled. Any error from the sync sequence, a provider error or a
// failed storage commit alike, is logged and restarts the sequence
// from the top; a commit failure does not end Run. Apart from a failed
// initial load of the validator set, only a Stop request, a closed
// control channel or context cancellation ends Run.
func (r *Relayer) Run(ctx context.Context) error {
	if err := r.validators.LoadFromStorage(r.chain); err != nil {
		return fmt.Errorf("relayer: %w", err)
	}

	for {
		stopped, err := r.syncAndFollow(ctx)
		if stopped {
			r.setStatus(Stopped)
			return nil
		}
		if err != nil {
			r.logger.Printf("relayer: %v; restarting sync", err)
		}
		r.pending.Clear()
		if ctx.Err() != nil {
			r.setStatus(Stopped)
			return nil
		}
	}
}

func (r *Relayer) setStatus(s Status) {
	r.status = s
	metricStatus.Set(float64(s))
}

func (r *Relayer) syncAndFollow(ctx context.Context) (stopped bool, err error) {
	if stopped, err := r.waitForSync(ctx); stopped || err != nil {
		return stopped, err
	}
	if stopped, err := r.historicalCatchUp(ctx); stopped || err != nil {
		return stopped, err
	}
	if stopped, err := r.overlapSync(ctx); stopped || err != nil {
		return stopped, err
	}
	return r.liveFollow(ctx)
}

// serviceRequest answers one control-channel request and reports
// whether it was a Stop.
func (r *Relayer) serviceRequest(req Request) bool {
	switch q := req.(type) {
	case StopRequest:
		replyStop(q)
		return true
	case GetStatusRequest:
		replyStatus(q, r.status)
	case GetValidatorSetRequest:
		if r.status == DaClientIsSyncing {
			replyValidatorSet(q, GetValidatorSetResult{Err: ErrValidatorSetEthClientSyncing})
			break
		}
		set, ok := r.validators.GetValidatorSet(q.DaHeight)
		if !ok {
			replyValidatorSet(q, GetValidatorSetResult{Err: ErrProviderError})
			break
		}
		replyValidatorSet(q, GetValidatorSetResult{Set: set})
	}
	return false
}

// checkStop drains at most one pending control request without
// blocking, servicing it immediately. Used by the catch-up loops,
// which otherwise have no suspension point to observe Stop at. A
// closed control channel is treated the same as an explicit Stop, per
// §4.6's "control channel closes" termination path.
func (r *Relayer) checkStop() bool {
	select {
	case req, ok := <-r.requests:
		if !ok {
			return true
		}
		return r.serviceRequest(req)
	default:
		return false
	}
}

// waitForSync idle-waits while the DA node itself is still syncing,
// polling at EthInitialSyncRefresh and servicing control requests in
// between polls.
func (r *Relayer) waitForSync(ctx context.Context) (stopped bool, err error) {
	r.setStatus(DaClientIsSyncing)

	for {
		if r.checkStop() {
			return true, nil
		}

		status, err := r.provider.Syncing(ctx)
		if err != nil {
			return false, err
		}
		if !status.Syncing {
			return false, nil
		}

		timer := time.NewTimer(r.cfg.EthInitialSyncRefresh)
		select {
		case <-ctx.Done():
			timer.Stop()
			return true, nil
		case req, ok := <-r.requests:
			timer.Stop()
			if !ok || r.serviceRequest(req) {
				return true, nil
			}
		case <-timer.C:
		}
	}
}

// historicalCatchUp replays finalized DA history in fixed windows,
// per §4.6's initial-sync step. Each window's end becomes the next
// window's start, so boundary blocks are rescanned — harmless, since
// both validator-diff application and deposit insertion are
// idempotent.
func (r *Relayer) historicalCatchUp(ctx context.Context) (stopped bool, err error) {
	r.setStatus(Syncing)

	lastFinalized, _, err := storage.Metadata{}.GetFinalizedDaHeight(r.chain)
	if err != nil {
		return false, err
	}
	if r.cfg.EthV2ContractDeployment > lastFinalized {
		lastFinalized = r.cfg.EthV2ContractDeployment
	}

	best, err := r.provider.BestBlockNumber(ctx)
	if err != nil {
		return false, err
	}
	bestFinalized := saturatingSub(best, r.cfg.EthFinalityPeriod)
	if lastFinalized > bestFinalized {
		bestFinalized = lastFinalized
	}

	start := lastFinalized
	windows := uint64(0)
	for start < bestFinalized {
		if r.checkStop() {
			return true, nil
		}

		end := start + r.cfg.InitialSyncStep
		if end > bestFinalized {
			end = bestFinalized
		}

		logs, err := r.provider.GetLogs(ctx, LogFilter{
			FromBlock: start,
			ToBlock:   end,
			Addresses: r.cfg.EthV2ContractAddresses,
		})
		if err != nil {
			return false, err
		}
		r.ingestLogs(logs)

		if err := r.pending.CommitDiffs(r.chain, end); err != nil {
			return false, fmt.Errorf("historical catch-up commit: %w", err)
		}
		if err := r.validators.BumpToDaHeight(r.chain, end); err != nil {
			return false, fmt.Errorf("historical catch-up bump: %w", err)
		}
		r.reportMetrics(end)

		windows++
		if r.cfg.ReportProgressEveryNSteps > 0 && windows%r.cfg.ReportProgressEveryNSteps == 0 {
			r.logger.Printf("relayer: historical catch-up at %d/%d", end, bestFinalized)
		}

		start = end
	}
	return false, nil
}

// overlapSync bridges historical catch-up into live subscriptions
// without a gap, per §4.6: it keeps re-fetching and re-subscribing
// until the best block is unchanged across the subscribe step, which
// means nothing mined while the subscription was coming up.
func (r *Relayer) overlapSync(ctx context.Context) (stopped bool, err error) {
	r.setStatus(Syncing)

	lastIncluded, _, err := storage.Metadata{}.GetFinalizedDaHeight(r.chain)
	if err != nil {
		return false, err
	}

	for {
		if r.checkStop() {
			return true, nil
		}
		r.pending.Clear()

		best, err := r.provider.BestBlockNumber(ctx)
		if err != nil {
			return false, err
		}
		bestHeader, err := r.provider.BlockByNumber(ctx, best)
		if err != nil {
			return false, err
		}
		if bestHeader == nil {
			return false, ErrInitialSyncAskedForUnknownBlock
		}

		logs, err := r.provider.GetLogs(ctx, LogFilter{
			FromBlock: lastIncluded,
			ToBlock:   best,
			Addresses: r.cfg.EthV2ContractAddresses,
		})
		if err != nil {
			return false, err
		}
		r.ingestLogs(logs)

		blockSub, unsubBlocks, err := r.provider.WatchBlocks(ctx)
		if err != nil {
			return false, err
		}
		logSub, unsubLogs, err := r.provider.WatchLogs(ctx, LogFilter{
			FromBlock: best,
			ToBlock:   best,
			Addresses: r.cfg.EthV2ContractAddresses,
		})
		if err != nil {
			unsubBlocks()
			return false, err
		}

		select {
		case <-ctx.Done():
			unsubBlocks()
			unsubLogs()
			return true, nil
		case <-time.After(50 * time.Millisecond):
		}

		recheckBest, err := r.provider.BestBlockNumber(ctx)
		if err != nil {
			unsubBlocks()
			unsubLogs()
			return false, err
		}
		recheckHeader, err := r.provider.BlockByNumber(ctx, recheckBest)
		if err != nil {
			unsubBlocks()
			unsubLogs()
			return false, err
		}

		if recheckBest == best && recheckHeader != nil && recheckHeader.Hash == bestHeader.Hash {
			finalized := saturatingSub(best, r.cfg.EthFinalityPeriod)
			if lastIncluded > finalized {
				finalized = lastIncluded
			}
			if err := r.pending.CommitDiffs(r.chain, finalized); err != nil {
				unsubBlocks()
				unsubLogs()
				return false, fmt.Errorf("overlap sync commit: %w", err)
			}
			if err := r.validators.BumpToDaHeight(r.chain, finalized); err != nil {
				unsubBlocks()
				unsubLogs()
				return false, fmt.Errorf("overlap sync bump: %w", err)
			}
			r.reportMetrics(finalized)

			r.blockSub, r.unsubBlocks = blockSub, unsubBlocks
			r.logSub, r.unsubLogs = logSub, unsubLogs
			return false, nil
		}

		unsubBlocks()
		unsubLogs()
		lastIncluded = best
	}
}

// liveFollow multiplexes the four event sources with strict priority
// Control > FuelBlock > DaBlockHash > DaLog, so a pending Stop is
// always observed before another source is drained.
func (r *Relayer) liveFollow(ctx context.Context) (stopped bool, err error) {
	r.setStatus(Running)
	defer r.closeSubscriptions()

	for {
		stop, err := r.liveFollowStep(ctx)
		if stop {
			return true, nil
		}
		if err != nil {
			if errors.Is(err, errRestartSync) {
				return false, nil
			}
			return false, err
		}
	}
}

func (r *Relayer) liveFollowStep(ctx context.Context) (stop bool, err error) {
	select {
	case req, ok := <-r.requests:
		if !ok {
			return true, nil
		}
		return r.serviceRequest(req), nil
	default:
	}
	select {
	case block, ok := <-r.fuelBlocks:
		if !ok {
			return false, errRestartSync
		}
		r.pending.HandleFuelBlock(block)
		return false, nil
	default:
	}
	select {
	case hash, ok := <-r.blockSub:
		if !ok {
			return false, errRestartSync
		}
		return false, r.handleDaBlockHash(ctx, hash)
	default:
	}
	select {
	case lg, ok := <-r.logSub:
		if !ok {
			return false, errRestartSync
		}
		r.handleDaLog(lg)
		return false, nil
	default:
	}

	select {
	case <-ctx.Done():
		return true, nil
	case req, ok := <-r.requests:
		if !ok {
			return true, nil
		}
		return r.serviceRequest(req), nil
	case block, ok := <-r.fuelBlocks:
		if !ok {
			return false, errRestartSync
		}
		r.pending.HandleFuelBlock(block)
		return false, nil
	case hash, ok := <-r.blockSub:
		if !ok {
			return false, errRestartSync
		}
		return false, r.handleDaBlockHash(ctx, hash)
	case lg, ok := <-r.logSub:
		if !ok {
			return false, errRestartSync
		}
		r.handleDaLog(lg)
		return false, nil
	}
}

func (r *Relayer) handleDaBlockHash(ctx context.Context, hash common.Hash) error {
	header, err := r.provider.BlockByHash(ctx, hash)
	if err != nil {
		return err
	}
	if header == nil {
		return nil
	}
	finalized := saturatingSub(header.Number, r.cfg.EthFinalityPeriod)
	if err := r.pending.CommitDiffs(r.chain, finalized); err != nil {
		return fmt.Errorf("live-follow commit: %w", err)
	}
	if err := r.validators.BumpToDaHeight(r.chain, finalized); err != nil {
		return err
	}
	r.reportMetrics(finalized)
	return nil
}

func (r *Relayer) handleDaLog(lg Log) {
	if lg.Removed {
		r.pending.MarkRemoved(lg.BlockHash)
		return
	}
	event, err := DecodeEvent(lg)
	if err != nil {
		if !errors.Is(err, errUnknownTopic) {
			r.logger.Printf("relayer: skipping malformed log: %v", err)
		}
		return
	}
	if err := r.pending.Append(event, lg.BlockNumber, lg.BlockHash); err != nil {
		r.logger.Printf("relayer: skipping log: %v", err)
	}
}

func (r *Relayer) ingestLogs(logs []Log) {
	for _, lg := range logs {
		r.handleDaLog(lg)
	}
}

func (r *Relayer) closeSubscriptions() {
	if r.unsubBlocks != nil {
		r.unsubBlocks()
		r.unsubBlocks = nil
	}
	if r.unsubLogs != nil {
		r.unsubLogs()
		r.unsubLogs = nil
	}
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
