package relayer

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrSubscriptionsUnsupported is returned by WatchBlocks/WatchLogs when
// the Provider was dialed over http:// — subscriptions need a
// persistent transport.
var ErrSubscriptionsUnsupported = fmt.Errorf("%w: subscriptions require a ws:// endpoint", ErrProviderError)

// EthProvider is the DA-chain Provider backed by go-ethereum's RPC
// client. It dials once at construction and reuses the connection for
// every call, matching the teacher's ethereum.Client wrapper.
type EthProvider struct {
	client    *ethclient.Client
	canStream bool
}

// DialProvider connects to url, which may be ws:// (enables
// subscriptions) or http:// (one-shot calls only; WatchBlocks and
// WatchLogs return ErrSubscriptionsUnsupported).
func DialProvider(ctx context.Context, url string) (*EthProvider, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrProviderError, url, err)
	}
	return &EthProvider{
		client:    client,
		canStream: strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://"),
	}, nil
}

func (p *EthProvider) Close() { p.client.Close() }

func (p *EthProvider) Syncing(ctx context.Context) (SyncStatus, error) {
	progress, err := p.client.SyncProgress(ctx)
	if err != nil {
		return SyncStatus{}, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	if progress == nil {
		return SyncStatus{Syncing: false}, nil
	}
	return SyncStatus{
		Syncing:      true,
		CurrentBlock: progress.CurrentBlock,
		HighestBlock: progress.HighestBlock,
	}, nil
}

func (p *EthProvider) BestBlockNumber(ctx context.Context) (uint64, error) {
	n, err := p.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	return n, nil
}

func (p *EthProvider) BlockByNumber(ctx context.Context, number uint64) (*BlockHeader, error) {
	header, err := p.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		if err == ethereum.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	return &BlockHeader{Number: header.Number.Uint64(), Hash: header.Hash()}, nil
}

func (p *EthProvider) BlockByHash(ctx context.Context, hash common.Hash) (*BlockHeader, error) {
	header, err := p.client.HeaderByHash(ctx, hash)
	if err != nil {
		if err == ethereum.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	return &BlockHeader{Number: header.Number.Uint64(), Hash: header.Hash()}, nil
}

func (p *EthProvider) GetLogs(ctx context.Context, filter LogFilter) ([]Log, error) {
	logs, err := p.client.FilterLogs(ctx, toEthFilterQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	out := make([]Log, 0, len(logs))
	for _, l := range logs {
		out = append(out, fromEthLog(l))
	}
	return out, nil
}

func (p *EthProvider) WatchBlocks(ctx context.Context) (<-chan common.Hash, func(), error) {
	if !p.canStream {
		return nil, nil, ErrSubscriptionsUnsupported
	}
	headers := make(chan *types.Header, 16)
	sub, err := p.client.SubscribeNewHead(ctx, headers)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	out := make(chan common.Hash, 16)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Err():
				return
			case h, ok := <-headers:
				if !ok {
					return
				}
				out <- h.Hash()
			}
		}
	}()
	return out, sub.Unsubscribe, nil
}

func (p *EthProvider) WatchLogs(ctx context.Context, filter LogFilter) (<-chan Log, func(), error) {
	if !p.canStream {
		return nil, nil, ErrSubscriptionsUnsupported
	}
	raw := make(chan types.Log, 16)
	sub, err := p.client.SubscribeFilterLogs(ctx, toEthFilterQuery(filter), raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	out := make(chan Log, 16)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Err():
				return
			case l, ok := <-raw:
				if !ok {
					return
				}
				out <- fromEthLog(l)
			}
		}
	}()
	return out, sub.Unsubscribe, nil
}

func toEthFilterQuery(filter LogFilter) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(filter.FromBlock),
		ToBlock:   new(big.Int).SetUint64(filter.ToBlock),
		Addresses: filter.Addresses,
	}
}

func fromEthLog(l types.Log) Log {
	return Log{
		BlockNumber: l.BlockNumber,
		BlockHash:   l.BlockHash,
		Removed:     l.Removed,
		Topics:      l.Topics,
		Data:        l.Data,
	}
}
