package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chappie1998/fuel-core/pkg/relayer"
	"github.com/chappie1998/fuel-core/pkg/storage"
	"github.com/chappie1998/fuel-core/pkg/types"
)

func main() {
	logger := log.New(os.Stderr, "[relayer] ", log.LstdFlags)

	cfg, err := relayer.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	store, err := storage.NewDiskStore(cfg.ChainName, cfg.DataDir)
	if err != nil {
		logger.Fatalf("open storage: %v", err)
	}
	defer store.Close()

	chain, err := storage.OpenOrInit(store, cfg.ChainName)
	if err != nil {
		logger.Fatalf("open chain: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, err := relayer.DialProvider(ctx, cfg.DaProviderURL)
	if err != nil {
		logger.Fatalf("dial DA provider: %v", err)
	}
	defer provider.Close()

	requests := make(chan relayer.Request)
	fuelBlocks := make(chan types.Block)

	r := relayer.New(cfg, chain, provider, requests, fuelBlocks, logger)

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Printf("received %s, stopping relayer", sig)
		stopReq, reply := relayer.NewStopRequest()
		select {
		case requests <- stopReq:
			<-reply
		case <-done:
		}
		cancel()
		<-done
	case err := <-done:
		if err != nil {
			logger.Fatalf("relayer exited: %v", err)
		}
	}

	logger.Printf("relayer stopped")
}
