// Command fbbe is the explorer's process entry point: parses configuration,
// wires the node client and shared state, starts every background task
// (bootstrap, tip tracker, mempool engine, address indexer, raw-tx
// subscriber), and serves the JSON facade until SIGINT. Grounded on the
// teacher's kasparovserver/main.go: parse config, connect backing stores,
// start the server, block on an interrupt channel, run deferred shutdowns
// in reverse order — adapted from a database-backed API server's startup
// sequence to this explorer's in-memory-cache-plus-background-tasks one.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/RCasatta/fbbe/addrindex"
	"github.com/RCasatta/fbbe/bootstrap"
	"github.com/RCasatta/fbbe/chaincfg"
	"github.com/RCasatta/fbbe/config"
	"github.com/RCasatta/fbbe/httpapi"
	"github.com/RCasatta/fbbe/logging"
	"github.com/RCasatta/fbbe/mempoolengine"
	"github.com/RCasatta/fbbe/nodeclient"
	"github.com/RCasatta/fbbe/pipeline"
	"github.com/RCasatta/fbbe/rawtxsub"
	"github.com/RCasatta/fbbe/sharedstate"
	"github.com/RCasatta/fbbe/tiptracker"
	"github.com/RCasatta/fbbe/wiretx"
)

// blockConsumer mirrors bootstrap.BlockConsumer and tiptracker.BlockConsumer
// (both declared identically, per-package, the small-interface Go idiom) so
// this file can pass one adapted value to either without importing
// chainhash just for the interface signature.
type blockConsumer = bootstrap.BlockConsumer

var log = logging.Logger(logging.SubsystemTags.MAIN)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fbbe:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		return fmt.Errorf("parsing configuration: %w", err)
	}

	logFile, errLogFile := cfg.LogFilePaths()
	if logFile != "" {
		logging.InitLogRotators(logFile, errLogFile)
		defer logging.LogRotator.Close()
		defer logging.ErrLogRotator.Close()
	}
	logging.SetLogLevels(cfg.LogLevel)

	params, err := chaincfg.ParamsFor(chaincfg.Network(cfg.Network))
	if err != nil {
		return fmt.Errorf("resolving network parameters: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node := nodeclient.New("http://" + cfg.BitcoindAddr)
	state := sharedstate.New(node, sharedstate.Config{
		TxCacheByteSize:  cfg.TxCacheByteSize,
		TxBlockEntries:   cfg.TxBlockEntries,
		FetchParallelism: cfg.FetchParallelism,
	})

	var indexer *addrindex.Indexer
	if cfg.AddrIndexPath != "" {
		store, err := addrindex.Open(cfg.AddrIndexPath)
		if err != nil {
			return fmt.Errorf("opening address index: %w", err)
		}
		defer store.Close()
		indexer = addrindex.New(store, node, state)
	}

	genesisCoinbase := chaincfg.GenesisCoinbase()
	genesisTxID, err := wiretx.ParseTx(genesisCoinbase)
	if err != nil {
		return fmt.Errorf("parsing genesis coinbase: %w", err)
	}
	state.CacheRawTx(genesisTxID.ID(), genesisCoinbase)

	log.Infof("bootstrapping from genesis %s (%s)", params.GenesisID, params.Name)
	if err := bootstrap.Run(ctx, node, state, params.GenesisID, params.ChainName(), indexerConsumer(indexer)); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	tracker := tiptracker.New(node, state, indexerConsumer(indexer))
	go tracker.Run(ctx)

	engine := mempoolengine.New(node, state)
	go engine.Run(ctx)

	if indexer != nil {
		go indexer.RunCatchUp(ctx)
	}

	if cfg.ZMQRawTx != "" {
		sub := rawtxsub.New(cfg.ZMQRawTx, state)
		go sub.Run(ctx)
	}

	pipe := pipeline.New(node, state, tracker, indexer, genesisTxID.ID(), params.GenesisID)
	api := httpapi.New(pipe)

	srv := &http.Server{Addr: cfg.HTTPListen, Handler: api}
	serverErrs := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.HTTPListen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrs <- err
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case <-interrupt:
		log.Infof("shutting down")
	case err := <-serverErrs:
		return fmt.Errorf("http server: %w", err)
	}

	cancel()
	return srv.Shutdown(context.Background())
}

// indexerConsumer adapts a possibly-nil *addrindex.Indexer to the
// BlockConsumer interface bootstrap and the tip tracker expect, returning a
// nil interface value (not a non-nil interface wrapping a nil pointer) when
// the indexer is not configured.
func indexerConsumer(indexer *addrindex.Indexer) blockConsumer {
	if indexer == nil {
		return nil
	}
	return indexer
}
