package addrindex

import (
	"context"
	"time"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/nodeclient"
	"github.com/RCasatta/fbbe/sharedstate"
	"github.com/RCasatta/fbbe/wiretx"
)

// retryDelay is how long the initial catch-up waits before retrying a block
// fetch gap (spec.md §7: "Indexer retries a failed block fetch every 1s
// indefinitely").
const retryDelay = time.Second

// Indexer runs the address indexer's initial catch-up and exposes the
// per-block ingest the tip tracker and bootstrap block phase delegate to.
type Indexer struct {
	store *Store
	node  *nodeclient.Client
	state *sharedstate.State
}

// New creates an Indexer over an already-open Store.
func New(store *Store, node *nodeclient.Client, state *sharedstate.State) *Indexer {
	return &Indexer{store: store, node: node, state: state}
}

// RunCatchUp walks heights 0, 1, 2, ... indexing any block not already
// present in the indexed-blocks set, until ctx is canceled (spec.md §4.6
// "Initial catch-up"). It runs after bootstrap completes.
func (idx *Indexer) RunCatchUp(ctx context.Context) {
	height := uint32(0)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		id, err := idx.state.HashForHeight(ctx, height)
		if err != nil {
			log.Debugf("addrindex: height %d not yet known, waiting: %v", height, err)
			time.Sleep(retryDelay)
			continue
		}

		already, err := idx.store.IsIndexed(id)
		if err != nil {
			log.Warnf("addrindex: checking indexed state of %s: %v", id, err)
			time.Sleep(retryDelay)
			continue
		}
		if already {
			height++
			continue
		}

		raw, err := idx.node.BlockBytes(ctx, id)
		if err != nil {
			log.Warnf("addrindex: fetching block %s at height %d: %v", id, height, err)
			time.Sleep(retryDelay)
			continue
		}

		if err := idx.IngestBlock(ctx, height, id, raw); err != nil {
			log.Warnf("addrindex: indexing block %s: %v", id, err)
			time.Sleep(retryDelay)
			continue
		}
		height++
	}
}

// SpendingHeightFor exposes the store's spending-keyspace lookup, used by
// the request pipeline to classify an output as confirmed-spent (spec.md
// §4.8's output status precedence) without the pipeline reaching past the
// indexer into its store directly.
func (idx *Indexer) SpendingHeightFor(fp chainhash.OutpointFingerprint) (uint32, bool, error) {
	return idx.store.SpendingHeight(fp)
}

// IngestBlock computes the funding and spending fingerprint sets for one
// block and writes them, guarded by the indexed-blocks presence check
// (spec.md §4.6). Implements the BlockConsumer interface used by bootstrap
// and the tip tracker.
func (idx *Indexer) IngestBlock(ctx context.Context, height uint32, id chainhash.Hash, raw []byte) error {
	already, err := idx.store.IsIndexed(id)
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	var funding []chainhash.ScriptFingerprint
	var spending []chainhash.OutpointFingerprint

	err = wiretx.VisitBlockOutpoints(raw,
		func(txIndex int, prevOut chainhash.Outpoint) {
			spending = append(spending, chainhash.FingerprintOutpoint(prevOut))
		},
		func(txIndex int, outIndex int, value int64, script []byte) {
			funding = append(funding, chainhash.FingerprintScript(script))
		},
	)
	if err != nil {
		return err
	}

	return idx.store.WriteBlock(BlockRecord{
		ID:       id,
		Height:   height,
		Funding:  funding,
		Spending: spending,
	})
}
