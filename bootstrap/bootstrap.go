// Package bootstrap implements the startup task of spec.md §4.3: a header
// phase that walks the chain from genesis populating the height/time maps,
// followed by a block phase that walks backward from the tip loading full
// blocks until the tx-bytes cache reports full. Grounded on the teacher's
// `blockdag` initial-sync flow (batch-fetch-then-apply, stop on short batch)
// adapted from P2P header sync to REST polling.
package bootstrap

import (
	"context"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/ferrors"
	"github.com/RCasatta/fbbe/logging"
	"github.com/RCasatta/fbbe/nodeclient"
	"github.com/RCasatta/fbbe/sharedstate"
	"github.com/RCasatta/fbbe/wiretx"
)

var log = logging.Logger(logging.SubsystemTags.BOOT)

// headerBatchSize is the number of headers requested per round-trip
// (spec.md §4.3: "e.g., 101 at a time").
const headerBatchSize = 101

// Run executes the bootstrap task once. It returns an error (which the caller
// treats as fatal) on a wrong-network mismatch and on any failure to fetch
// chain info or a header batch; errors during the block phase are logged and
// end that phase early without failing the run.
func Run(ctx context.Context, node *nodeclient.Client, state *sharedstate.State, genesisID chainhash.Hash, wantChain string, addrIndexer BlockConsumer) error {
	ci, err := node.ChainInfo(ctx)
	if err != nil {
		return ferrors.New(ferrors.KindTransport, err, "bootstrap: fetching chain info")
	}
	if ci.Chain != wantChain {
		return ferrors.New(ferrors.KindWrongNetwork, nil, "bootstrap: node reports chain %q, configured for %q", ci.Chain, wantChain)
	}
	state.SetChainInfo(ci)

	if err := runHeaderPhase(ctx, node, state, genesisID); err != nil {
		return err
	}

	tip, err := ci.TipID()
	if err != nil {
		return ferrors.New(ferrors.KindDecode, err, "bootstrap: parsing tip id")
	}
	runBlockPhase(ctx, node, state, tip, addrIndexer)
	return nil
}

// BlockConsumer is the subset of the address indexer's interface the
// bootstrap block phase can feed as it walks backward, so newly-loaded
// blocks become indexed without a second pass (mirrors the tip tracker's
// delegation described in spec.md §4.4).
type BlockConsumer interface {
	IngestBlock(ctx context.Context, height uint32, id chainhash.Hash, raw []byte) error
}

// runHeaderPhase walks forward from genesis in batches, recording
// (id -> height, time) and height -> id for every header, stopping when a
// batch returns fewer than requested (spec.md §4.3).
func runHeaderPhase(ctx context.Context, node *nodeclient.Client, state *sharedstate.State, genesisID chainhash.Hash) error {
	anchor := genesisID
	height := uint32(0)

	first := true
	for {
		entries, err := node.HeaderBatch(ctx, anchor, headerBatchSize)
		if err != nil {
			return ferrors.New(ferrors.KindTransport, err, "bootstrap: header batch at %s", anchor)
		}
		if len(entries) == 0 {
			break
		}

		batch := make(map[chainhash.Hash]sharedstate.HeightTime, len(entries))
		h := height
		if !first {
			// The anchor header itself was already recorded by the previous
			// batch; headers(start, count) on the node repeats it as the
			// first entry of the next batch, so skip it here.
			entries = entries[1:]
		}
		for _, e := range entries {
			batch[e.ID] = sharedstate.HeightTime{Height: h, Timestamp: e.Header.Timestamp}
			h++
		}
		state.BootstrapHashToHeightTime(batch)

		if len(entries) == 0 {
			break
		}
		anchor = entries[len(entries)-1].ID
		height = h
		first = false

		if len(entries) < headerBatchSize-1 {
			break
		}
	}

	log.Infof("bootstrap: header phase reached height %d", height)
	return nil
}

// runBlockPhase walks backward from the tip loading full blocks until the
// tx-bytes cache is full or the null predecessor is reached (spec.md §4.3).
func runBlockPhase(ctx context.Context, node *nodeclient.Client, state *sharedstate.State, tip chainhash.Hash, addrIndexer BlockConsumer) {
	current := tip
	loaded := 0
	for {
		if current.IsZero() {
			break
		}
		raw, err := node.BlockBytes(ctx, current)
		if err != nil {
			log.Warnf("bootstrap: block phase fetching %s: %v", current, err)
			break
		}
		block, err := wiretx.ParseBlock(raw)
		if err != nil {
			log.Warnf("bootstrap: block phase parsing %s: %v", current, err)
			break
		}

		state.UpdateCacheWithBlock(block, current, nil)
		loaded++

		if addrIndexer != nil {
			if ht, err := state.HeightTime(ctx, current); err == nil {
				if err := addrIndexer.IngestBlock(ctx, ht.Height, current, raw); err != nil {
					log.Warnf("bootstrap: block phase indexing %s: %v", current, err)
				}
			}
		}

		if fullByBytes(state) {
			break
		}

		current = block.Header.PrevBlock
	}
	log.Infof("bootstrap: block phase loaded %d blocks backward from tip", loaded)
}

func fullByBytes(state *sharedstate.State) bool {
	return state.TxBytesFull()
}
