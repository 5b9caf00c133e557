// Package mempoolengine runs the two polling loops of spec.md §4.5: a 2s
// mempool-info loop and a 10s mempool-detail loop that computes per-tx fee
// rates and republishes the block-template projection. Grounded on the
// teacher's `mempool` package structure (one policy-driven acceptance loop
// plus a periodic pruning concern), adapted here from consensus-acceptance
// to read-only fee-rate tracking.
package mempoolengine

import (
	"context"
	"time"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/logging"
	"github.com/RCasatta/fbbe/nodeclient"
	"github.com/RCasatta/fbbe/sharedstate"
	"github.com/RCasatta/fbbe/wiretx"
)

var log = logging.Logger(logging.SubsystemTags.MPOL)

const (
	infoInterval   = 2 * time.Second
	detailInterval = 10 * time.Second
	cycleBudget    = time.Minute
)

// Engine owns the two mempool polling loops.
type Engine struct {
	node  *nodeclient.Client
	state *sharedstate.State
}

// New creates an Engine over the given node client and shared state.
func New(node *nodeclient.Client, state *sharedstate.State) *Engine {
	return &Engine{node: node, state: state}
}

// Run starts both loops and blocks until ctx is canceled.
func (e *Engine) Run(ctx context.Context) {
	go e.infoLoop(ctx)
	e.detailLoop(ctx)
}

func (e *Engine) infoLoop(ctx context.Context) {
	ticker := time.NewTicker(infoInterval)
	defer ticker.Stop()
	for {
		info, err := e.node.MempoolInfo(ctx)
		if err != nil {
			log.Warnf("mempool info: %v", err)
		} else {
			e.state.SetMempoolInfo(info)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (e *Engine) detailLoop(ctx context.Context) {
	ticker := time.NewTicker(detailInterval)
	defer ticker.Stop()
	for {
		e.runDetailCycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runDetailCycle implements spec.md §4.5's detail loop steps 1-6.
func (e *Engine) runDetailCycle(ctx context.Context) {
	start := time.Now()

	contents, err := e.node.MempoolContents(ctx)
	if err != nil {
		log.Warnf("mempool contents: %v", err)
		return
	}

	rates := e.state.RateEntries()
	// Step 2: prune the rate index of anything no longer in contents.
	for txid := range rates {
		if _, ok := contents[txid]; !ok {
			delete(rates, txid)
		}
	}

	spending := make(map[chainhash.Outpoint]sharedstate.SpentBy)

	for txid := range contents {
		if time.Since(start) > cycleBudget {
			log.Warnf("mempool detail cycle budget exceeded, abandoning remaining backlog")
			break
		}
		if _, already := rates[txid]; already {
			e.recordSpending(ctx, txid, spending)
			continue
		}
		entry, ok := e.scoreTx(ctx, txid, spending)
		if !ok {
			continue
		}
		rates[txid] = entry
	}

	e.state.PublishMempool(contents, rates, spending)
}

// scoreTx implements step 4: fetch bytes, extract inputs/outputs/weight via
// the zero-copy visitor, sum input values (preloading parents if there is
// more than one), and compute fee and fee-rate.
func (e *Engine) scoreTx(ctx context.Context, txid chainhash.Hash, spending map[chainhash.Outpoint]sharedstate.SpentBy) (sharedstate.RateEntry, bool) {
	data, _, err := e.state.Tx(ctx, txid, false)
	if err != nil {
		log.Debugf("mempool: fetching tx %s: %v", txid, err)
		return sharedstate.RateEntry{}, false
	}
	tx, err := wiretx.ParseTx(data)
	if err != nil {
		log.Debugf("mempool: parsing tx %s: %v", txid, err)
		return sharedstate.RateEntry{}, false
	}

	for i, in := range tx.Inputs {
		spending[in.PrevOut] = sharedstate.SpentBy{TxID: txid, InputIndex: i}
	}

	if len(tx.Inputs) > 1 {
		parents := make([]chainhash.Hash, 0, len(tx.Inputs))
		for _, in := range tx.Inputs {
			parents = append(parents, in.PrevOut.TxID)
		}
		e.state.PreloadPrevouts(ctx, parents)
	}

	var inputSum int64
	for _, in := range tx.Inputs {
		parentData, _, err := e.state.Tx(ctx, in.PrevOut.TxID, false)
		if err != nil {
			log.Debugf("mempool: fetching parent %s of %s: %v", in.PrevOut.TxID, txid, err)
			return sharedstate.RateEntry{}, false
		}
		parent, err := wiretx.ParseTx(parentData)
		if err != nil {
			log.Debugf("mempool: parsing parent %s of %s: %v", in.PrevOut.TxID, txid, err)
			return sharedstate.RateEntry{}, false
		}
		value, err := parent.OutputValue(in.PrevOut.Index)
		if err != nil {
			log.Debugf("mempool: output %d of parent %s: %v", in.PrevOut.Index, in.PrevOut.TxID, err)
			return sharedstate.RateEntry{}, false
		}
		inputSum += value
	}

	var outputSum int64
	for _, out := range tx.Outputs {
		outputSum += out.Value
	}

	fee := inputSum - outputSum
	weight := tx.Weight()
	if fee < 0 || fee > int64(^uint32(0)) || weight < 0 || weight > int(^uint32(0)) {
		log.Debugf("mempool: tx %s fee/weight out of 32-bit range, skipping", txid)
		return sharedstate.RateEntry{}, false
	}

	return sharedstate.RateEntry{
		TxID:    txid,
		FeeRate: sharedstate.FeeRate(uint32(fee), uint32(weight)),
		Weight:  uint32(weight),
		Fee:     uint32(fee),
	}, true
}

// recordSpending re-derives spending-map entries for a transaction already
// scored this cycle, since the spending map is rebuilt atomically each cycle
// alongside the rate index rather than carried over piecewise.
func (e *Engine) recordSpending(ctx context.Context, txid chainhash.Hash, spending map[chainhash.Outpoint]sharedstate.SpentBy) {
	data, _, err := e.state.Tx(ctx, txid, false)
	if err != nil {
		return
	}
	tx, err := wiretx.ParseTx(data)
	if err != nil {
		return
	}
	for i, in := range tx.Inputs {
		spending[in.PrevOut] = sharedstate.SpentBy{TxID: txid, InputIndex: i}
	}
}
