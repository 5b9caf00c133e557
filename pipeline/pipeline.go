// Package pipeline implements the Request Pipeline of spec.md §4.8: given a
// parsed request, it composes the data a renderer would turn into a page,
// reading from Shared State and falling back to the node client on a miss.
// Grounded on the teacher's `apiserver` handlers, which likewise sit
// between a parsed request and a JSON response, composing data from several
// stores (database, mempool, UTXO set) into one response struct per
// endpoint — adapted here from a SQL-backed API server to the in-memory
// Shared State this explorer keeps instead.
package pipeline

import (
	"context"

	"github.com/RCasatta/fbbe/addrindex"
	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/ferrors"
	"github.com/RCasatta/fbbe/logging"
	"github.com/RCasatta/fbbe/nodeclient"
	"github.com/RCasatta/fbbe/sharedstate"
	"github.com/RCasatta/fbbe/tiptracker"
	"github.com/RCasatta/fbbe/wiretx"
)

var log = logging.Logger(logging.SubsystemTags.PIPE)

// txPageSize is the number of transactions listed per block page (spec.md
// §4.8: "10 per page").
const txPageSize = 10

// Pipeline composes pages from Shared State, the node client, and the
// optional address indexer.
type Pipeline struct {
	node    *nodeclient.Client
	state   *sharedstate.State
	tracker *tiptracker.Tracker
	indexer *addrindex.Indexer // nil if the address indexer is not configured

	genesisTxID    chainhash.Hash
	genesisBlockID chainhash.Hash
}

// New creates a Pipeline. indexer may be nil. genesisTxID and genesisBlockID
// identify the one transaction no node will serve over its transaction
// endpoints (spec.md §4.1, §7 KindGenesisTx); the caller is expected to have
// already seeded genesisTxID's bytes into state via State.CacheRawTx.
func New(node *nodeclient.Client, state *sharedstate.State, tracker *tiptracker.Tracker, indexer *addrindex.Indexer, genesisTxID, genesisBlockID chainhash.Hash) *Pipeline {
	return &Pipeline{node: node, state: state, tracker: tracker, indexer: indexer, genesisTxID: genesisTxID, genesisBlockID: genesisBlockID}
}

// TipPage is the home page's data: chain-info snapshot, mempool-info
// snapshot, block-template projection, minutes-since-block, and the tip's
// own height/time.
type TipPage struct {
	ChainInfo        nodeclient.ChainInfo
	MempoolInfo      nodeclient.MempoolInfo
	Template         sharedstate.BlockTemplate
	MinutesSinceBlock []int
	TipHeightTime    sharedstate.HeightTime
}

// TipPage composes the home page (spec.md §4.8 first bullet).
func (p *Pipeline) TipPage(ctx context.Context) (TipPage, error) {
	ci := p.state.ChainInfo()
	tipID, err := ci.TipID()
	if err != nil {
		return TipPage{}, ferrors.New(ferrors.KindDecode, err, "pipeline: parsing tip id")
	}
	ht, err := p.state.HeightTime(ctx, tipID)
	if err != nil {
		return TipPage{}, err
	}
	var minutes []int
	if p.tracker != nil {
		minutes = p.tracker.MinutesSinceBlock()
	}
	return TipPage{
		ChainInfo:         ci,
		MempoolInfo:       p.state.MempoolInfo(),
		Template:          p.state.Template(),
		MinutesSinceBlock: minutes,
		TipHeightTime:     ht,
	}, nil
}

// BlockPage is one page of a block's transaction list.
type BlockPage struct {
	Block          nodeclient.BlockJSON
	PageTxIDs      []string
	Page           int
	TotalPages     int
	Confirmations  int64
}

// BlockPage composes a block page (spec.md §4.8 second bullet): the block's
// JSON metadata plus a paginated slice of its transaction id list, and the
// current tip's confirmation count.
func (p *Pipeline) BlockPage(ctx context.Context, id chainhash.Hash, page int) (BlockPage, error) {
	bj, err := p.node.BlockJSON(ctx, id)
	if err != nil {
		return BlockPage{}, err
	}
	totalPages := (len(bj.Tx) + txPageSize - 1) / txPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 0 || page >= totalPages {
		return BlockPage{}, ferrors.New(ferrors.KindInvalidPage, nil, "pipeline: page %d out of range (have %d)", page, totalPages)
	}
	start := page * txPageSize
	end := start + txPageSize
	if end > len(bj.Tx) {
		end = len(bj.Tx)
	}

	ci := p.state.ChainInfo()
	return BlockPage{
		Block:         bj,
		PageTxIDs:     bj.Tx[start:end],
		Page:          page,
		TotalPages:    totalPages,
		Confirmations: int64(ci.TipHeight()) - int64(bj.Height) + 1,
	}, nil
}

// OutputView is one output of a transaction page, annotated with its
// spending status (spec.md §4.8 third bullet).
type OutputView struct {
	Index  uint32
	Value  int64
	Script []byte
	Status OutputStatus
}

// OutputStatus classifies an output's spending state.
type OutputStatus int

const (
	// StatusUnknown means there is no address indexer to consult, so
	// confirmed-spent status cannot be determined.
	StatusUnknown OutputStatus = iota
	StatusUnspent
	StatusUnconfirmedSpent
	StatusConfirmedSpent
)

// InputView is one input of a transaction page, with its parent output
// resolved (spec.md §4.8 third bullet: "extract the specific output").
type InputView struct {
	Index          int
	PrevOut        chainhash.Outpoint
	ParentValue    int64
	ParentScript   []byte
	ParentResolved bool
}

// TransactionPage is one page of a transaction's inputs (txInOutPageSize per
// page), together with all of its outputs; outputs are not paginated.
type TransactionPage struct {
	TxID        chainhash.Hash
	BlockID     *chainhash.Hash
	HeightTime  *sharedstate.HeightTime
	Inputs      []InputView
	Outputs     []OutputView
	Page        int
	TotalPages  int
	LastInBlock sharedstate.RateEntry
}

const txInOutPageSize = 25

// TransactionPage composes a transaction page (spec.md §4.8 third bullet).
// A missing previous-output transaction is tolerated (ParentResolved=false)
// rather than a hard error, since the pipeline cannot distinguish a
// user-supplied unconfirmed transaction from a node-confirmed one at this
// layer; spec.md's harder failure semantics belong to the caller that knows
// which case applies.
func (p *Pipeline) TransactionPage(ctx context.Context, id chainhash.Hash, page int) (TransactionPage, error) {
	var raw []byte
	var blockID *chainhash.Hash
	var err error
	if id == p.genesisTxID {
		// The node refuses to serve the genesis coinbase over its
		// transaction endpoints, so skip State.Tx's block-id lookup
		// entirely here — it would otherwise round-trip to the node
		// asking about a transaction it doesn't recognize at all.
		raw, _, err = p.state.Tx(ctx, id, false)
		if err != nil {
			return TransactionPage{}, ferrors.New(ferrors.KindGenesisTx, err, "pipeline: genesis coinbase not cached")
		}
		genesisBlockID := p.genesisBlockID
		blockID = &genesisBlockID
	} else {
		raw, blockID, err = p.state.Tx(ctx, id, true)
		if err != nil {
			return TransactionPage{}, err
		}
	}
	tx, err := wiretx.ParseTx(raw)
	if err != nil {
		return TransactionPage{}, ferrors.New(ferrors.KindDecode, err, "pipeline: parsing tx %s", id)
	}

	var ht *sharedstate.HeightTime
	if blockID != nil {
		resolved, err := p.state.HeightTime(ctx, *blockID)
		if err == nil {
			ht = &resolved
		}
	}

	totalPages := (len(tx.Inputs) + txInOutPageSize - 1) / txInOutPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 0 || page >= totalPages {
		return TransactionPage{}, ferrors.New(ferrors.KindInvalidPage, nil, "pipeline: page %d out of range (have %d)", page, totalPages)
	}

	start := page * txInOutPageSize
	end := start + txInOutPageSize
	if end > len(tx.Inputs) {
		end = len(tx.Inputs)
	}

	parentIDs := make([]chainhash.Hash, 0, end-start)
	for i := start; i < end; i++ {
		parentIDs = append(parentIDs, tx.Inputs[i].PrevOut.TxID)
	}
	p.state.PreloadPrevouts(ctx, parentIDs)

	inputs := make([]InputView, 0, end-start)
	for i := start; i < end; i++ {
		in := tx.Inputs[i]
		iv := InputView{Index: i, PrevOut: in.PrevOut}
		parentRaw, _, err := p.state.Tx(ctx, in.PrevOut.TxID, false)
		if err == nil {
			parentTx, err := wiretx.ParseTx(parentRaw)
			if err == nil && int(in.PrevOut.Index) < len(parentTx.Outputs) {
				out := parentTx.Outputs[in.PrevOut.Index]
				iv.ParentValue = out.Value
				iv.ParentScript = out.PkScript
				iv.ParentResolved = true
			}
		}
		inputs = append(inputs, iv)
	}

	outputs := make([]OutputView, 0, len(tx.Outputs))
	for oi, out := range tx.Outputs {
		ov := OutputView{Index: uint32(oi), Value: out.Value, Script: out.PkScript}
		ov.Status = p.outputStatus(chainhash.Outpoint{TxID: id, Index: uint32(oi)})
		outputs = append(outputs, ov)
	}

	return TransactionPage{
		TxID:        id,
		BlockID:     blockID,
		HeightTime:  ht,
		Inputs:      inputs,
		Outputs:     outputs,
		Page:        page,
		TotalPages:  totalPages,
		LastInBlock: p.state.Template().LastInBlock,
	}, nil
}

// outputStatus implements spec.md §4.8's status precedence: unconfirmed-spent,
// then confirmed-spent, then unspent, then unknown when no indexer is active.
func (p *Pipeline) outputStatus(op chainhash.Outpoint) OutputStatus {
	if _, ok := p.state.SpendingStatus(op); ok {
		return StatusUnconfirmedSpent
	}
	if p.indexer == nil {
		return StatusUnknown
	}
	fp := chainhash.FingerprintOutpoint(op)
	_, ok, err := p.indexer.SpendingHeightFor(fp)
	if err != nil {
		log.Warnf("pipeline: looking up spending height for %s: %v", op, err)
		return StatusUnspent
	}
	if ok {
		return StatusConfirmedSpent
	}
	return StatusUnspent
}

// AddressPage is the address page's data: its history, if an indexer is
// active.
type AddressPage struct {
	Address string
	History []addrindex.AddressSeen
	Indexed bool
}

// AddressPage composes an address page (spec.md §4.8 fourth bullet).
func (p *Pipeline) AddressPage(ctx context.Context, address string) (AddressPage, error) {
	if p.indexer == nil {
		return AddressPage{Address: address, Indexed: false}, nil
	}
	history, err := p.indexer.AddressHistory(ctx, address)
	if err != nil {
		return AddressPage{}, err
	}
	return AddressPage{Address: address, History: history, Indexed: true}, nil
}

// HashForHeight resolves a height to its canonical block identifier, for
// callers (the short-path height redirect) that only need the id.
func (p *Pipeline) HashForHeight(ctx context.Context, height uint32) (chainhash.Hash, error) {
	return p.state.HashForHeight(ctx, height)
}

// SpendingHeightForOutpoint reports the confirmed spending height of an
// outpoint, if the address indexer is active and has seen it spent. ok is
// false with no error when the indexer is inactive or the outpoint is
// unspent/unknown — callers decide what that means for their own request.
func (p *Pipeline) SpendingHeightForOutpoint(ctx context.Context, op chainhash.Outpoint) (height uint32, ok bool, err error) {
	if p.indexer == nil {
		return 0, false, nil
	}
	fp := chainhash.FingerprintOutpoint(op)
	return p.indexer.SpendingHeightFor(fp)
}

// ResolveOutput implements the output-to-transaction redirect (spec.md §4.8
// last bullet): given an outpoint known to be spent at spendingHeight, find
// the spending transaction and input index.
func (p *Pipeline) ResolveOutput(ctx context.Context, op chainhash.Outpoint, spendingHeight uint32) (txID chainhash.Hash, inputIndex int, err error) {
	id, err := p.state.HashForHeight(ctx, spendingHeight)
	if err != nil {
		return chainhash.Hash{}, 0, err
	}
	raw, err := p.node.BlockBytes(ctx, id)
	if err != nil {
		return chainhash.Hash{}, 0, err
	}
	block, err := wiretx.ParseBlock(raw)
	if err != nil {
		return chainhash.Hash{}, 0, ferrors.New(ferrors.KindDecode, err, "pipeline: parsing block %s", id)
	}
	ti, ii, found := block.FindSpender(op)
	if !found {
		return chainhash.Hash{}, 0, ferrors.New(ferrors.KindNotFound, nil, "pipeline: no spender of %s in block %s", op, id)
	}
	return block.Transactions[ti].ID(), ii, nil
}
