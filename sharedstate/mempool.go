package sharedstate

import (
	"sort"

	"github.com/RCasatta/fbbe/chainhash"
)

// maxBlockWeight is the consensus block weight limit (spec.md §3, §9).
const maxBlockWeight = 4_000_000

// RateEntry is one `(fee-rate, weight, TxId)` triple of the rate index
// (spec.md §3). FeeRate is the integer score `(fee << 32) / weight`.
type RateEntry struct {
	TxID    chainhash.Hash
	FeeRate uint64
	Weight  uint32
	Fee     uint32
}

// BlockTemplate is the derived projection spec.md §3/§4.5 describes:
// highest/last-in-block/middle-in-block fee-rate markers plus the count of
// selected transactions and their total projected weight.
type BlockTemplate struct {
	Highest       RateEntry
	LastInBlock   RateEntry
	MiddleInBlock RateEntry
	Transactions  int
	TotalWeight   int64
	HasAny        bool
}

// mempoolState is guarded by State.mempoolFeesMu; it is replaced wholesale
// each mempool-detail cycle (spec.md §4.5 step 6: "publish ... atomically").
type mempoolState struct {
	contents map[chainhash.Hash]struct{}
	rates    map[chainhash.Hash]RateEntry
	spending map[chainhash.Outpoint]SpentBy
	template BlockTemplate
}

// SpentBy records which mempool transaction/input consumes an outpoint.
type SpentBy struct {
	TxID       chainhash.Hash
	InputIndex int
}

func newMempoolState() *mempoolState {
	return &mempoolState{
		contents: make(map[chainhash.Hash]struct{}),
		rates:    make(map[chainhash.Hash]RateEntry),
		spending: make(map[chainhash.Outpoint]SpentBy),
	}
}

// FeeRate computes spec.md §3's integer fee-rate score: `(fee << 32) / weight`.
func FeeRate(fee, weight uint32) uint64 {
	if weight == 0 {
		return 0
	}
	return (uint64(fee) << 32) / uint64(weight)
}

// MempoolSnapshot is the read-only view renderers and the request pipeline
// consume.
type MempoolSnapshot struct {
	Contents map[chainhash.Hash]struct{}
	Template BlockTemplate
}

// MempoolContents reports whether a transaction is currently believed to be
// in the node's mempool.
func (s *State) MempoolContents(id chainhash.Hash) bool {
	s.mempoolFeesMu.RLock()
	defer s.mempoolFeesMu.RUnlock()
	_, ok := s.mempool.contents[id]
	return ok
}

// SpendingStatus reports the mempool spending-map entry for an outpoint, if
// any (spec.md §4.8's "unconfirmed-spent" classification).
func (s *State) SpendingStatus(op chainhash.Outpoint) (SpentBy, bool) {
	s.mempoolFeesMu.RLock()
	defer s.mempoolFeesMu.RUnlock()
	sb, ok := s.mempool.spending[op]
	return sb, ok
}

// Template returns the last published block-template projection.
func (s *State) Template() BlockTemplate {
	s.mempoolFeesMu.RLock()
	defer s.mempoolFeesMu.RUnlock()
	return s.mempool.template
}

// PublishMempool atomically replaces the contents set, rate index, spending
// map, and recomputed block template (spec.md §4.5 step 6). The caller
// (mempool engine) does the pruning and per-tx work beforehand; this is
// purely the atomic swap plus projection recompute.
func (s *State) PublishMempool(contents map[chainhash.Hash]struct{}, rates map[chainhash.Hash]RateEntry, spending map[chainhash.Outpoint]SpentBy) {
	template := computeBlockTemplate(rates)

	s.mempoolFeesMu.Lock()
	s.mempool.contents = contents
	s.mempool.rates = rates
	s.mempool.spending = spending
	s.mempool.template = template
	s.mempoolFeesMu.Unlock()
}

// RateEntries returns a snapshot copy of the current rate index, for callers
// (like the mempool engine's next cycle) that need to know what's already
// tracked.
func (s *State) RateEntries() map[chainhash.Hash]RateEntry {
	s.mempoolFeesMu.RLock()
	defer s.mempoolFeesMu.RUnlock()
	out := make(map[chainhash.Hash]RateEntry, len(s.mempool.rates))
	for k, v := range s.mempool.rates {
		out[k] = v
	}
	return out
}

// computeBlockTemplate walks the rate index in descending fee-rate order,
// accumulating weight, and selects the prefix that fits under the maximum
// block weight (spec.md §4.5 step 5).
func computeBlockTemplate(rates map[chainhash.Hash]RateEntry) BlockTemplate {
	if len(rates) == 0 {
		return BlockTemplate{}
	}

	sorted := make([]RateEntry, 0, len(rates))
	for _, e := range rates {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].FeeRate != sorted[j].FeeRate {
			return sorted[i].FeeRate > sorted[j].FeeRate
		}
		if sorted[i].Weight != sorted[j].Weight {
			return sorted[i].Weight < sorted[j].Weight
		}
		return chainhash.Less(sorted[i].TxID, sorted[j].TxID)
	})

	var total int64
	selected := sorted[:0:0]
	for _, e := range sorted {
		if total+int64(e.Weight) > maxBlockWeight {
			break
		}
		total += int64(e.Weight)
		selected = append(selected, e)
	}

	if len(selected) == 0 {
		return BlockTemplate{}
	}

	return BlockTemplate{
		Highest:       selected[0],
		LastInBlock:   selected[len(selected)-1],
		MiddleInBlock: selected[len(selected)/2],
		Transactions:  len(selected),
		TotalWeight:   total,
		HasAny:        true,
	}
}
