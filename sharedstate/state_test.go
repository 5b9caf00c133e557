package sharedstate

import (
	"testing"

	"github.com/RCasatta/fbbe/chainhash"
)

func hashN(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

func TestRecordAndLookupHeightTime(t *testing.T) {
	s := New(nil, Config{TxCacheByteSize: 1 << 20, TxBlockEntries: 100, FetchParallelism: 4})
	id := hashN(1)
	s.recordHeightTime(id, HeightTime{Height: 7, Timestamp: 1000})

	ht, ok := s.lookupHeightTime(id)
	if !ok || ht.Height != 7 || ht.Timestamp != 1000 {
		t.Fatalf("unexpected lookup result: %+v, ok=%v", ht, ok)
	}

	gotID, ok := s.lookupHeightToHash(7)
	if !ok || gotID != id {
		t.Fatalf("expected height 7 -> id, got %v ok=%v", gotID, ok)
	}
}

func TestHeightToHashGrowsInChunks(t *testing.T) {
	s := New(nil, Config{TxCacheByteSize: 1 << 20, TxBlockEntries: 100, FetchParallelism: 4})
	s.setHeightToHash(5000, hashN(9))
	if len(s.heightToHash) < 5001 {
		t.Fatalf("expected height vector grown past 5000, got len %d", len(s.heightToHash))
	}
	id, ok := s.lookupHeightToHash(5000)
	if !ok || id != hashN(9) {
		t.Fatalf("lookup after growth failed: %v ok=%v", id, ok)
	}
}

func TestFeeRateOrdering(t *testing.T) {
	low := FeeRate(10, 1000)
	high := FeeRate(100, 1000)
	if high <= low {
		t.Fatalf("expected higher fee to score higher: low=%d high=%d", low, high)
	}
}

func TestComputeBlockTemplateSelectsByDescendingFeeRate(t *testing.T) {
	rates := map[chainhash.Hash]RateEntry{
		hashN(1): {TxID: hashN(1), FeeRate: FeeRate(10, 200), Weight: 200, Fee: 10},
		hashN(2): {TxID: hashN(2), FeeRate: FeeRate(50, 200), Weight: 200, Fee: 50},
		hashN(3): {TxID: hashN(3), FeeRate: FeeRate(100, 200), Weight: 200, Fee: 100},
	}
	tmpl := computeBlockTemplate(rates)
	if !tmpl.HasAny || tmpl.Transactions != 3 {
		t.Fatalf("expected all 3 selected, got %+v", tmpl)
	}
	if tmpl.Highest.TxID != hashN(3) {
		t.Fatalf("expected highest fee-rate tx 3, got %v", tmpl.Highest.TxID)
	}
	if tmpl.LastInBlock.TxID != hashN(1) {
		t.Fatalf("expected last-in-block tx 1, got %v", tmpl.LastInBlock.TxID)
	}
}

func TestComputeBlockTemplateRespectsWeightLimit(t *testing.T) {
	rates := map[chainhash.Hash]RateEntry{
		hashN(1): {TxID: hashN(1), FeeRate: FeeRate(1000000, maxBlockWeight), Weight: maxBlockWeight, Fee: 1000000},
		hashN(2): {TxID: hashN(2), FeeRate: FeeRate(1, 100), Weight: 100, Fee: 1},
	}
	tmpl := computeBlockTemplate(rates)
	if tmpl.Transactions != 1 {
		t.Fatalf("expected only the first (full-weight) tx selected, got %d", tmpl.Transactions)
	}
	if tmpl.TotalWeight > maxBlockWeight {
		t.Fatalf("template exceeds max block weight: %d", tmpl.TotalWeight)
	}
}
