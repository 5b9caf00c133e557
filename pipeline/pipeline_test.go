package pipeline

import (
	"testing"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/nodeclient"
	"github.com/RCasatta/fbbe/sharedstate"
)

func TestOutputStatusUnconfirmedSpentTakesPrecedence(t *testing.T) {
	node := nodeclient.New("http://127.0.0.1:0")
	state := sharedstate.New(node, sharedstate.Config{TxCacheByteSize: 1024, TxBlockEntries: 10, FetchParallelism: 1})
	p := New(node, state, nil, nil, chainhash.Hash{}, chainhash.Hash{})

	op := chainhash.Outpoint{TxID: chainhash.Hash{1}, Index: 0}
	state.PublishMempool(
		map[chainhash.Hash]struct{}{},
		map[chainhash.Hash]sharedstate.RateEntry{},
		map[chainhash.Outpoint]sharedstate.SpentBy{op: {TxID: chainhash.Hash{2}, InputIndex: 0}},
	)

	if got := p.outputStatus(op); got != StatusUnconfirmedSpent {
		t.Fatalf("expected unconfirmed-spent, got %v", got)
	}
}

func TestOutputStatusUnknownWithoutIndexer(t *testing.T) {
	node := nodeclient.New("http://127.0.0.1:0")
	state := sharedstate.New(node, sharedstate.Config{TxCacheByteSize: 1024, TxBlockEntries: 10, FetchParallelism: 1})
	p := New(node, state, nil, nil, chainhash.Hash{}, chainhash.Hash{})

	op := chainhash.Outpoint{TxID: chainhash.Hash{3}, Index: 0}
	if got := p.outputStatus(op); got != StatusUnknown {
		t.Fatalf("expected unknown without an indexer, got %v", got)
	}
}
