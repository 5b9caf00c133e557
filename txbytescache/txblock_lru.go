package txbytescache

import (
	"container/list"
	"sync"

	"github.com/RCasatta/fbbe/chainhash"
)

// TxBlockLRU is the strict entry-count cache mapping a transaction id to the
// id of the block it was last seen confirmed in (spec.md §3, §4.2's
// tx_in_block map) — bounded by entry count rather than bytes, since a
// single entry is always exactly one chainhash.Hash.
type TxBlockLRU struct {
	mu    sync.Mutex
	max   int
	ll    *list.List
	items map[chainhash.Hash]*list.Element
}

type txBlockEntry struct {
	tx    chainhash.Hash
	block chainhash.Hash
}

// NewTxBlockLRU creates a TxBlockLRU holding at most max entries.
func NewTxBlockLRU(max int) *TxBlockLRU {
	return &TxBlockLRU{
		max:   max,
		ll:    list.New(),
		items: make(map[chainhash.Hash]*list.Element),
	}
}

// Get returns the block id a transaction was last recorded in.
func (c *TxBlockLRU) Get(tx chainhash.Hash) (chainhash.Hash, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[tx]
	if !ok {
		return chainhash.Hash{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*txBlockEntry).block, true
}

// Add records that tx was seen confirmed in block, evicting the
// least-recently-used entry if the cache is already at capacity.
func (c *TxBlockLRU) Add(tx, block chainhash.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[tx]; ok {
		el.Value.(*txBlockEntry).block = block
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&txBlockEntry{tx: tx, block: block})
	c.items[tx] = el

	if c.max > 0 {
		for c.ll.Len() > c.max {
			back := c.ll.Back()
			if back == nil {
				break
			}
			e := back.Value.(*txBlockEntry)
			c.ll.Remove(back)
			delete(c.items, e.tx)
		}
	}
}

// Len reports the number of resident entries.
func (c *TxBlockLRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
