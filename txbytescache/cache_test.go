package txbytescache

import (
	"testing"

	"github.com/RCasatta/fbbe/chainhash"
)

func hashN(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

func TestCacheEvictsByByteSize(t *testing.T) {
	c := New(10)
	c.Add(hashN(1), make([]byte, 6))
	c.Add(hashN(2), make([]byte, 6))

	if _, ok := c.Get(hashN(1)); ok {
		t.Fatalf("expected entry 1 evicted once over byte budget")
	}
	if _, ok := c.Get(hashN(2)); !ok {
		t.Fatalf("expected entry 2 still resident")
	}
	if c.Bytes() > 10 {
		t.Fatalf("cache over budget: %d bytes resident", c.Bytes())
	}
}

func TestCacheRefreshOnAddUpdatesSize(t *testing.T) {
	c := New(100)
	c.Add(hashN(1), make([]byte, 10))
	c.Add(hashN(1), make([]byte, 20))
	if c.Bytes() != 20 {
		t.Fatalf("expected resident bytes 20, got %d", c.Bytes())
	}
	if c.Len() != 1 {
		t.Fatalf("expected single entry after refresh, got %d", c.Len())
	}
}

func TestTxBlockLRUEvictsOldestEntryCount(t *testing.T) {
	c := NewTxBlockLRU(2)
	c.Add(hashN(1), hashN(0xa))
	c.Add(hashN(2), hashN(0xb))
	c.Add(hashN(3), hashN(0xc))

	if _, ok := c.Get(hashN(1)); ok {
		t.Fatalf("expected oldest entry evicted")
	}
	if _, ok := c.Get(hashN(2)); !ok {
		t.Fatalf("expected entry 2 still resident")
	}
	if _, ok := c.Get(hashN(3)); !ok {
		t.Fatalf("expected entry 3 still resident")
	}
}
