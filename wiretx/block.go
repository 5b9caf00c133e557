package wiretx

import (
	"github.com/RCasatta/fbbe/chainhash"
	"github.com/pkg/errors"
)

// BlockHeaderSize is the fixed 80-byte size of a block header on the wire.
const BlockHeaderSize = 80

// BlockHeader mirrors the 80-byte fixed header, read once per block.
type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// Block is the result of a single pass over a serialized block: the header
// plus every transaction, each itself parsed zero-copy against the same
// backing buffer.
type Block struct {
	Header       BlockHeader
	Transactions []*Tx
	headerBytes  []byte
}

// ID returns the block identifier: double-SHA256 of the 80-byte header.
func (b *Block) ID() chainhash.Hash {
	return chainhash.DoubleHash(b.headerBytes)
}

// ParseBlockHeader reads just the fixed 80-byte header, for callers (like
// the bootstrap header phase) that only need time/prev-id and never touch
// the transaction list; the header carries no height.
func ParseBlockHeader(data []byte) (BlockHeader, error) {
	c := newCursor(data)
	return readHeader(c)
}

func readHeader(c *cursor) (BlockHeader, error) {
	var h BlockHeader
	var err error
	h.Version, err = c.i32le()
	if err != nil {
		return h, errors.Wrap(err, "wiretx: block version")
	}
	h.PrevBlock, err = c.hash()
	if err != nil {
		return h, errors.Wrap(err, "wiretx: block prev hash")
	}
	h.MerkleRoot, err = c.hash()
	if err != nil {
		return h, errors.Wrap(err, "wiretx: block merkle root")
	}
	h.Timestamp, err = c.u32le()
	if err != nil {
		return h, errors.Wrap(err, "wiretx: block timestamp")
	}
	h.Bits, err = c.u32le()
	if err != nil {
		return h, errors.Wrap(err, "wiretx: block bits")
	}
	h.Nonce, err = c.u32le()
	if err != nil {
		return h, errors.Wrap(err, "wiretx: block nonce")
	}
	return h, nil
}

// ParseBlock performs a single forward pass over data, a serialized block,
// parsing the header and then every transaction in turn. Every script and
// witness slice in the result aliases data.
func ParseBlock(data []byte) (*Block, error) {
	if len(data) < BlockHeaderSize {
		return nil, errors.Errorf("wiretx: block too short: %d bytes", len(data))
	}
	c := newCursor(data)
	header, err := readHeader(c)
	if err != nil {
		return nil, err
	}

	numTx, err := c.varInt()
	if err != nil {
		return nil, errors.Wrap(err, "wiretx: reading tx count")
	}

	txs := make([]*Tx, 0, numTx)
	for i := uint64(0); i < numTx; i++ {
		start := c.pos
		tx, err := parseTxFromCursor(c)
		if err != nil {
			return nil, errors.Wrapf(err, "wiretx: parsing tx %d at block offset %d", i, start)
		}
		txs = append(txs, tx)
	}

	return &Block{Header: header, Transactions: txs, headerBytes: data[:BlockHeaderSize]}, nil
}

// VisitBlockOutpoints walks every non-coinbase input's previous outpoint and
// every output's script in block order, without retaining the parsed
// transactions afterward — the shape the address indexer's initial catch-up
// and the tip tracker's per-block ingest both need.
func VisitBlockOutpoints(data []byte, onInput func(txIndex int, prevOut chainhash.Outpoint), onOutput func(txIndex int, outIndex int, value int64, script []byte)) error {
	block, err := ParseBlock(data)
	if err != nil {
		return err
	}
	for ti, tx := range block.Transactions {
		if !tx.IsCoinbase() {
			for _, in := range tx.Inputs {
				onInput(ti, in.PrevOut)
			}
		}
		for oi, out := range tx.Outputs {
			onOutput(ti, oi, out.Value, out.PkScript)
		}
	}
	return nil
}

// FindSpender scans a parsed block for the transaction/input that spends
// target, used by the output-to-transaction redirect (spec.md §4.8).
func (b *Block) FindSpender(target chainhash.Outpoint) (txIndex, inputIndex int, found bool) {
	for ti, tx := range b.Transactions {
		for ii, in := range tx.Inputs {
			if in.PrevOut == target {
				return ti, ii, true
			}
		}
	}
	return 0, 0, false
}

// parseTxFromCursor is ParseTx's body, operating on a cursor already
// positioned at the start of a transaction embedded in a larger buffer
// (a block), so it can continue walking the same backing array.
func parseTxFromCursor(c *cursor) (*Tx, error) {
	start := c.pos
	// Reuse ParseTx's logic by re-running it against the remaining slice,
	// then advance the outer cursor by the number of bytes it consumed.
	tx, consumed, err := parseTxCounting(c.buf[start:])
	if err != nil {
		return nil, err
	}
	c.pos = start + consumed
	return tx, nil
}
