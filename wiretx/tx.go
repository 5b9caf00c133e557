package wiretx

import (
	"github.com/RCasatta/fbbe/chainhash"
	"github.com/pkg/errors"
)

const (
	segwitMarker = 0x00
	segwitFlag   = 0x01

	// witnessScaleFactor is how many virtual bytes the non-witness portion
	// of a transaction is worth relative to the witness portion, per BIP141.
	witnessScaleFactor = 4
)

// TxIn is one transaction input, with ScriptSig and Witness as slices into
// the original serialized transaction buffer.
type TxIn struct {
	PrevOut   chainhash.Outpoint
	ScriptSig []byte
	Sequence  uint32
	Witness   [][]byte
}

// TxOut is one transaction output, with PkScript a slice into the original
// serialized transaction buffer.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// Tx is the result of a single zero-copy pass over a serialized
// transaction: every byte slice it holds aliases the caller's buffer.
type Tx struct {
	Version    int32
	Inputs     []TxIn
	Outputs    []TxOut
	LockTime   uint32
	HasWitness bool

	id         chainhash.Hash
	baseSize   int // size excluding witness data
	totalSize  int // size including witness data
	raw        []byte
}

// Raw returns the exact wire bytes this transaction was parsed from —
// aliasing the caller's buffer, never copied — so callers that already hold
// a parsed Tx (e.g. one embedded in a parsed Block) can cache its bytes
// without re-serializing.
func (t *Tx) Raw() []byte { return t.raw }

// IsCoinbase reports whether this is the coinbase transaction: exactly one
// input whose previous outpoint is the all-zero hash at index 0xffffffff.
func (t *Tx) IsCoinbase() bool {
	if len(t.Inputs) != 1 {
		return false
	}
	in := t.Inputs[0]
	return in.PrevOut.TxID.IsZero() && in.PrevOut.Index == 0xffffffff
}

// ID returns the transaction identifier: double-SHA256 of the non-witness
// serialization, matching the node's reported txid regardless of whether
// the transaction carries witness data.
func (t *Tx) ID() chainhash.Hash { return t.id }

// Weight implements the BIP141 formula: 3 times the non-witness size plus
// the total size (spec.md §9's "weight = 4 × virtual-bytes approximately").
func (t *Tx) Weight() int {
	return t.baseSize*(witnessScaleFactor-1) + t.totalSize
}

// OutputValue returns the value of output index idx, or an error if idx is
// out of range — the "extract one value, zero-copy" operation preload_prevouts
// and the mempool engine use instead of decoding a whole parsed tree.
func (t *Tx) OutputValue(idx uint32) (int64, error) {
	if int(idx) >= len(t.Outputs) {
		return 0, errors.Errorf("wiretx: output index %d out of range (have %d)", idx, len(t.Outputs))
	}
	return t.Outputs[idx].Value, nil
}

// ParseTx performs a single forward pass over data, a serialized
// transaction in the node's wire format, returning a Tx whose script and
// witness slices alias data directly.
func ParseTx(data []byte) (*Tx, error) {
	tx, _, err := parseTxCounting(data)
	return tx, err
}

// parseTxCounting is ParseTx's body, additionally reporting how many bytes
// of data the transaction occupied so a caller walking a larger buffer (a
// block's transaction list) can advance past exactly one transaction.
func parseTxCounting(data []byte) (*Tx, int, error) {
	c := newCursor(data)
	tx := &Tx{}

	version, err := c.i32le()
	if err != nil {
		return nil, 0, errors.Wrap(err, "wiretx: reading version")
	}
	tx.Version = version

	// Detect the SegWit marker/flag: a zero input count followed by a
	// nonzero flag byte is otherwise invalid, so it unambiguously signals
	// the witness serialization (BIP144).
	maybeMarker, err := c.u8()
	if err != nil {
		return nil, 0, errors.Wrap(err, "wiretx: reading marker")
	}
	hasWitness := false
	if maybeMarker == segwitMarker {
		flag, err := c.u8()
		if err != nil {
			return nil, 0, errors.Wrap(err, "wiretx: reading flag")
		}
		if flag != segwitFlag {
			return nil, 0, errors.Errorf("wiretx: unsupported segwit flag %#x", flag)
		}
		hasWitness = true
	} else {
		c.pos--
	}
	tx.HasWitness = hasWitness

	numIn, err := c.varInt()
	if err != nil {
		return nil, 0, errors.Wrap(err, "wiretx: reading input count")
	}
	tx.Inputs = make([]TxIn, numIn)
	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		in.PrevOut.TxID, err = c.hash()
		if err != nil {
			return nil, 0, errors.Wrapf(err, "wiretx: input %d prevout hash", i)
		}
		in.PrevOut.Index, err = c.u32le()
		if err != nil {
			return nil, 0, errors.Wrapf(err, "wiretx: input %d prevout index", i)
		}
		scriptLen, err := c.varInt()
		if err != nil {
			return nil, 0, errors.Wrapf(err, "wiretx: input %d script length", i)
		}
		in.ScriptSig, err = c.bytes(int(scriptLen))
		if err != nil {
			return nil, 0, errors.Wrapf(err, "wiretx: input %d script", i)
		}
		in.Sequence, err = c.u32le()
		if err != nil {
			return nil, 0, errors.Wrapf(err, "wiretx: input %d sequence", i)
		}
	}

	numOut, err := c.varInt()
	if err != nil {
		return nil, 0, errors.Wrap(err, "wiretx: reading output count")
	}
	tx.Outputs = make([]TxOut, numOut)
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		out.Value, err = c.i64le()
		if err != nil {
			return nil, 0, errors.Wrapf(err, "wiretx: output %d value", i)
		}
		scriptLen, err := c.varInt()
		if err != nil {
			return nil, 0, errors.Wrapf(err, "wiretx: output %d script length", i)
		}
		out.PkScript, err = c.bytes(int(scriptLen))
		if err != nil {
			return nil, 0, errors.Wrapf(err, "wiretx: output %d script", i)
		}
	}

	baseSize := c.pos // size so far, excluding witness, before locktime
	// locktime (4 bytes) is part of base size too; account for it below.

	if hasWitness {
		for i := range tx.Inputs {
			numItems, err := c.varInt()
			if err != nil {
				return nil, 0, errors.Wrapf(err, "wiretx: input %d witness item count", i)
			}
			items := make([][]byte, numItems)
			for j := range items {
				itemLen, err := c.varInt()
				if err != nil {
					return nil, 0, errors.Wrapf(err, "wiretx: input %d witness item %d length", i, j)
				}
				items[j], err = c.bytes(int(itemLen))
				if err != nil {
					return nil, 0, errors.Wrapf(err, "wiretx: input %d witness item %d", i, j)
				}
			}
			tx.Inputs[i].Witness = items
		}
	}

	lockTime, err := c.u32le()
	if err != nil {
		return nil, 0, errors.Wrap(err, "wiretx: reading locktime")
	}
	tx.LockTime = lockTime

	tx.totalSize = c.pos
	if hasWitness {
		// baseSize was captured after the marker/flag bytes were already
		// consumed; BIP141's non-witness size excludes them, so subtract
		// the 2 bytes here and add the 4-byte locktime instead.
		tx.baseSize = baseSize - 2 + 4
	} else {
		tx.baseSize = c.pos
	}

	tx.raw = data[:tx.totalSize]
	tx.id = txid(tx.raw, hasWitness, version, tx.Inputs, tx.Outputs, lockTime)

	return tx, tx.totalSize, nil
}

// txid recomputes the double-SHA256 over the non-witness serialization. For
// legacy transactions this is simply the whole buffer; for SegWit
// transactions the marker/flag/witness bytes are excluded, so the
// non-witness form is rebuilt field by field instead of re-slicing data
// (the marker/flag and witness stretches are not contiguous with the rest).
func txid(data []byte, hasWitness bool, version int32, ins []TxIn, outs []TxOut, lockTime uint32) chainhash.Hash {
	if !hasWitness {
		return chainhash.DoubleHash(data)
	}

	size := 4 // version
	size += varIntSerializeSize(uint64(len(ins)))
	for _, in := range ins {
		size += chainhash.HashSize + 4 + varIntSerializeSize(uint64(len(in.ScriptSig))) + len(in.ScriptSig) + 4
	}
	size += varIntSerializeSize(uint64(len(outs)))
	for _, out := range outs {
		size += 8 + varIntSerializeSize(uint64(len(out.PkScript))) + len(out.PkScript)
	}
	size += 4 // locktime

	buf := make([]byte, 0, size)
	buf = appendU32le(buf, uint32(version))
	buf = appendVarInt(buf, uint64(len(ins)))
	for _, in := range ins {
		buf = append(buf, in.PrevOut.TxID[:]...)
		buf = appendU32le(buf, in.PrevOut.Index)
		buf = appendVarInt(buf, uint64(len(in.ScriptSig)))
		buf = append(buf, in.ScriptSig...)
		buf = appendU32le(buf, in.Sequence)
	}
	buf = appendVarInt(buf, uint64(len(outs)))
	for _, out := range outs {
		buf = appendU64le(buf, uint64(out.Value))
		buf = appendVarInt(buf, uint64(len(out.PkScript)))
		buf = append(buf, out.PkScript...)
	}
	buf = appendU32le(buf, lockTime)

	return chainhash.DoubleHash(buf)
}

// SerializeTx encodes tx in the node's non-witness wire format. Used only to
// synthesize the genesis coinbase locally (chaincfg.GenesisCoinbase); every
// other transaction byte stream this program handles comes from the node
// already serialized.
func SerializeTx(tx *Tx) []byte {
	size := 4 + varIntSerializeSize(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		size += chainhash.HashSize + 4 + varIntSerializeSize(uint64(len(in.ScriptSig))) + len(in.ScriptSig) + 4
	}
	size += varIntSerializeSize(uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		size += 8 + varIntSerializeSize(uint64(len(out.PkScript))) + len(out.PkScript)
	}
	size += 4

	buf := make([]byte, 0, size)
	buf = appendU32le(buf, uint32(tx.Version))
	buf = appendVarInt(buf, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf = append(buf, in.PrevOut.TxID[:]...)
		buf = appendU32le(buf, in.PrevOut.Index)
		buf = appendVarInt(buf, uint64(len(in.ScriptSig)))
		buf = append(buf, in.ScriptSig...)
		buf = appendU32le(buf, in.Sequence)
	}
	buf = appendVarInt(buf, uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		buf = appendU64le(buf, uint64(out.Value))
		buf = appendVarInt(buf, uint64(len(out.PkScript)))
		buf = append(buf, out.PkScript...)
	}
	buf = appendU32le(buf, tx.LockTime)
	return buf
}

func appendU32le(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendU64le(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

func appendVarInt(buf []byte, v uint64) []byte {
	switch {
	case v < 0xfd:
		return append(buf, byte(v))
	case v <= 0xffff:
		buf = append(buf, 0xfd)
		return append(buf, byte(v), byte(v>>8))
	case v <= 0xffffffff:
		buf = append(buf, 0xfe)
		return appendU32le(buf, uint32(v))
	default:
		buf = append(buf, 0xff)
		return appendU64le(buf, v)
	}
}
