package wiretx

import (
	"encoding/hex"
	"testing"

	"github.com/RCasatta/fbbe/chainhash"
)

// buildLegacyTx builds a minimal single-input, single-output, non-SegWit
// transaction: version 1, one coinbase input with a 1-byte script, one
// output paying 50 BTC to a 1-byte script, locktime 0.
func buildLegacyTx() []byte {
	var buf []byte
	buf = appendU32le(buf, 1) // version
	buf = append(buf, 0x01)   // 1 input
	buf = append(buf, make([]byte, 32)...)
	buf = appendU32le(buf, 0xffffffff) // coinbase index
	buf = append(buf, 0x01, 0xab)      // scriptSig len 1, byte 0xab
	buf = appendU32le(buf, 0xffffffff) // sequence
	buf = append(buf, 0x01)            // 1 output
	buf = appendU64le(buf, 5000000000)
	buf = append(buf, 0x01, 0x51) // pkscript len 1, OP_TRUE
	buf = appendU32le(buf, 0)     // locktime
	return buf
}

func TestParseTxLegacyCoinbase(t *testing.T) {
	data := buildLegacyTx()
	tx, err := ParseTx(data)
	if err != nil {
		t.Fatalf("ParseTx: %v", err)
	}
	if tx.Version != 1 {
		t.Fatalf("version = %d, want 1", tx.Version)
	}
	if !tx.IsCoinbase() {
		t.Fatalf("expected coinbase")
	}
	if len(tx.Outputs) != 1 || tx.Outputs[0].Value != 5000000000 {
		t.Fatalf("unexpected outputs: %+v", tx.Outputs)
	}
	wantID := chainhash.DoubleHash(data)
	if tx.ID() != wantID {
		t.Fatalf("id mismatch")
	}
	if tx.Weight() != len(data)*4 {
		t.Fatalf("weight = %d, want %d", tx.Weight(), len(data)*4)
	}
}

func TestParseTxRejectsNonCanonicalVarInt(t *testing.T) {
	// version + 0xfd marker followed by a value < 0xfd: non-canonical.
	var buf []byte
	buf = appendU32le(buf, 1)
	buf = append(buf, 0xfd, 0x01, 0x00)
	if _, err := ParseTx(buf); err == nil {
		t.Fatalf("expected non-canonical varint to fail")
	}
}

func TestParseBlockRoundTripsCoinbaseTxid(t *testing.T) {
	txData := buildLegacyTx()
	var block []byte
	block = appendU32le(block, 1)             // header version
	block = append(block, make([]byte, 32)...) // prev block
	block = append(block, make([]byte, 32)...) // merkle root
	block = appendU32le(block, 0)              // time
	block = appendU32le(block, 0x207fffff)     // bits
	block = appendU32le(block, 0)              // nonce
	block = append(block, 0x01)                // 1 tx
	block = append(block, txData...)

	parsed, err := ParseBlock(block)
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	if len(parsed.Transactions) != 1 {
		t.Fatalf("got %d txs, want 1", len(parsed.Transactions))
	}
	wantID := chainhash.DoubleHash(txData)
	if parsed.Transactions[0].ID() != wantID {
		t.Fatalf("embedded tx id mismatch")
	}
}

func TestOutpointFingerprint(t *testing.T) {
	var txid chainhash.Hash
	copy(txid[:], []byte("0123456789abcdefghijklmnopqrstuv"))
	op := chainhash.Outpoint{TxID: txid, Index: 7}
	fp := chainhash.FingerprintOutpoint(op)
	if hex.EncodeToString(fp[:8]) != hex.EncodeToString(txid[:8]) {
		t.Fatalf("fingerprint prefix mismatch")
	}
	if fp[8] != 7 {
		t.Fatalf("fingerprint index byte = %d, want 7", fp[8])
	}
}
