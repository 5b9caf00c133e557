// Package chainhash implements the 32-byte identifiers used throughout the
// explorer for blocks and transactions, along with the outpoint and
// fingerprint types derived from them.
package chainhash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

// HashSize is the number of bytes in a block or transaction identifier.
const HashSize = 32

// Hash is a block or transaction identifier, stored internally in the same
// byte order the node produces it in (internal/little-endian), and displayed
// in the conventional reversed (big-endian) hex form.
type Hash [HashSize]byte

// String returns the reversed hex encoding, matching how block explorers and
// node RPCs print txids and block hashes.
func (h Hash) String() string {
	var reversed Hash
	for i := 0; i < HashSize; i++ {
		reversed[i] = h[HashSize-1-i]
	}
	return hex.EncodeToString(reversed[:])
}

// Less provides a tie-breaking total order over hashes, used as the
// tertiary sort key for the mempool rate index (spec.md §3: "tertiarily by
// TxId").
func Less(a, b Hash) bool {
	for i := 0; i < HashSize; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// IsZero reports whether h is the all-zero sentinel used for "no value" in
// the height->hash vector and for coinbase previous-outpoints.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// NewHashFromStr parses the conventional reversed-hex representation of a
// hash, as accepted in URLs and search queries.
func NewHashFromStr(s string) (Hash, error) {
	var h Hash
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, errors.Wrapf(err, "hash %q is not valid hex", s)
	}
	if len(decoded) != HashSize {
		return h, errors.Errorf("hash %q has wrong length %d, want %d", s, len(decoded), HashSize)
	}
	for i := 0; i < HashSize; i++ {
		h[i] = decoded[HashSize-1-i]
	}
	return h, nil
}

// DoubleHash computes the double-SHA256 of b, the hashing scheme used for
// both block headers and transactions.
func DoubleHash(b []byte) Hash {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return Hash(second)
}

// Outpoint identifies a specific transaction output.
type Outpoint struct {
	TxID  Hash
	Index uint32
}

// String renders the outpoint as "<txid>:<index>".
func (o Outpoint) String() string {
	return o.TxID.String() + ":" + itoa(o.Index)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// ScriptFingerprint is a 64-bit non-cryptographic hash of a script-pubkey,
// used as a storage key in the persistent address index. Collisions are
// acceptable: callers verify candidates against the real script bytes.
type ScriptFingerprint uint64

// OutpointFingerprintSize is the width of an OutpointFingerprint: 8 bytes of
// txid plus a 4-byte output index.
const OutpointFingerprintSize = 12

// OutpointFingerprint is the first 8 bytes of the spent txid concatenated
// with the output index (spec.md §3: "first-8-bytes-of(txid) + vout").
// Callers must verify the candidate outpoint against the real value before
// trusting it, per the spec's truncated-key discipline.
type OutpointFingerprint [OutpointFingerprintSize]byte
