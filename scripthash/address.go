// Package scripthash turns a human-readable address into the output script
// the node would produce, so the address indexer can compute the same
// script fingerprint a funding output's pkScript would hash to (spec.md
// §4.6's address_history). Grounded on the teacher's `util/address.go`
// (pubKeyHashAddrID/scriptHashAddrID version bytes, Base58Check payload
// shape) and `util/base58`'s documented alphabet — the codec itself was not
// among the retrieved files, so it is reimplemented here following that
// package's doc comment (modified Base58 alphabet omitting 0/O/I/l) and the
// standard Base58Check layout (version byte + payload + 4-byte checksum).
package scripthash

import (
	"bytes"
	"crypto/sha256"
	"math/big"

	"github.com/pkg/errors"
)

const (
	pubKeyHashAddrID = 0x00
	scriptHashAddrID = 0x05
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58Radix = big.NewInt(58)

// decodeBase58 reverses modified-Base58 encoding (no checksum handling).
func decodeBase58(s string) ([]byte, error) {
	n := new(big.Int)
	for _, r := range s {
		idx := indexRune(base58Alphabet, r)
		if idx < 0 {
			return nil, errors.Errorf("scripthash: invalid base58 character %q", r)
		}
		n.Mul(n, base58Radix)
		n.Add(n, big.NewInt(int64(idx)))
	}

	decoded := n.Bytes()

	// Leading '1' characters encode leading zero bytes.
	leadingZeros := 0
	for _, r := range s {
		if r != '1' {
			break
		}
		leadingZeros++
	}

	out := make([]byte, leadingZeros+len(decoded))
	copy(out[leadingZeros:], decoded)
	return out, nil
}

func indexRune(alphabet string, r rune) int {
	for i, c := range alphabet {
		if c == r {
			return i
		}
	}
	return -1
}

// decodeBase58Check decodes a Base58Check string, verifying and stripping
// the 4-byte double-SHA256 checksum, returning the version byte and payload.
func decodeBase58Check(s string) (version byte, payload []byte, err error) {
	decoded, err := decodeBase58(s)
	if err != nil {
		return 0, nil, err
	}
	if len(decoded) < 5 {
		return 0, nil, errors.Errorf("scripthash: base58check string too short")
	}

	payloadAndVersion := decoded[:len(decoded)-4]
	checksum := decoded[len(decoded)-4:]

	first := sha256.Sum256(payloadAndVersion)
	second := sha256.Sum256(first[:])
	if !bytes.Equal(second[:4], checksum) {
		return 0, nil, errors.Errorf("scripthash: base58check checksum mismatch")
	}

	return payloadAndVersion[0], payloadAndVersion[1:], nil
}

// ScriptForAddress decodes addr and returns the output script the node
// would compile for it: P2PKH (`OP_DUP OP_HASH160 <20> OP_EQUALVERIFY
// OP_CHECKSIG`), P2SH (`OP_HASH160 <20> OP_EQUAL`), or a SegWit witness
// program (`<version> <program>`) for bech32 addresses.
func ScriptForAddress(addr string) ([]byte, error) {
	if script, err := segwitScriptForAddress(addr); err == nil {
		return script, nil
	}

	version, payload, err := decodeBase58Check(addr)
	if err != nil {
		return nil, errors.Wrapf(err, "scripthash: decoding address %q", addr)
	}

	switch version {
	case pubKeyHashAddrID:
		if len(payload) != 20 {
			return nil, errors.Errorf("scripthash: P2PKH payload wrong length %d", len(payload))
		}
		return p2pkhScript(payload), nil
	case scriptHashAddrID:
		if len(payload) != 20 {
			return nil, errors.Errorf("scripthash: P2SH payload wrong length %d", len(payload))
		}
		return p2shScript(payload), nil
	default:
		return nil, errors.Errorf("scripthash: unrecognized address version byte %#x", version)
	}
}

func p2pkhScript(hash160 []byte) []byte {
	script := make([]byte, 0, 25)
	script = append(script, 0x76, 0xa9, 0x14) // OP_DUP OP_HASH160 <push 20>
	script = append(script, hash160...)
	script = append(script, 0x88, 0xac) // OP_EQUALVERIFY OP_CHECKSIG
	return script
}

func p2shScript(hash160 []byte) []byte {
	script := make([]byte, 0, 23)
	script = append(script, 0xa9, 0x14) // OP_HASH160 <push 20>
	script = append(script, hash160...)
	script = append(script, 0x87) // OP_EQUAL
	return script
}
