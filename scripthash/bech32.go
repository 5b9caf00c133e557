package scripthash

import (
	"strings"

	"github.com/pkg/errors"
)

// Bech32 (BIP173) decoding for native SegWit addresses. Grounded on the
// teacher's use of a `bech32` sibling package in `util/address.go` (not
// among the retrieved files); reimplemented here directly from BIP173's
// published algorithm since no pack repo's go.mod vendors a bech32 library
// under a fetchable import path.
const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

func bech32Polymod(values []byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func bech32HRPExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for _, c := range hrp {
		out = append(out, byte(c)>>5)
	}
	out = append(out, 0)
	for _, c := range hrp {
		out = append(out, byte(c)&31)
	}
	return out
}

func bech32Verify(hrp string, data []byte) bool {
	values := append(bech32HRPExpand(hrp), data...)
	return bech32Polymod(values) == 1
}

func decodeBech32(s string) (hrp string, data []byte, err error) {
	if strings.ToLower(s) != s && strings.ToUpper(s) != s {
		return "", nil, errors.Errorf("scripthash: bech32 string has mixed case")
	}
	s = strings.ToLower(s)

	pos := strings.LastIndexByte(s, '1')
	if pos < 1 || pos+7 > len(s) {
		return "", nil, errors.Errorf("scripthash: bech32 string missing separator")
	}
	hrp = s[:pos]
	dataPart := s[pos+1:]

	data = make([]byte, len(dataPart))
	for i, c := range dataPart {
		idx := strings.IndexRune(bech32Charset, c)
		if idx < 0 {
			return "", nil, errors.Errorf("scripthash: invalid bech32 character %q", c)
		}
		data[i] = byte(idx)
	}

	if !bech32Verify(hrp, data) {
		return "", nil, errors.Errorf("scripthash: bech32 checksum mismatch")
	}
	return hrp, data[:len(data)-6], nil
}

// convertBits repacks a slice of fromBits-wide groups into toBits-wide
// groups (5-bit bech32 symbols into 8-bit bytes here).
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	var acc uint32
	var bits uint
	var out []byte
	maxVal := uint32(1)<<toBits - 1

	for _, d := range data {
		if uint32(d)>>fromBits != 0 {
			return nil, errors.Errorf("scripthash: invalid data range for bit conversion")
		}
		acc = (acc << fromBits) | uint32(d)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte((acc>>bits)&maxVal))
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, byte((acc<<(toBits-bits))&maxVal))
		}
	} else if bits >= fromBits || (acc<<(toBits-bits))&maxVal != 0 {
		return nil, errors.Errorf("scripthash: invalid padding in bit conversion")
	}
	return out, nil
}

// segwitScriptForAddress decodes a bech32 native SegWit address into its
// witness program script (`<OP_n> <push len> <program>`).
func segwitScriptForAddress(addr string) ([]byte, error) {
	_, data, err := decodeBech32(addr)
	if err != nil {
		return nil, err
	}
	if len(data) < 1 {
		return nil, errors.Errorf("scripthash: bech32 address has no witness version")
	}
	witnessVersion := data[0]
	program, err := convertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, err
	}
	if len(program) < 2 || len(program) > 40 {
		return nil, errors.Errorf("scripthash: witness program wrong length %d", len(program))
	}

	script := make([]byte, 0, 2+len(program))
	if witnessVersion == 0 {
		script = append(script, 0x00)
	} else {
		script = append(script, 0x50+witnessVersion)
	}
	script = append(script, byte(len(program)))
	script = append(script, program...)
	return script, nil
}
