// Package wiretx implements a zero-copy visitor over the Bitcoin wire
// encoding of transactions and blocks (spec.md §9): a single forward pass
// over a byte buffer that extracts exactly the fields needed (an outpoint,
// an output value, a txid) without ever building a long-lived parsed tree.
// The varint/little-endian field layout mirrors wire/common.go's
// ReadElement family from the teacher, adapted from an io.Reader-based
// single-value decoder into a buffer cursor so scripts can be returned as
// slices into the original allocation instead of copied.
package wiretx

import (
	"encoding/binary"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/pkg/errors"
)

const maxVarIntPayload = 9

// cursor walks a byte slice without copying; bytes() returns sub-slices of
// the original buffer, the same allocation the tx-bytes cache already owns.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor { return &cursor{buf: buf} }

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, errors.Errorf("wiretx: need %d bytes, have %d", n, c.remaining())
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) u8() (byte, error) {
	b, err := c.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16le() (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) u32le() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) u64le() (uint64, error) {
	b, err := c.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) i32le() (int32, error) {
	v, err := c.u32le()
	return int32(v), err
}

func (c *cursor) i64le() (int64, error) {
	v, err := c.u64le()
	return int64(v), err
}

// varInt reads a variable length integer using the same canonical-encoding
// discriminants as wire.ReadVarInt: a single byte below 0xfd, or a marker
// byte (0xfd/0xfe/0xff) followed by 2/4/8 little-endian bytes, rejecting
// non-canonical encodings (a smaller representation was available).
func (c *cursor) varInt() (uint64, error) {
	discriminant, err := c.u8()
	if err != nil {
		return 0, err
	}

	var rv uint64
	switch discriminant {
	case 0xff:
		sv, err := c.u64le()
		if err != nil {
			return 0, err
		}
		rv = sv
		if rv <= 0xffffffff {
			return 0, errors.Errorf("non-canonical varint %x: discriminant 0xff encodes a value <= 0xffffffff", rv)
		}
	case 0xfe:
		sv, err := c.u32le()
		if err != nil {
			return 0, err
		}
		rv = uint64(sv)
		if rv <= 0xffff {
			return 0, errors.Errorf("non-canonical varint %x: discriminant 0xfe encodes a value <= 0xffff", rv)
		}
	case 0xfd:
		sv, err := c.u16le()
		if err != nil {
			return 0, err
		}
		rv = uint64(sv)
		if rv < 0xfd {
			return 0, errors.Errorf("non-canonical varint %x: discriminant 0xfd encodes a value < 0xfd", rv)
		}
	default:
		rv = uint64(discriminant)
	}
	return rv, nil
}

func (c *cursor) hash() (chainhash.Hash, error) {
	var h chainhash.Hash
	b, err := c.bytes(chainhash.HashSize)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

func varIntSerializeSize(v uint64) int {
	if v < 0xfd {
		return 1
	} else if v <= 0xffff {
		return 3
	} else if v <= 0xffffffff {
		return 5
	}
	return 9
}
