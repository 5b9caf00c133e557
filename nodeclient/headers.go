package nodeclient

import (
	"context"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/wiretx"
)

// Header is the metadata HeaderOne returns for a single block header: its
// id, previous id, timestamp and height as reported by the node's JSON
// headers endpoint. Batch results use HeaderEntry instead.
type Header struct {
	ID        chainhash.Hash
	PrevID    chainhash.Hash
	Timestamp uint32
	Height    uint32
}

// singleHeaderJSON is the shape of GET /rest/headers/1/<id>.json.
type singleHeaderJSON struct {
	Hash              string `json:"hash"`
	Height            uint32 `json:"height"`
	Time              uint32 `json:"time"`
	PreviousBlockHash string `json:"previousblockhash"`
}

// HeaderOne calls GET /rest/headers/1/<id>.json for a single header's
// metadata (height, time, prev id) — the miss path of Shared State's
// height_time (spec.md §4.2).
func (c *Client) HeaderOne(ctx context.Context, id chainhash.Hash) (Header, error) {
	var out singleHeaderJSON
	if err := c.getJSON(ctx, "/rest/headers/1/"+hexHash(id)+".json", &out); err != nil {
		return Header{}, err
	}
	prev, err := chainhash.NewHashFromStr(out.PreviousBlockHash)
	if err != nil && out.PreviousBlockHash != "" {
		return Header{}, err
	}
	return Header{ID: id, PrevID: prev, Timestamp: out.Time, Height: out.Height}, nil
}

// HeaderEntry pairs a decoded header with the identifier computed from its
// own bytes (double-SHA256 of the 80-byte header), since the node's binary
// headers stream carries no identifiers of its own.
type HeaderEntry struct {
	ID     chainhash.Hash
	Header wiretx.BlockHeader
}

// HeaderBatch calls GET /rest/headers/<count>/<id>.bin, decoding up to count
// 80-byte headers starting at id (spec.md §4.1, §4.3 header phase). Heights
// are not returned by the node for this endpoint; the caller derives them
// by counting forward from a known anchor height.
func (c *Client) HeaderBatch(ctx context.Context, id chainhash.Hash, count int) ([]HeaderEntry, error) {
	body, err := c.get(ctx, "/rest/headers/"+itoaInt(count)+"/"+hexHash(id)+".bin")
	if err != nil {
		return nil, err
	}
	entries := make([]HeaderEntry, 0, count)
	for offset := 0; offset+wiretx.BlockHeaderSize <= len(body); offset += wiretx.BlockHeaderSize {
		raw := body[offset : offset+wiretx.BlockHeaderSize]
		h, err := wiretx.ParseBlockHeader(raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, HeaderEntry{ID: chainhash.DoubleHash(raw), Header: h})
	}
	return entries, nil
}

func itoaInt(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
