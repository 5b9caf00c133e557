package nodeclient

import (
	"context"

	"github.com/RCasatta/fbbe/chainhash"
)

// BlockJSON is the result of GET /rest/block/notxdetails/<id>.json: header
// fields, the list of contained txids, and pointers to the adjacent blocks.
type BlockJSON struct {
	Hash          string   `json:"hash"`
	Confirmations int64    `json:"confirmations"`
	Height        uint32   `json:"height"`
	Version       int32    `json:"version"`
	MerkleRoot    string   `json:"merkleroot"`
	Tx            []string `json:"tx"`
	Time          uint32   `json:"time"`
	Bits          string   `json:"bits"`
	Nonce         uint32   `json:"nonce"`
	PreviousHash  string   `json:"previousblockhash"`
	NextHash      string   `json:"nextblockhash,omitempty"`
}

// BlockJSON calls GET /rest/block/notxdetails/<id>.json.
func (c *Client) BlockJSON(ctx context.Context, id chainhash.Hash) (BlockJSON, error) {
	var out BlockJSON
	err := c.getJSON(ctx, "/rest/block/notxdetails/"+hexHash(id)+".json", &out)
	return out, err
}

// BlockBytes calls GET /rest/block/<id>.bin, returning the raw serialized block.
func (c *Client) BlockBytes(ctx context.Context, id chainhash.Hash) ([]byte, error) {
	return c.get(ctx, "/rest/block/"+hexHash(id)+".bin")
}

// BlockHashByHeight calls GET /rest/blockhashbyheight/<h>.json.
func (c *Client) BlockHashByHeight(ctx context.Context, height uint32) (chainhash.Hash, error) {
	var out struct {
		BlockHash string `json:"blockhash"`
	}
	if err := c.getJSON(ctx, "/rest/blockhashbyheight/"+uitoa(height)+".json", &out); err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.NewHashFromStr(out.BlockHash)
}

func uitoa(v uint32) string {
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
