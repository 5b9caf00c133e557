package nodeclient

import (
	"context"

	"github.com/RCasatta/fbbe/chainhash"
)

// TxJSON is the result of GET /rest/tx/<txid>.json: the containing block id
// (absent for a mempool transaction) and the raw hex bytes.
type TxJSON struct {
	BlockHashHex string `json:"blockhash,omitempty"`
	HexBytes     string `json:"hex"`
}

// BlockID parses the containing block id, if any.
func (t TxJSON) BlockID() (chainhash.Hash, bool, error) {
	if t.BlockHashHex == "" {
		return chainhash.Hash{}, false, nil
	}
	h, err := chainhash.NewHashFromStr(t.BlockHashHex)
	return h, true, err
}

// Bytes decodes the hex payload into raw transaction bytes.
func (t TxJSON) Bytes() ([]byte, error) {
	return decodeHexBody([]byte(t.HexBytes))
}

// TxJSON calls GET /rest/tx/<txid>.json. The genesis coinbase is handled
// locally by callers before reaching this client (spec.md §4.1: "the node
// refuses" that request).
func (c *Client) TxJSON(ctx context.Context, id chainhash.Hash) (TxJSON, error) {
	var out TxJSON
	err := c.getJSON(ctx, "/rest/tx/"+hexHash(id)+".json", &out)
	return out, err
}

// TxBytes calls GET /rest/tx/<txid>.bin, returning the raw serialized transaction.
func (c *Client) TxBytes(ctx context.Context, id chainhash.Hash) ([]byte, error) {
	return c.get(ctx, "/rest/tx/"+hexHash(id)+".bin")
}
