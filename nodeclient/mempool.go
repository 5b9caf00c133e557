package nodeclient

import (
	"context"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/ferrors"
)

// MempoolInfo is the result of GET /rest/mempool/info.json.
type MempoolInfo struct {
	Size         int     `json:"size"`
	Bytes        int64   `json:"bytes"`
	Usage        int64   `json:"usage"`
	TotalFee     float64 `json:"total_fee"`
	MinFee       float64 `json:"mempoolminfee"`
	MaxMempool   int64   `json:"maxmempool"`
}

// MempoolInfo calls GET /rest/mempool/info.json.
func (c *Client) MempoolInfo(ctx context.Context) (MempoolInfo, error) {
	var out MempoolInfo
	err := c.getJSON(ctx, "/rest/mempool/info.json", &out)
	return out, err
}

// MempoolContents calls GET /rest/mempool/contents.json?verbose=false,
// returning the set of txids currently in the node's mempool.
func (c *Client) MempoolContents(ctx context.Context) (map[chainhash.Hash]struct{}, error) {
	var raw map[string]interface{}
	if err := c.getJSON(ctx, "/rest/mempool/contents.json?verbose=false", &raw); err != nil {
		return nil, err
	}
	out := make(map[chainhash.Hash]struct{}, len(raw))
	for k := range raw {
		h, err := chainhash.NewHashFromStr(k)
		if err != nil {
			return nil, ferrors.New(ferrors.KindDecode, err, "parsing mempool txid %q", k)
		}
		out[h] = struct{}{}
	}
	return out, nil
}
