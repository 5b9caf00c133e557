package nodeclient

import (
	"context"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/ferrors"
)

// ChainInfo is the result of GET /rest/chaininfo.json.
type ChainInfo struct {
	Chain                string `json:"chain"`
	Blocks               uint32 `json:"blocks"`
	BestBlockHashHex      string `json:"bestblockhash"`
	InitialBlockDownload bool   `json:"initialblockdownload"`
	SizeOnDisk           int64  `json:"size_on_disk"`
}

// TipHeight returns the tip height (the node reports it as "blocks").
func (c ChainInfo) TipHeight() uint32 { return c.Blocks }

// TipID parses the reported best block hash.
func (c ChainInfo) TipID() (chainhash.Hash, error) {
	return chainhash.NewHashFromStr(c.BestBlockHashHex)
}

// ChainInfo calls GET /rest/chaininfo.json. A 404 here means the node's REST
// interface is disabled (spec.md §4.1, §7: KindRestDisabled).
func (c *Client) ChainInfo(ctx context.Context) (ChainInfo, error) {
	var out ChainInfo
	err := c.getJSON(ctx, "/rest/chaininfo.json", &out)
	if err != nil {
		if ferrors.Is(err, ferrors.KindNotFound) {
			return out, ferrors.New(ferrors.KindRestDisabled, err, "node REST interface looks disabled")
		}
		return out, err
	}
	return out, nil
}
