// Package nodeclient implements the Node Client of spec.md §4.1: typed
// operations over the node's REST surface (spec.md §6), one file per
// operation in the style of the teacher's rpcclient package (one file per
// RPC: rpc_get_subnetwork.go, rpc_send_raw_transaction.go), adapted from a
// websocket JSON-RPC request/response exchange to plain HTTP GETs against
// the node's REST endpoints.
package nodeclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/ferrors"
	"github.com/RCasatta/fbbe/logging"
)

var log = logging.Logger(logging.SubsystemTags.NODE)

// restWarmupSleep is how long to wait before retrying a 503 (spec.md §4.1,
// §7: "the node is warming up").
const restWarmupSleep = 500 * time.Millisecond

// Client issues requests against a node's REST interface.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client rooted at baseURL (e.g. "http://127.0.0.1:8332").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// get performs one GET, retrying once after restWarmupSleep on a 503, and
// classifying the result per spec.md §7's taxonomy.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, ferrors.New(ferrors.KindTransport, err, "building request for %s", path)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, ferrors.New(ferrors.KindTransport, err, "requesting %s", path)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			if readErr != nil {
				return nil, ferrors.New(ferrors.KindTransport, readErr, "reading body for %s", path)
			}
			return body, nil
		case http.StatusNotFound:
			return nil, ferrors.New(ferrors.KindNotFound, nil, "%s", path)
		case http.StatusServiceUnavailable:
			if attempt == 0 {
				log.Debugf("node warming up on %s, retrying", path)
				time.Sleep(restWarmupSleep)
				continue
			}
			return nil, ferrors.NewBadStatus(resp.StatusCode, path)
		default:
			return nil, ferrors.NewBadStatus(resp.StatusCode, path)
		}
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return ferrors.New(ferrors.KindDecode, err, "decoding %s", path)
	}
	return nil
}

func hexHash(h chainhash.Hash) string { return h.String() }

func decodeHexBody(body []byte) ([]byte, error) {
	trimmed := make([]byte, 0, len(body))
	for _, b := range body {
		if b == '\n' || b == '\r' || b == ' ' {
			continue
		}
		trimmed = append(trimmed, b)
	}
	decoded, err := hex.DecodeString(string(trimmed))
	if err != nil {
		return nil, ferrors.New(ferrors.KindDecode, err, "decoding hex body")
	}
	return decoded, nil
}
