// Package requestparser parses an incoming path and query string into a
// typed ParsedRequest, the request-shape layer SPEC_FULL.md §C supplements
// from the original Rust implementation's `req.rs`/`route.rs`. Parsing this
// surface is distinct from routing/rendering (both out of scope per
// spec.md §1); it is a pure function from (path, query) to a typed value the
// Request Pipeline consumes. Grounded on the teacher's `rpc` package command
// dispatch (a closed set of typed request variants parsed from an untyped
// wire message) adapted from JSON-RPC method dispatch to URL path parsing.
package requestparser

import (
	"strconv"
	"strings"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/ferrors"
	"github.com/RCasatta/fbbe/scripthash"
)

// Kind identifies which logical resource a request names.
type Kind int

const (
	KindHome Kind = iota
	KindSearchHeight
	KindSearchBlock
	KindSearchTx
	KindSearchAddress
	KindTx
	KindBlock
	KindTxOut
	KindAddress
)

// Request is the parsed shape of one incoming request.
type Request struct {
	Kind Kind

	Height  uint32
	BlockID chainhash.Hash
	TxID    chainhash.Hash
	Address string
	Page    int
	VOut    uint32

	// RedirectCanonical is set when the request arrived via a long-path
	// alias (e.g. "/tx/<txid>") that should 302-redirect to the canonical
	// short path, per the original implementation's alias table.
	RedirectCanonical bool
}

// searchKind resolves the ambiguity the original implementation's
// free-text `s=` search left between a block id and a txid by requiring a
// `kind=block|tx` query parameter, defaulting to tx.
type searchKind string

const (
	searchKindBlock searchKind = "block"
	searchKindTx    searchKind = "tx"
)

// Parse parses a request path (already stripped of any scheme/host) and its
// query parameters into a Request. query maps parameter name to value,
// matching the shape any Go HTTP router would hand the pipeline.
func Parse(path string, query map[string]string) (Request, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		if s, ok := query["s"]; ok {
			return parseSearch(s, searchKind(query["kind"]))
		}
		return Request{Kind: KindHome}, nil
	}

	segs := strings.Split(path, "/")

	switch segs[0] {
	case "h":
		return parseSearchHeight(segs)
	case "b", "block":
		return parseBlockPath(segs, segs[0] == "block")
	case "t", "tx":
		return parseTxPath(segs, segs[0] == "tx")
	case "a", "address":
		return parseAddressPath(segs, segs[0] == "address")
	case "o":
		return parseTxOutPath(segs)
	default:
		if s, ok := query["s"]; ok {
			return parseSearch(s, searchKind(query["kind"]))
		}
		return Request{}, ferrors.New(ferrors.KindBadRequest, nil, "requestparser: unrecognized path %q", path)
	}
}

func parseSearch(s string, kind searchKind) (Request, error) {
	if s == "" {
		return Request{}, ferrors.New(ferrors.KindBadRequest, nil, "requestparser: empty search query")
	}
	if isAllDigits(s) {
		h, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return Request{}, ferrors.New(ferrors.KindBadRequest, err, "requestparser: parsing height %q", s)
		}
		return Request{Kind: KindSearchHeight, Height: uint32(h)}, nil
	}
	if id, err := chainhash.NewHashFromStr(s); err == nil {
		if kind == searchKindBlock {
			return Request{Kind: KindSearchBlock, BlockID: id}, nil
		}
		// Default to tx when kind is unset or unrecognized.
		return Request{Kind: KindSearchTx, TxID: id}, nil
	}
	if _, err := scripthash.ScriptForAddress(s); err != nil {
		return Request{}, ferrors.New(ferrors.KindBadRequest, err, "requestparser: unrecognized search %q", s)
	}
	return Request{Kind: KindSearchAddress, Address: s}, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseSearchHeight(segs []string) (Request, error) {
	if len(segs) != 2 {
		return Request{}, ferrors.New(ferrors.KindBadRequest, nil, "requestparser: malformed height path")
	}
	h, err := strconv.ParseUint(segs[1], 10, 32)
	if err != nil {
		return Request{}, ferrors.New(ferrors.KindBadRequest, err, "requestparser: parsing height %q", segs[1])
	}
	return Request{Kind: KindSearchHeight, Height: uint32(h)}, nil
}

func parseBlockPath(segs []string, isAlias bool) (Request, error) {
	if len(segs) < 2 {
		return Request{}, ferrors.New(ferrors.KindBadRequest, nil, "requestparser: malformed block path")
	}
	id, err := chainhash.NewHashFromStr(segs[1])
	if err != nil {
		return Request{}, ferrors.New(ferrors.KindBadRequest, err, "requestparser: parsing block id %q", segs[1])
	}
	page := 0
	if len(segs) >= 3 {
		p, err := strconv.Atoi(segs[2])
		if err != nil || p < 0 {
			return Request{}, ferrors.New(ferrors.KindInvalidPage, err, "requestparser: parsing page %q", segs[2])
		}
		page = p
	}
	return Request{Kind: KindBlock, BlockID: id, Page: page, RedirectCanonical: isAlias}, nil
}

func parseTxPath(segs []string, isAlias bool) (Request, error) {
	if len(segs) < 2 {
		return Request{}, ferrors.New(ferrors.KindBadRequest, nil, "requestparser: malformed tx path")
	}
	id, err := chainhash.NewHashFromStr(segs[1])
	if err != nil {
		return Request{}, ferrors.New(ferrors.KindBadRequest, err, "requestparser: parsing txid %q", segs[1])
	}
	page := 0
	if len(segs) >= 3 {
		p, err := strconv.Atoi(segs[2])
		if err != nil || p < 0 {
			return Request{}, ferrors.New(ferrors.KindInvalidPage, err, "requestparser: parsing page %q", segs[2])
		}
		page = p
	}
	return Request{Kind: KindTx, TxID: id, Page: page, RedirectCanonical: isAlias}, nil
}

func parseAddressPath(segs []string, isAlias bool) (Request, error) {
	if len(segs) != 2 || segs[1] == "" {
		return Request{}, ferrors.New(ferrors.KindBadRequest, nil, "requestparser: malformed address path")
	}
	return Request{Kind: KindAddress, Address: segs[1], RedirectCanonical: isAlias}, nil
}

func parseTxOutPath(segs []string) (Request, error) {
	if len(segs) != 3 {
		return Request{}, ferrors.New(ferrors.KindBadRequest, nil, "requestparser: malformed output path")
	}
	id, err := chainhash.NewHashFromStr(segs[1])
	if err != nil {
		return Request{}, ferrors.New(ferrors.KindBadRequest, err, "requestparser: parsing txid %q", segs[1])
	}
	vout, err := strconv.ParseUint(segs[2], 10, 32)
	if err != nil {
		return Request{}, ferrors.New(ferrors.KindBadRequest, err, "requestparser: parsing vout %q", segs[2])
	}
	return Request{Kind: KindTxOut, TxID: id, VOut: uint32(vout)}, nil
}
