// Package sharedstate is the derived-state engine at the center of the
// explorer: the in-memory caches every other task reads from and writes
// into, and the only place locks on those caches are taken. It mirrors the
// teacher's layering of a domain object (State here, consensus state there)
// behind small accessor methods that take exactly the lock they need and
// release it before doing any I/O, the same discipline
// domain/consensus/blockprocessor uses around its datastructures.
package sharedstate

import (
	"context"
	"sync"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/ferrors"
	"github.com/RCasatta/fbbe/logging"
	"github.com/RCasatta/fbbe/nodeclient"
	"github.com/RCasatta/fbbe/txbytescache"
	"github.com/RCasatta/fbbe/wiretx"
)

var log = logging.Logger(logging.SubsystemTags.STAT)

// heightChunk is the growth increment for the height->id vector (spec.md §3:
// "grown in generous chunks (≥1000)").
const heightChunk = 1000

// HeightTime is the (height, timestamp) pair recorded for every known block
// identifier.
type HeightTime struct {
	Height    uint32
	Timestamp uint32
}

// State holds every in-memory cache described in spec.md §3/§4.2. Each
// field is guarded by its own mutex; the locking order chainInfo ->
// mempoolInfo -> mempoolFees -> txInBlock -> txs -> hashToHeightTime ->
// heightToHash (spec.md §5) must be respected whenever more than one is held
// at a time. In practice nearly every operation here takes exactly one.
type State struct {
	node *nodeclient.Client

	chainInfoMu sync.RWMutex
	chainInfo   nodeclient.ChainInfo

	mempoolInfoMu sync.RWMutex
	mempoolInfo   nodeclient.MempoolInfo

	mempoolFeesMu sync.RWMutex
	mempool       *mempoolState

	txInBlock   *txbytescache.TxBlockLRU
	txs         *txbytescache.Cache
	txsMaxBytes int64

	hashToHeightTimeMu sync.RWMutex
	hashToHeightTime   map[chainhash.Hash]HeightTime

	heightToHashMu sync.RWMutex
	heightToHash   []chainhash.Hash // sentinel chainhash.Hash{} means "none"

	fetchParallelism int
}

// Config bundles the size budgets spec.md §6 lists as configuration
// parameters relevant to Shared State.
type Config struct {
	TxCacheByteSize  int64
	TxBlockEntries   int
	FetchParallelism int
}

// New builds an empty State. Callers populate it via BootstrapHashToHeightTime
// and UpdateCacheWithBlock as the bootstrap task and tip tracker run.
func New(node *nodeclient.Client, cfg Config) *State {
	return &State{
		node:             node,
		mempool:          newMempoolState(),
		txInBlock:        txbytescache.NewTxBlockLRU(cfg.TxBlockEntries),
		txs:              txbytescache.New(cfg.TxCacheByteSize),
		txsMaxBytes:      cfg.TxCacheByteSize,
		hashToHeightTime: make(map[chainhash.Hash]HeightTime),
		heightToHash:     make([]chainhash.Hash, 0, heightChunk),
		fetchParallelism: cfg.FetchParallelism,
	}
}

// ChainInfo returns the last published chain-info snapshot.
func (s *State) ChainInfo() nodeclient.ChainInfo {
	s.chainInfoMu.RLock()
	defer s.chainInfoMu.RUnlock()
	return s.chainInfo
}

// SetChainInfo publishes a new chain-info snapshot (tip tracker's job).
func (s *State) SetChainInfo(ci nodeclient.ChainInfo) {
	s.chainInfoMu.Lock()
	s.chainInfo = ci
	s.chainInfoMu.Unlock()
}

// CacheRawTx inserts a transaction's bytes directly into the bytes cache
// without touching the tx->block map, used by the raw-tx subscriber
// (spec.md §4.7) to make a just-broadcast mempool transaction available
// before the next mempool poll.
func (s *State) CacheRawTx(id chainhash.Hash, raw []byte) {
	s.txs.Add(id, raw)
}

// TxBytesFull reports whether the tx-bytes cache has reached its configured
// byte budget, the bootstrap block phase's stopping condition (spec.md §4.3).
func (s *State) TxBytesFull() bool {
	return s.txs.Bytes() >= s.txsBudget()
}

func (s *State) txsBudget() int64 {
	return s.txsMaxBytes
}

// MempoolInfo returns the last published mempool-info snapshot.
func (s *State) MempoolInfo() nodeclient.MempoolInfo {
	s.mempoolInfoMu.RLock()
	defer s.mempoolInfoMu.RUnlock()
	return s.mempoolInfo
}

// SetMempoolInfo publishes a new mempool-info snapshot (mempool engine's
// info loop).
func (s *State) SetMempoolInfo(mi nodeclient.MempoolInfo) {
	s.mempoolInfoMu.Lock()
	s.mempoolInfo = mi
	s.mempoolInfoMu.Unlock()
}

// HeightTime resolves a block identifier's (height, timestamp), populating
// both direction maps on a miss via a single headers(id, 1) call (spec.md
// §4.2).
func (s *State) HeightTime(ctx context.Context, id chainhash.Hash) (HeightTime, error) {
	if ht, ok := s.lookupHeightTime(id); ok {
		return ht, nil
	}

	hdr, err := s.node.HeaderOne(ctx, id)
	if err != nil {
		return HeightTime{}, err
	}
	ht := HeightTime{Height: hdr.Height, Timestamp: hdr.Timestamp}
	s.recordHeightTime(id, ht)
	return ht, nil
}

func (s *State) lookupHeightTime(id chainhash.Hash) (HeightTime, bool) {
	s.hashToHeightTimeMu.RLock()
	defer s.hashToHeightTimeMu.RUnlock()
	ht, ok := s.hashToHeightTime[id]
	return ht, ok
}

// CachedHeightTime is lookupHeightTime exposed to callers that must
// distinguish "cached" from "resolved, possibly via the node" — unlike
// HeightTime, it never falls through to a node round-trip, so a miss means
// this id has genuinely not been recorded yet.
func (s *State) CachedHeightTime(id chainhash.Hash) (HeightTime, bool) {
	return s.lookupHeightTime(id)
}

func (s *State) recordHeightTime(id chainhash.Hash, ht HeightTime) {
	s.hashToHeightTimeMu.Lock()
	s.hashToHeightTime[id] = ht
	s.hashToHeightTimeMu.Unlock()

	s.setHeightToHash(ht.Height, id)
}

func (s *State) setHeightToHash(height uint32, id chainhash.Hash) {
	s.heightToHashMu.Lock()
	defer s.heightToHashMu.Unlock()
	if int(height) >= len(s.heightToHash) {
		grown := make([]chainhash.Hash, height+heightChunk)
		copy(grown, s.heightToHash)
		s.heightToHash = grown
	}
	s.heightToHash[height] = id
}

// HashForHeight resolves a height to its canonical block identifier,
// falling back to block-hash-by-height on a miss.
func (s *State) HashForHeight(ctx context.Context, height uint32) (chainhash.Hash, error) {
	if id, ok := s.lookupHeightToHash(height); ok {
		return id, nil
	}
	id, err := s.node.BlockHashByHeight(ctx, height)
	if err != nil {
		return chainhash.Hash{}, err
	}
	s.setHeightToHash(height, id)
	return id, nil
}

func (s *State) lookupHeightToHash(height uint32) (chainhash.Hash, bool) {
	s.heightToHashMu.RLock()
	defer s.heightToHashMu.RUnlock()
	if int(height) >= len(s.heightToHash) {
		return chainhash.Hash{}, false
	}
	id := s.heightToHash[height]
	return id, !id.IsZero()
}

// BootstrapHashToHeightTime bulk-inserts the header phase's results into the
// id->(h,t) map and the height->id vector.
func (s *State) BootstrapHashToHeightTime(entries map[chainhash.Hash]HeightTime) {
	for id, ht := range entries {
		s.recordHeightTime(id, ht)
	}
}

// Tx resolves a transaction's bytes and, if needBlock is set, its containing
// block identifier, fetching exactly the missing piece per spec.md §4.2's
// four-case table.
func (s *State) Tx(ctx context.Context, id chainhash.Hash, needBlock bool) ([]byte, *chainhash.Hash, error) {
	bytesVal, bytesHit := s.txs.Get(id)
	if !needBlock {
		if bytesHit {
			return bytesVal, nil, nil
		}
		data, err := s.node.TxBytes(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		s.txs.Add(id, data)
		return data, nil, nil
	}

	blockID, blockHit := s.txInBlock.Get(id)

	switch {
	case bytesHit && blockHit:
		return bytesVal, &blockID, nil
	case bytesHit && !blockHit:
		tj, err := s.node.TxJSON(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		bid, ok, err := tj.BlockID()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return bytesVal, nil, nil
		}
		s.txInBlock.Add(id, bid)
		return bytesVal, &bid, nil
	case !bytesHit && blockHit:
		data, err := s.node.TxBytes(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		s.txs.Add(id, data)
		return data, &blockID, nil
	default:
		tj, err := s.node.TxJSON(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		data, err := tj.Bytes()
		if err != nil {
			return nil, nil, ferrors.New(ferrors.KindDecode, err, "decoding tx %s hex body", id)
		}
		s.txs.Add(id, data)
		bid, ok, err := tj.BlockID()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return data, nil, nil
		}
		s.txInBlock.Add(id, bid)
		return data, &bid, nil
	}
}

// PreloadPrevouts concurrently fetches any of the given parent transaction
// ids not already in the bytes cache, bounded by fetchParallelism (spec.md
// §4.2). It never populates the tx->block map.
func (s *State) PreloadPrevouts(ctx context.Context, ids []chainhash.Hash) {
	missing := make([]chainhash.Hash, 0, len(ids))
	seen := make(map[chainhash.Hash]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := s.txs.Get(id); !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return
	}

	limit := s.fetchParallelism
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for _, id := range missing {
		wg.Add(1)
		sem <- struct{}{}
		go func(id chainhash.Hash) {
			defer wg.Done()
			defer func() { <-sem }()
			data, err := s.node.TxBytes(ctx, id)
			if err != nil {
				log.Debugf("preload_prevouts: fetching %s: %v", id, err)
				return
			}
			s.txs.Add(id, data)
		}(id)
	}
	wg.Wait()
}

// BlocksForHeights resolves a list of heights to their block identifiers via
// the height map, then fetches each block's raw bytes.
func (s *State) BlocksForHeights(ctx context.Context, heights []uint32) ([]BlockAtHeight, error) {
	out := make([]BlockAtHeight, 0, len(heights))
	for _, h := range heights {
		id, err := s.HashForHeight(ctx, h)
		if err != nil {
			return nil, err
		}
		raw, err := s.node.BlockBytes(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, BlockAtHeight{Height: h, ID: id, Raw: raw})
	}
	return out, nil
}

// BlockAtHeight is one result of BlocksForHeights.
type BlockAtHeight struct {
	Height uint32
	ID     chainhash.Hash
	Raw    []byte
}

// UpdateCacheWithBlock inserts every transaction of block into the bytes and
// tx->block caches, and — if height is non-nil — records the block's
// (height, time) in both direction maps (spec.md §4.2). Idempotent: applying
// it twice with the same arguments leaves the caches in the same state.
func (s *State) UpdateCacheWithBlock(block *wiretx.Block, blockID chainhash.Hash, height *uint32) {
	for i := range block.Transactions {
		tx := block.Transactions[i]
		raw := tx.Raw()
		s.txs.Add(tx.ID(), raw)
		s.txInBlock.Add(tx.ID(), blockID)
	}
	if height != nil {
		s.recordHeightTime(blockID, HeightTime{Height: *height, Timestamp: block.Header.Timestamp})
	}
}
