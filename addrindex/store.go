// Package addrindex is the persistent address index of spec.md §4.6: a
// goleveldb-backed store of three keyspaces (funding, spending,
// indexed-blocks) enabling address history lookups without scanning the
// chain. Grounded on the teacher's database/ffldb/ldb package — same
// iterator-over-prefix cursor shape (`ldb.LevelDBCursor`) — adapted from a
// consensus block/UTXO store to a small fingerprint-indexed keyspace, and
// standardized on the upstream `github.com/syndtr/goleveldb` import path
// rather than the teacher's vendored fork (see DESIGN.md).
package addrindex

import (
	"encoding/binary"
	"sync"

	"github.com/RCasatta/fbbe/chainhash"
	"github.com/RCasatta/fbbe/ferrors"
	"github.com/RCasatta/fbbe/logging"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var log = logging.Logger(logging.SubsystemTags.ADDR)

// Keyspace prefixes, one byte each, so all three keyspaces share one
// goleveldb database (spec.md §3: "a single on-disk key-value store").
const (
	prefixFunding       byte = 'f'
	prefixSpending      byte = 's'
	prefixIndexedBlocks byte = 'b'
)

// Store is the address indexer's persistent backing store.
type Store struct {
	db *leveldb.DB

	indexedMu sync.RWMutex
	indexed   map[chainhash.Hash]struct{} // fast in-memory copy, per spec.md §4.6
}

// Open opens (creating if necessary) the goleveldb database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, ferrors.New(ferrors.KindIO, err, "addrindex: opening %s", path)
	}
	return &Store{db: db, indexed: make(map[chainhash.Hash]struct{})}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func fundingKey(fp chainhash.ScriptFingerprint, height uint32) []byte {
	key := make([]byte, 1+8+4)
	key[0] = prefixFunding
	binary.BigEndian.PutUint64(key[1:9], uint64(fp))
	binary.BigEndian.PutUint32(key[9:13], height)
	return key
}

func spendingKey(fp chainhash.OutpointFingerprint, height uint32) []byte {
	key := make([]byte, 1+chainhash.OutpointFingerprintSize+4)
	key[0] = prefixSpending
	copy(key[1:1+chainhash.OutpointFingerprintSize], fp[:])
	binary.BigEndian.PutUint32(key[1+chainhash.OutpointFingerprintSize:], height)
	return key
}

func indexedBlockKey(id chainhash.Hash) []byte {
	key := make([]byte, 1+chainhash.HashSize)
	key[0] = prefixIndexedBlocks
	copy(key[1:], id[:])
	return key
}

// IsIndexed reports whether a block has already been fully indexed,
// checking the fast in-memory copy before falling back to the on-disk
// presence record (spec.md §4.6).
func (s *Store) IsIndexed(id chainhash.Hash) (bool, error) {
	s.indexedMu.RLock()
	_, ok := s.indexed[id]
	s.indexedMu.RUnlock()
	if ok {
		return true, nil
	}

	_, err := s.db.Get(indexedBlockKey(id), nil)
	if err == leveldb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, ferrors.New(ferrors.KindIO, err, "addrindex: checking indexed-blocks for %s", id)
	}
	s.indexedMu.Lock()
	s.indexed[id] = struct{}{}
	s.indexedMu.Unlock()
	return true, nil
}

// BlockRecord is one block's worth of index writes, computed by a caller via
// wiretx.VisitBlockOutpoints.
type BlockRecord struct {
	ID       chainhash.Hash
	Height   uint32
	Funding  []chainhash.ScriptFingerprint
	Spending []chainhash.OutpointFingerprint
}

// WriteBlock writes one atomic batch: a funding record per fingerprint, a
// spending record per consumed outpoint, and the indexed-blocks presence
// record (spec.md §4.6's "atomic batch"). Idempotent under the
// indexed-blocks guard — callers should check IsIndexed first, but writing
// twice is harmless beyond wasted I/O since presence is re-asserted.
func (s *Store) WriteBlock(rec BlockRecord) error {
	batch := new(leveldb.Batch)
	for _, fp := range rec.Funding {
		batch.Put(fundingKey(fp, rec.Height), nil)
	}
	for _, fp := range rec.Spending {
		batch.Put(spendingKey(fp, rec.Height), nil)
	}
	batch.Put(indexedBlockKey(rec.ID), nil)

	if err := s.db.Write(batch, nil); err != nil {
		return ferrors.New(ferrors.KindIO, err, "addrindex: writing batch for block %s", rec.ID)
	}

	s.indexedMu.Lock()
	s.indexed[rec.ID] = struct{}{}
	s.indexedMu.Unlock()
	return nil
}

// pageLimit bounds heights_for_script results (spec.md §4.6: "e.g., 10").
const pageLimit = 10

// HeightsForScript iterates the funding keyspace for a script's fingerprint
// prefix in descending height order, stopping after pageLimit results.
func (s *Store) HeightsForScript(fp chainhash.ScriptFingerprint) ([]uint32, error) {
	prefix := make([]byte, 1+8)
	prefix[0] = prefixFunding
	binary.BigEndian.PutUint64(prefix[1:], uint64(fp))

	it := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	var heights []uint32
	for it.Last(); it.Valid() && len(heights) < pageLimit; it.Prev() {
		key := it.Key()
		h := binary.BigEndian.Uint32(key[len(prefix):])
		heights = append(heights, h)
	}
	if err := it.Error(); err != nil {
		return nil, ferrors.New(ferrors.KindIO, err, "addrindex: iterating funding keyspace")
	}
	return heights, nil
}

// SpendingHeight seeks the outpoint fingerprint prefix and returns the first
// (lowest) matching height, if any (spec.md §4.6).
func (s *Store) SpendingHeight(fp chainhash.OutpointFingerprint) (uint32, bool, error) {
	prefix := make([]byte, 1+chainhash.OutpointFingerprintSize)
	prefix[0] = prefixSpending
	copy(prefix[1:], fp[:])

	it := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	if !it.First() {
		if err := it.Error(); err != nil {
			return 0, false, ferrors.New(ferrors.KindIO, err, "addrindex: seeking spending keyspace")
		}
		return 0, false, nil
	}
	key := it.Key()
	h := binary.BigEndian.Uint32(key[len(prefix):])
	return h, true, nil
}
