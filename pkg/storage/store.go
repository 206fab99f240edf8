// Package storage is the BadgerDB collaborator backing a node's chain
// state on disk: an append-only block log, the UTXO set, the key-image
// set, and the cluster-wealth index, matching the four-structure on-disk
// layout, with all four updated atomically per block.
package storage

import (
	"encoding/binary"
	"errors"

	"github.com/dgraph-io/badger/v3"

	"github.com/botho-project/botho/pkg/ledger"
	"github.com/botho-project/botho/pkg/tx"
)

// Key prefixes partition the single Badger keyspace into the four logical
// structures the on-disk layout names.
const (
	prefixBlockByHeight = 'b'
	prefixBlockByHash   = 'h'
	prefixUTXO          = 'u'
	prefixKeyImage      = 'k'
	prefixClusterWealth = 'c'
	prefixHeader        = 'H'
)

var keyLatestHeight = []byte("latest_height")

// Store wraps a BadgerDB handle with typed accessors for botho's chain
// state, mirroring the four-structure on-disk layout.
type Store struct {
	db *badger.DB
}

// Open opens or creates a BadgerDB database rooted at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func heightKey(height uint64) []byte {
	key := make([]byte, 9)
	key[0] = prefixBlockByHeight
	binary.LittleEndian.PutUint64(key[1:], height)
	return key
}

func hashKey(hash tx.Hash) []byte {
	key := make([]byte, 1+len(hash))
	key[0] = prefixBlockByHash
	copy(key[1:], hash[:])
	return key
}

func utxoKey(k ledger.UTXOKey) []byte {
	key := make([]byte, 1+len(k))
	key[0] = prefixUTXO
	copy(key[1:], k[:])
	return key
}

func keyImageKey(ref string) []byte {
	key := make([]byte, 1+len(ref))
	key[0] = prefixKeyImage
	copy(key[1:], ref)
	return key
}

func clusterKey(id [32]byte) []byte {
	key := make([]byte, 1+len(id))
	key[0] = prefixClusterWealth
	copy(key[1:], id[:])
	return key
}

func headerKey(height uint64) []byte {
	key := make([]byte, 9)
	key[0] = prefixHeader
	binary.LittleEndian.PutUint64(key[1:], height)
	return key
}

// BlockCommit groups everything ApplyBlock produces for one accepted
// block: the raw block bytes, its height/hash, every new/changed UTXO, new
// key images, and cluster-wealth deltas. CommitBlock writes all of it
// inside a single Badger transaction, so a crash mid-write leaves the
// store exactly as it was before the block was applied — never a partial
// block.
type BlockCommit struct {
	Height   uint64
	Hash     tx.Hash
	Bytes    []byte
	Header   ledger.Header
	NewUTXOs []*ledger.UTXO
	SpentKeys []ledger.UTXOKey
	NewKeyImageRefs []string
	ClusterWealth map[[32]byte]uint64 // absolute post-block values for every cluster touched
}

// CommitBlock atomically persists one accepted block and every ledger
// mutation it caused.
func (s *Store) CommitBlock(c BlockCommit) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(heightKey(c.Height), c.Bytes); err != nil {
			return err
		}
		if err := txn.Set(hashKey(c.Hash), c.Bytes); err != nil {
			return err
		}
		if err := txn.Set(headerKey(c.Height), c.Header.CanonicalBytes()); err != nil {
			return err
		}

		for _, u := range c.NewUTXOs {
			if err := txn.Set(utxoKey(ledger.MakeUTXOKey(u.TxHash, u.OutputIndex)), u.Encode()); err != nil {
				return err
			}
		}
		for _, k := range c.SpentKeys {
			if err := txn.Delete(utxoKey(k)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		for _, ref := range c.NewKeyImageRefs {
			if err := txn.Set(keyImageKey(ref), []byte{1}); err != nil {
				return err
			}
		}
		for id, wealth := range c.ClusterWealth {
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], wealth)
			if err := txn.Set(clusterKey(id), buf[:]); err != nil {
				return err
			}
		}

		var heightBuf [8]byte
		binary.LittleEndian.PutUint64(heightBuf[:], c.Height)
		return txn.Set(keyLatestHeight, heightBuf[:])
	})
}

// GetBlock retrieves a block's raw bytes by height.
func (s *Store) GetBlock(height uint64) ([]byte, error) {
	return s.getValue(heightKey(height))
}

// GetBlockByHash retrieves a block's raw bytes by its canonical hash.
func (s *Store) GetBlockByHash(hash tx.Hash) ([]byte, error) {
	return s.getValue(hashKey(hash))
}

// LatestHeight returns the height of the most recently committed block, or
// 0 if the store is empty.
func (s *Store) LatestHeight() (uint64, error) {
	var height uint64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyLatestHeight)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			height = binary.LittleEndian.Uint64(val)
			return nil
		})
	})
	return height, err
}

// HasKeyImage reports whether ref (in keyImageRef's string(point.Bytes())
// form) has already been committed.
func (s *Store) HasKeyImage(ref string) (bool, error) {
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(keyImageKey(ref))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// ClusterWealth returns a cluster's persisted wealth, 0 if never recorded.
func (s *Store) ClusterWealth(id [32]byte) (uint64, error) {
	var wealth uint64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(clusterKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			wealth = binary.LittleEndian.Uint64(val)
			return nil
		})
	})
	return wealth, err
}

func (s *Store) getValue(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadInto rebuilds an in-memory ledger.State from every UTXO and
// key-image record this store holds, used at node startup to restore
// state without re-verifying the entire block history.
func (s *Store) LoadInto(state *ledger.State) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		utxoPrefix := []byte{prefixUTXO}
		for it.Seek(utxoPrefix); it.ValidForPrefix(utxoPrefix); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				u, err := ledger.DecodeUTXO(val)
				if err != nil {
					return err
				}
				state.RestoreUTXO(u)
				return nil
			}); err != nil {
				return err
			}
		}

		keyImagePrefix := []byte{prefixKeyImage}
		for it.Seek(keyImagePrefix); it.ValidForPrefix(keyImagePrefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			state.RestoreKeyImageRef(string(key[1:]))
		}

		clusterPrefix := []byte{prefixClusterWealth}
		for it.Seek(clusterPrefix); it.ValidForPrefix(clusterPrefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			var id [32]byte
			copy(id[:], key[1:])
			if err := it.Item().Value(func(val []byte) error {
				state.RestoreClusterWealth(id, binary.LittleEndian.Uint64(val))
				return nil
			}); err != nil {
				return err
			}
		}

		return nil
	})
}
